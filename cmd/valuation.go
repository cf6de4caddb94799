package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var valuationOffline bool

var valuationCmd = &cobra.Command{
	Use:   "valuation <property-id>",
	Short: "Value each unit and report the split economics",
	Long:  "Runs the valuation reconciler and GDV aggregation for a property without producing a recommendation or saving an assessment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := newEngine(st, valuationOffline)
		report, err := eng.Value(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "valuation")
		}
		return printJSON(report)
	},
}

func init() {
	valuationCmd.Flags().BoolVar(&valuationOffline, "offline", false, "value units from cached comparables only")
	rootCmd.AddCommand(valuationCmd)
}
