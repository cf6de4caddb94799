package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ashdown-property/splitscan/internal/model"
	"github.com/ashdown-property/splitscan/internal/store"
)

var (
	assessOffline bool
	assessFacts   string
	historyLimit  int
)

var assessCmd = &cobra.Command{
	Use:   "assess <property-id>",
	Short: "Run a full assessment for a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if assessFacts != "" {
			if err := mergeFacts(ctx, st, args[0], assessFacts); err != nil {
				return err
			}
		}

		eng := newEngine(st, assessOffline)
		result, err := eng.Assess(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "assess")
		}
		return printJSON(result)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <property-id>",
	Short: "Show past assessments for a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListAssessments(ctx, args[0], historyLimit)
		if err != nil {
			return eris.Wrap(err, "list assessments")
		}
		return printJSON(runs)
	},
}

// mergeFacts reads a YAML facts file and folds it into the property's stored
// snapshot before the assessment runs.
func mergeFacts(ctx context.Context, st store.Store, propertyID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	var delta model.VerificationSnapshot
	if err := yaml.Unmarshal(data, &delta); err != nil {
		return eris.Wrap(err, "parse facts file")
	}

	snap, err := st.GetSnapshot(ctx, propertyID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			return eris.Wrap(err, "load snapshot")
		}
		snap = &model.VerificationSnapshot{PropertyID: propertyID}
	}
	snap.Merge(&delta)
	return eris.Wrap(st.SaveSnapshot(ctx, snap), "save snapshot")
}

func init() {
	assessCmd.Flags().BoolVar(&assessOffline, "offline", false, "value units from cached comparables only")
	assessCmd.Flags().StringVarP(&assessFacts, "facts", "f", "", "facts YAML file to merge before assessing")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum assessments to show")
	rootCmd.AddCommand(assessCmd, historyCmd)
}
