package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ashdown-property/splitscan/internal/importer"
	"github.com/ashdown-property/splitscan/internal/model"
	"github.com/ashdown-property/splitscan/internal/store"
)

var (
	propertyFile     string
	propertyPostcode string
	propertyLimit    int
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Manage properties under assessment",
}

var propertyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a property from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(propertyFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", propertyFile)
		}
		var p model.Property
		if err := yaml.Unmarshal(data, &p); err != nil {
			return eris.Wrap(err, "parse property file")
		}
		if p.AddressLine1 == "" || p.Postcode == "" {
			return eris.New("property file must set address_line1 and postcode")
		}
		if p.EstimatedUnits <= 0 {
			return eris.New("property file must set estimated_units > 0")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.UpsertProperty(ctx, &p); err != nil {
			return eris.Wrap(err, "save property")
		}
		zap.L().Info("property saved", zap.String("id", p.ID), zap.String("postcode", p.Postcode))
		return printJSON(&p)
	},
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		props, err := st.ListProperties(ctx, store.PropertyFilter{
			Postcode: propertyPostcode,
			Limit:    propertyLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list properties")
		}
		return printJSON(props)
	},
}

var propertyShowCmd = &cobra.Command{
	Use:   "show <property-id>",
	Short: "Show one property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.GetProperty(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "get property %s", args[0])
		}
		return printJSON(p)
	},
}

var propertyUnitsCmd = &cobra.Command{
	Use:   "units <property-id> <schedule.xlsx>",
	Short: "Attach a unit schedule spreadsheet to a property",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		units, err := importer.ImportUnitScheduleXLSX(args[1])
		if err != nil {
			return eris.Wrap(err, "import unit schedule")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.GetProperty(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "get property %s", args[0])
		}
		p.Units = units
		if p.EstimatedUnits < len(units) {
			p.EstimatedUnits = len(units)
		}
		if err := st.UpsertProperty(ctx, p); err != nil {
			return eris.Wrap(err, "save property")
		}
		zap.L().Info("unit schedule attached",
			zap.String("property", p.ID), zap.Int("units", len(units)))
		return printJSON(p)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	propertyAddCmd.Flags().StringVarP(&propertyFile, "file", "f", "", "property YAML file (required)")
	propertyAddCmd.MarkFlagRequired("file")
	propertyListCmd.Flags().StringVar(&propertyPostcode, "postcode", "", "filter by postcode prefix")
	propertyListCmd.Flags().IntVar(&propertyLimit, "limit", 50, "maximum rows")

	propertyCmd.AddCommand(propertyAddCmd, propertyListCmd, propertyShowCmd, propertyUnitsCmd)
	rootCmd.AddCommand(propertyCmd)
}
