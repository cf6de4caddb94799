package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ashdown-property/splitscan/internal/model"
	"github.com/ashdown-property/splitscan/internal/store"
)

var verifyFile string

var verifyCmd = &cobra.Command{
	Use:   "verify <property-id>",
	Short: "Record verified facts for a property",
	Long:  "Merges a YAML facts file into the property's verification snapshot. Sections present in the file supersede what was stored; omitted sections are kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		propertyID := args[0]

		data, err := os.ReadFile(verifyFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", verifyFile)
		}
		var delta model.VerificationSnapshot
		if err := yaml.Unmarshal(data, &delta); err != nil {
			return eris.Wrap(err, "parse facts file")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if _, err := st.GetProperty(ctx, propertyID); err != nil {
			return eris.Wrapf(err, "get property %s", propertyID)
		}

		snap, err := st.GetSnapshot(ctx, propertyID)
		if err != nil {
			if !eris.Is(err, store.ErrNotFound) {
				return eris.Wrap(err, "load snapshot")
			}
			snap = &model.VerificationSnapshot{PropertyID: propertyID}
		}
		snap.Merge(&delta)

		if err := st.SaveSnapshot(ctx, snap); err != nil {
			return eris.Wrap(err, "save snapshot")
		}
		zap.L().Info("verification snapshot updated",
			zap.String("property", propertyID),
			zap.Bool("title", snap.Title != nil),
			zap.Int("charges", len(snap.Charges)),
			zap.Int("covenants", len(snap.Covenants)),
			zap.Bool("planning", snap.Planning != nil),
			zap.Bool("licensing", snap.Licensing != nil),
			zap.Bool("physical", snap.Physical != nil))
		return printJSON(snap)
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "facts YAML file (required)")
	verifyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(verifyCmd)
}
