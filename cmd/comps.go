package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashdown-property/splitscan/internal/fetcher"
	"github.com/ashdown-property/splitscan/internal/importer"
	"github.com/ashdown-property/splitscan/internal/model"
)

var compsCmd = &cobra.Command{
	Use:   "comps",
	Short: "Manage the comparable-sale evidence cache",
}

var compsFetchCmd = &cobra.Command{
	Use:   "fetch <postcode-district>",
	Short: "Fetch sold prices for a district from the Land Registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		district := args[0]

		lr := newLandRegistry()
		records, err := lr.PricesPaid(ctx, district, time.Now().Add(-lookback()))
		if err != nil {
			return eris.Wrapf(err, "fetch prices paid for %s", district)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		saved, err := st.SaveComparables(ctx, district, records)
		if err != nil {
			return eris.Wrap(err, "save comparables")
		}
		zap.L().Info("comparables fetched",
			zap.String("district", district),
			zap.Int("fetched", len(records)),
			zap.Int("new", saved))
		return nil
	},
}

var compsImportCmd = &cobra.Command{
	Use:   "import <postcode-district> <comps.csv|comps.xlsx|url>",
	Short: "Import comparable sales from a file into the cache",
	Long:  "Reads a Price Paid Data CSV (local file or http(s) URL) or an agent comparables spreadsheet, then caches rows matching the district.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		district := args[0]

		records, err := loadComparables(ctx, args[1])
		if err != nil {
			return err
		}

		// Keep only rows in the requested district.
		filtered := records[:0]
		for _, rec := range records {
			if model.PostcodeDistrict(rec.Postcode) == district {
				filtered = append(filtered, rec)
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		saved, err := st.SaveComparables(ctx, district, filtered)
		if err != nil {
			return eris.Wrap(err, "save comparables")
		}
		zap.L().Info("comparables imported",
			zap.String("district", district),
			zap.Int("rows", len(records)),
			zap.Int("matched", len(filtered)),
			zap.Int("new", saved))
		return nil
	},
}

// loadComparables reads sales from an XLSX spreadsheet or a PPD CSV, which
// may be a local file or an http(s) URL.
func loadComparables(ctx context.Context, src string) ([]model.ComparableRecord, error) {
	if strings.HasSuffix(strings.ToLower(src), ".xlsx") {
		records, err := importer.ImportComparablesXLSX(src)
		return records, eris.Wrap(err, "import comparables spreadsheet")
	}

	f, err := openSource(ctx, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := importer.ImportPricePaidCSV(ctx, f)
	return records, eris.Wrap(err, "import price paid csv")
}

// openSource opens a local file, or streams the download when given a URL.
func openSource(ctx context.Context, src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		hf := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			RateLimiters: fetcher.DefaultRateLimiters(),
		})
		body, err := hf.Download(ctx, src)
		if err != nil {
			return nil, eris.Wrapf(err, "download %s", src)
		}
		return body, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", src)
	}
	return f, nil
}

func init() {
	compsCmd.AddCommand(compsFetchCmd, compsImportCmd)
	rootCmd.AddCommand(compsCmd)
}
