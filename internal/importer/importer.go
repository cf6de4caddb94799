// Package importer loads market evidence and unit schedules from files: the
// Land Registry Price Paid bulk CSV export and agent-supplied XLSX unit
// schedules.
package importer

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ashdown-property/splitscan/internal/fetcher"
	"github.com/ashdown-property/splitscan/internal/model"
)

// Price Paid bulk export column positions. The export carries no header row.
const (
	ppdColPrice    = 1
	ppdColDate     = 2
	ppdColPostcode = 3
	ppdColType     = 4
	ppdColNewBuild = 5
	ppdColDuration = 6
	ppdColPAON     = 7
	ppdColStreet   = 9
	ppdMinColumns  = 10
)

// ImportPricePaidCSV streams a Price Paid bulk export and returns the
// comparable records it contains. Malformed rows are logged and skipped.
func ImportPricePaidCSV(ctx context.Context, r io.Reader) ([]model.ComparableRecord, error) {
	log := zap.L().Named("importer")
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{TrimSpace: true})

	var out []model.ComparableRecord
	for row := range rowCh {
		rec, err := pricePaidRow(row)
		if err != nil {
			log.Warn("skipping malformed price paid row", zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "importer: price paid csv")
	}
	log.Info("price paid import complete", zap.Int("records", len(out)))
	return out, nil
}

func pricePaidRow(row []string) (model.ComparableRecord, error) {
	if len(row) < ppdMinColumns {
		return model.ComparableRecord{}, eris.Errorf("row has %d columns, want at least %d", len(row), ppdMinColumns)
	}

	price, err := strconv.ParseInt(row[ppdColPrice], 10, 64)
	if err != nil {
		return model.ComparableRecord{}, eris.Wrapf(err, "parse price %q", row[ppdColPrice])
	}

	// bulk export dates look like "2025-06-12 00:00"
	saleDate, err := time.Parse("2006-01-02", strings.SplitN(row[ppdColDate], " ", 2)[0])
	if err != nil {
		return model.ComparableRecord{}, eris.Wrapf(err, "parse date %q", row[ppdColDate])
	}

	address := row[ppdColPAON]
	if row[ppdColStreet] != "" {
		address += " " + row[ppdColStreet]
	}

	return model.ComparableRecord{
		Address:      address,
		Postcode:     row[ppdColPostcode],
		Price:        price,
		SaleDate:     saleDate,
		PropertyType: row[ppdColType],
		NewBuild:     row[ppdColNewBuild] == "Y",
		TenureType:   row[ppdColDuration],
		Source:       model.SourceLandRegistry,
	}, nil
}

// Agent comparable spreadsheet column positions (after the header row).
const (
	compColAddress  = 0
	compColPostcode = 1
	compColPrice    = 2
	compColDate     = 3
	compColType     = 4
	compColBedrooms = 5
)

// ImportComparablesXLSX reads an agent-supplied comparables spreadsheet. The
// first row is a header; each following row is one sale with columns address,
// postcode, price, sale date, property type and optional bedrooms. Malformed
// rows are logged and skipped.
func ImportComparablesXLSX(path string) ([]model.ComparableRecord, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: 1})
	if err != nil {
		return nil, eris.Wrap(err, "importer: comparables spreadsheet")
	}

	log := zap.L().Named("importer")
	out := make([]model.ComparableRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) <= compColDate || strings.TrimSpace(row[compColAddress]) == "" {
			continue
		}

		price, err := strconv.ParseInt(strings.TrimSpace(row[compColPrice]), 10, 64)
		if err != nil {
			log.Warn("skipping comparable with unreadable price",
				zap.String("address", row[compColAddress]), zap.String("value", row[compColPrice]))
			continue
		}
		saleDate, err := time.Parse("2006-01-02", strings.TrimSpace(row[compColDate]))
		if err != nil {
			log.Warn("skipping comparable with unreadable date",
				zap.String("address", row[compColAddress]), zap.String("value", row[compColDate]))
			continue
		}

		rec := model.ComparableRecord{
			Address:  strings.TrimSpace(row[compColAddress]),
			Postcode: strings.TrimSpace(row[compColPostcode]),
			Price:    price,
			SaleDate: saleDate,
			Source:   model.SourceManual,
		}
		if len(row) > compColType {
			rec.PropertyType = strings.TrimSpace(row[compColType])
		}
		if len(row) > compColBedrooms && row[compColBedrooms] != "" {
			if beds, err := strconv.Atoi(strings.TrimSpace(row[compColBedrooms])); err == nil {
				rec.Bedrooms = &beds
			}
		}
		out = append(out, rec)
	}
	log.Info("comparables spreadsheet import complete", zap.Int("records", len(out)))
	return out, nil
}

// Unit schedule column positions (after the header row).
const (
	unitColIdentifier = 0
	unitColBedrooms   = 1
	unitColFloorArea  = 2
	unitColEPC        = 3
)

// ImportUnitScheduleXLSX reads an agent unit schedule spreadsheet. The first
// row is a header; each following row describes one unit.
func ImportUnitScheduleXLSX(path string) ([]model.UnitSpec, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: 1})
	if err != nil {
		return nil, eris.Wrap(err, "importer: unit schedule")
	}

	log := zap.L().Named("importer")
	out := make([]model.UnitSpec, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[unitColIdentifier]) == "" {
			continue
		}
		unit := model.UnitSpec{Identifier: strings.TrimSpace(row[unitColIdentifier])}

		if len(row) > unitColBedrooms && row[unitColBedrooms] != "" {
			if beds, err := strconv.Atoi(strings.TrimSpace(row[unitColBedrooms])); err == nil {
				unit.Bedrooms = &beds
			} else {
				log.Warn("unit schedule: unreadable bedroom count",
					zap.String("unit", unit.Identifier), zap.String("value", row[unitColBedrooms]))
			}
		}
		if len(row) > unitColFloorArea && row[unitColFloorArea] != "" {
			if area, err := strconv.ParseFloat(strings.TrimSpace(row[unitColFloorArea]), 64); err == nil && area > 0 {
				unit.FloorAreaSqm = &area
			}
		}
		if len(row) > unitColEPC {
			unit.EPCRating = strings.ToUpper(strings.TrimSpace(row[unitColEPC]))
		}

		out = append(out, unit)
	}
	if len(out) == 0 {
		return nil, eris.New("importer: unit schedule contains no units")
	}
	return out, nil
}
