// Package fetcher downloads and parses bulk open-data files: rate-limited
// HTTP, streaming CSV and XLSX spreadsheets.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	SkipHeader bool // drop the first row
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV parses CSV rows off the reader and sends them on the returned
// channel, so a full price-paid extract never sits in memory whole. Both
// channels close when parsing finishes; at most one error is sent.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		// price-paid rows occasionally vary in width
		reader.FieldsPerRecord = -1

		first := true
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "fetcher: read csv row")
				return
			}

			if first && opts.SkipHeader {
				first = false
				continue
			}
			first = false

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv stream cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
