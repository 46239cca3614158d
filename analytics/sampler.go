package analytics

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// DefaultSampleLimit is the number of rows kept in memory for statistics.
const DefaultSampleLimit = 5000

// Sample is the output of the row sampler.
type Sample struct {
	Columns  []string
	Rows     []Row
	RowCount int
}

// Sampled reports whether rows were dropped because of the sample cap.
func (s *Sample) Sampled() bool {
	return s.RowCount > len(s.Rows)
}

// SampleRows reads a header-led CSV stream to the end. Every data row is
// counted, the first limit rows are retained. A limit <= 0 selects
// DefaultSampleLimit.
func SampleRows(ctx context.Context, r io.Reader, limit int) (*Sample, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	sample := &Sample{Columns: []string{}, Rows: []Row{}}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return sample, nil
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return nil, &ParseError{Line: 1, Err: fmt.Errorf("duplicate header %q", h)}
		}
		seen[h] = struct{}{}
	}
	sample.Columns = append(sample.Columns, header...)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sampling aborted: %w", err)
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("column header mismatch expected: %d columns got: %d", len(header), len(record)),
			}
		}

		sample.RowCount++
		if len(sample.Rows) >= limit {
			continue
		}

		row := make(Row, len(record))
		for i, v := range record {
			row[header[i]] = v
		}
		sample.Rows = append(sample.Rows, row)
	}

	return sample, nil
}

func wrapCSVError(err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &ParseError{Line: ce.StartLine, Err: ce.Err}
	}
	return fmt.Errorf("read csv: %w", err)
}
