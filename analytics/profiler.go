package analytics

import (
	"github.com/montanaflynn/stats"
)

const maxTopValues = 10

// ProfileColumns infers a type for every column and computes its summary.
// Columns with no non-empty values are typed text with a zero unique count.
func ProfileColumns(rows []Row, columns []string) (map[string]ColumnType, map[string]ColumnStats) {
	types := make(map[string]ColumnType, len(columns))
	out := make(map[string]ColumnStats, len(columns))

	for _, col := range columns {
		values := columnValues(rows, col)
		s := profileColumn(values)
		types[col] = s.Type
		out[col] = s
	}
	return types, out
}

func columnValues(rows []Row, col string) []string {
	values := make([]string, 0, len(rows))
	for _, r := range rows {
		v, ok := r[col]
		if !ok || isBlank(v) {
			continue
		}
		values = append(values, v)
	}
	return values
}

func profileColumn(values []string) ColumnStats {
	if len(values) == 0 {
		return ColumnStats{Type: ColumnText, TopValues: []string{}}
	}
	if nums, ok := allNumbers(values); ok {
		return numericStats(nums)
	}
	if s, ok := dateStats(values); ok {
		return s
	}
	return textStats(values)
}

func allNumbers(values []string) ([]float64, bool) {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := parseNumber(v)
		if !ok {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, true
}

func numericStats(nums []float64) ColumnStats {
	data := stats.Float64Data(nums)
	s := ColumnStats{Type: ColumnNumeric}
	// The errors below only signal empty input, which maps to zero.
	s.Min, _ = data.Min()
	s.Max, _ = data.Max()
	s.Avg = mean(nums)
	return s
}

// mean returns 0 for an empty slice so NaN never reaches JSON output.
func mean(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	m, err := stats.Mean(nums)
	if err != nil {
		return 0
	}
	return m
}

func dateStats(values []string) (ColumnStats, bool) {
	first, ok := parseDate(values[0])
	if !ok {
		return ColumnStats{}, false
	}
	earliest, latest := first, first
	for _, v := range values[1:] {
		t, ok := parseDate(v)
		if !ok {
			return ColumnStats{}, false
		}
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	return ColumnStats{
		Type:     ColumnDate,
		Earliest: formatTimestamp(earliest),
		Latest:   formatTimestamp(latest),
	}, true
}

// textStats keeps the first distinct values in the order they appear; the
// list is not ranked by frequency.
func textStats(values []string) ColumnStats {
	seen := make(map[string]struct{}, len(values))
	top := make([]string, 0, maxTopValues)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		if len(top) < maxTopValues {
			top = append(top, v)
		}
	}
	return ColumnStats{Type: ColumnText, UniqueCount: len(seen), TopValues: top}
}
