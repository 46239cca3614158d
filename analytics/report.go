package analytics

import "encoding/json"

// ColumnType is the inferred semantic type of a column.
type ColumnType string

const (
	ColumnNumeric ColumnType = "numeric"
	ColumnDate    ColumnType = "date"
	ColumnText    ColumnType = "text"
)

// Row maps a header name to the raw cell value. A column missing from the
// map was absent in the source line.
type Row map[string]string

// ColumnStats holds the summary for one column. Only the fields belonging to
// Type are serialized.
type ColumnStats struct {
	Type ColumnType `json:"-"`

	Min float64
	Max float64
	Avg float64

	Earliest string
	Latest   string

	UniqueCount int
	TopValues   []string
}

// MarshalJSON emits the type-specific shape: {min,max,avg}, {earliest,latest}
// or {uniqueCount,topValues}.
func (s ColumnStats) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case ColumnNumeric:
		return json.Marshal(struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
			Avg float64 `json:"avg"`
		}{s.Min, s.Max, s.Avg})
	case ColumnDate:
		return json.Marshal(struct {
			Earliest string `json:"earliest"`
			Latest   string `json:"latest"`
		}{s.Earliest, s.Latest})
	default:
		top := s.TopValues
		if top == nil {
			top = []string{}
		}
		return json.Marshal(struct {
			UniqueCount int      `json:"uniqueCount"`
			TopValues   []string `json:"topValues"`
		}{s.UniqueCount, top})
	}
}

// SentimentSummary describes the raw sentiment signal. Counts is set when a
// sentiment label column exists, AvgRating when only a rating column does.
type SentimentSummary struct {
	Column    string         `json:"column"`
	Counts    map[string]int `json:"counts,omitempty"`
	AvgRating string         `json:"avgRating,omitempty"`
	Total     int            `json:"total"`
}

// SentimentBreakdown is the normalized three bucket count.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Total    int `json:"total"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type ChartPoint struct {
	Date      string  `json:"date"`
	AvgRating float64 `json:"avgRating"`
	Count     int     `json:"count"`
}

type BranchStat struct {
	Branch    string  `json:"branch"`
	AvgRating float64 `json:"avgRating"`
	Count     int     `json:"count"`
}

// Report is the analytics result for one CSV document. Field names are
// consumed verbatim by the chart layer and the narrative generator.
type Report struct {
	RowCount           int                    `json:"rowCount"`
	SampledRowCount    int                    `json:"sampledRowCount"`
	Sampled            bool                   `json:"sampled"`
	ColumnCount        int                    `json:"columnCount"`
	Columns            []string               `json:"columns"`
	ColumnTypes        map[string]ColumnType  `json:"columnTypes"`
	ColumnStats        map[string]ColumnStats `json:"columnStats"`
	SentimentSummary   *SentimentSummary      `json:"sentimentSummary"`
	SentimentBreakdown *SentimentBreakdown    `json:"sentimentBreakdown"`
	ChartData          []ChartPoint           `json:"chartData"`
	BranchStats        []BranchStat           `json:"branchStats"`
	TopComplaintTerms  []TermCount            `json:"topComplaintTerms"`
	TopPraiseTerms     []TermCount            `json:"topPraiseTerms"`
	AISummary          string                 `json:"aiSummary,omitempty"`
}

// IsEmpty reports whether the source had no data rows.
func (r *Report) IsEmpty() bool {
	return r == nil || r.RowCount == 0
}
