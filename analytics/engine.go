package analytics

import (
	"context"
	"io"
)

// Engine runs the sampling, profiling, sentiment and aggregation stages over
// a CSV stream. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	sampleLimit int
	stopwords   map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSampleLimit sets the number of rows used for statistics.
func WithSampleLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sampleLimit = n
		}
	}
}

// WithStopwords replaces the default stopword list.
func WithStopwords(words []string) Option {
	return func(e *Engine) {
		e.stopwords = StopwordSet(words)
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sampleLimit: DefaultSampleLimit,
		stopwords:   StopwordSet(DefaultStopwords),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SampleLimit returns the configured sample cap.
func (e *Engine) SampleLimit() int { return e.sampleLimit }

// Analyze reads r to the end and builds the report. Malformed CSV yields a
// *ParseError and cancellation yields the context error; neither produces a
// partial report.
func (e *Engine) Analyze(ctx context.Context, r io.Reader) (*Report, error) {
	sample, err := SampleRows(ctx, r, e.sampleLimit)
	if err != nil {
		return nil, err
	}
	return e.Build(sample), nil
}

// Build runs the in-memory stages over an already materialized sample.
func (e *Engine) Build(sample *Sample) *Report {
	rows, columns := sample.Rows, sample.Columns

	types, stats := ProfileColumns(rows, columns)
	sig := DetectSignals(columns, types)
	summary, breakdown := Summarize(rows, sig)
	complaints, praise := ExtractThemes(rows, sig, breakdown, e.stopwords)

	return &Report{
		RowCount:           sample.RowCount,
		SampledRowCount:    len(rows),
		Sampled:            sample.Sampled(),
		ColumnCount:        len(columns),
		Columns:            columns,
		ColumnTypes:        types,
		ColumnStats:        stats,
		SentimentSummary:   summary,
		SentimentBreakdown: breakdown,
		ChartData:          BuildChartData(rows, sig),
		BranchStats:        BuildBranchStats(rows, sig),
		TopComplaintTerms:  complaints,
		TopPraiseTerms:     praise,
	}
}
