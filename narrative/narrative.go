// Package narrative turns an analytics report into a short prose summary.
// A language model is used when configured; otherwise, or when the model
// fails or times out, a deterministic template is returned.
package narrative

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"insights/analytics"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 8 * time.Second

// Generator produces narrative text for a report.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// Input is the subset of the report the narrative is written from.
type Input struct {
	Filename           string
	RowCount           int
	Columns            []string
	SentimentSummary   *analytics.SentimentSummary
	SentimentBreakdown *analytics.SentimentBreakdown
	BranchStats        []analytics.BranchStat
	ColumnStats        map[string]analytics.ColumnStats
	TopComplaintTerms  []analytics.TermCount
	TopPraiseTerms     []analytics.TermCount
}

// FromReport builds an Input from a finished report.
func FromReport(filename string, r *analytics.Report) Input {
	if filename == "" {
		filename = "uploaded.csv"
	}
	return Input{
		Filename:           filename,
		RowCount:           r.RowCount,
		Columns:            r.Columns,
		SentimentSummary:   r.SentimentSummary,
		SentimentBreakdown: r.SentimentBreakdown,
		BranchStats:        r.BranchStats,
		ColumnStats:        r.ColumnStats,
		TopComplaintTerms:  r.TopComplaintTerms,
		TopPraiseTerms:     r.TopPraiseTerms,
	}
}

// Narrator wraps an optional Generator with a timeout and the fallback
// template.
type Narrator struct {
	gen     Generator
	timeout time.Duration
	log     *slog.Logger
}

// NewNarrator returns a Narrator. gen may be nil, in which case Summarize
// always returns the fallback text.
func NewNarrator(gen Generator, timeout time.Duration, log *slog.Logger) *Narrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Narrator{gen: gen, timeout: timeout, log: log}
}

// Enabled reports whether a model backs this narrator.
func (n *Narrator) Enabled() bool { return n != nil && n.gen != nil }

// Summarize never fails: generator errors are logged and replaced by the
// fallback text.
func (n *Narrator) Summarize(ctx context.Context, in Input) string {
	if !n.Enabled() {
		return Fallback(in)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := n.gen.Generate(ctx, in)
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			n.log.Warn("narrative generation failed, using fallback", "error", res.err, "filename", in.Filename)
			return Fallback(in)
		}
		if text := strings.TrimSpace(res.text); text != "" {
			return text
		}
		n.log.Warn("narrative generation returned empty text, using fallback", "filename", in.Filename)
	case <-ctx.Done():
		n.log.Warn("narrative generation timed out, using fallback", "timeout", n.timeout.String(), "filename", in.Filename)
	}
	return Fallback(in)
}
