package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewsCSV = `date,branch,rating,review
2024-01-01,North,5,"great service"
2024-01-01,North,1,"terrible wait"
2024-01-02,South,3,"ok experience"
`

func analyze(t *testing.T, csv string, opts ...Option) *Report {
	t.Helper()
	report, err := NewEngine(opts...).Analyze(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	return report
}

func TestAnalyzeReviewScenario(t *testing.T) {
	report := analyze(t, reviewsCSV)

	assert.Equal(t, 3, report.RowCount)
	assert.Equal(t, 4, report.ColumnCount)
	assert.False(t, report.Sampled)
	assert.Equal(t, []string{"date", "branch", "rating", "review"}, report.Columns)
	assert.Equal(t, ColumnDate, report.ColumnTypes["date"])
	assert.Equal(t, ColumnText, report.ColumnTypes["branch"])
	assert.Equal(t, ColumnNumeric, report.ColumnTypes["rating"])

	assert.Equal(t, []ChartPoint{
		{Date: "2024-01-01", AvgRating: 3, Count: 2},
		{Date: "2024-01-02", AvgRating: 3, Count: 1},
	}, report.ChartData)
	assert.Equal(t, []BranchStat{
		{Branch: "North", AvgRating: 3, Count: 2},
		{Branch: "South", AvgRating: 3, Count: 1},
	}, report.BranchStats)
	assert.Equal(t, &SentimentBreakdown{Positive: 1, Neutral: 1, Negative: 1, Total: 3}, report.SentimentBreakdown)

	require.NotNil(t, report.SentimentSummary)
	assert.Equal(t, "rating", report.SentimentSummary.Column)
	assert.Equal(t, "3.00", report.SentimentSummary.AvgRating)

	assert.Equal(t, []TermCount{{Term: "terrible", Count: 1}, {Term: "wait", Count: 1}}, report.TopComplaintTerms)
	assert.Equal(t, []TermCount{{Term: "great", Count: 1}, {Term: "service", Count: 1}}, report.TopPraiseTerms)
}

func TestAnalyzeHeaderOnly(t *testing.T) {
	report := analyze(t, "name,score,when\n")

	assert.True(t, report.IsEmpty())
	assert.Equal(t, 0, report.RowCount)
	assert.Equal(t, []string{"name", "score", "when"}, report.Columns)
	for _, col := range report.Columns {
		assert.Equal(t, ColumnText, report.ColumnTypes[col])
		assert.Equal(t, 0, report.ColumnStats[col].UniqueCount)
	}
	assert.Nil(t, report.SentimentBreakdown)
	assert.Empty(t, report.ChartData)
}

func TestAnalyzeEmptyStream(t *testing.T) {
	report := analyze(t, "")
	assert.Equal(t, 0, report.RowCount)
	assert.Empty(t, report.Columns)
}

func TestAnalyzeCountsBeyondSampleCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,rating\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, 5)
	}
	b.WriteString("late,1\n")

	report := analyze(t, b.String(), WithSampleLimit(10))

	assert.Equal(t, 26, report.RowCount)
	assert.Equal(t, 10, report.SampledRowCount)
	assert.True(t, report.Sampled)
	// the non-numeric id sits past the cap, so the column stays numeric
	assert.Equal(t, ColumnNumeric, report.ColumnTypes["id"])
	assert.Equal(t, 10, report.SentimentBreakdown.Total)
	assert.Equal(t, 0, report.SentimentBreakdown.Negative)
}

func TestAnalyzeMalformedCSV(t *testing.T) {
	_, err := NewEngine().Analyze(context.Background(), strings.NewReader("a,b\n1,\"unterminated\n"))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().Analyze(ctx, strings.NewReader(reviewsCSV))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsParseError(err))
}

func TestReportJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(analyze(t, reviewsCSV))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"rowCount", "columnCount", "columns", "columnTypes", "columnStats", "sentimentSummary",
		"sentimentBreakdown", "chartData", "branchStats", "topComplaintTerms", "topPraiseTerms", "sampled",
	} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "aiSummary")

	var stats map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw["columnStats"], &stats))
	assert.Equal(t, map[string]any{"min": 1.0, "max": 5.0, "avg": 3.0}, stats["rating"])
	assert.Equal(t, "2024-01-01T00:00:00.000Z", stats["date"]["earliest"])
	assert.Equal(t, "2024-01-02T00:00:00.000Z", stats["date"]["latest"])
}

func TestReportNullSentimentWhenUndetected(t *testing.T) {
	data, err := json.Marshal(analyze(t, "city,population\nOslo,700000\n"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sentimentSummary":null`)
	assert.Contains(t, string(data), `"sentimentBreakdown":null`)
}
