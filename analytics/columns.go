package analytics

import (
	"regexp"
	"strings"
)

// Signals holds the columns that carry sentiment, rating, review text and
// branch information. Empty means not detected.
type Signals struct {
	Sentiment string
	Rating    string
	Text      string
	Branch    string
	Date      string
}

type columnMatcher struct {
	role  string
	match func(lower string) bool
}

var textColumnPattern = regexp.MustCompile(`review|text|comment|feedback`)

func contains(sub string) func(string) bool {
	return func(lower string) bool { return strings.Contains(lower, sub) }
}

// Ordered by role; within a role the first column in header order wins.
var columnMatchers = []columnMatcher{
	{role: "sentiment", match: contains("sentiment")},
	{role: "rating", match: contains("rating")},
	{role: "text", match: textColumnPattern.MatchString},
	{role: "branch", match: contains("branch")},
}

// DetectSignals picks signal columns by header name. The date column is the
// first column profiled as date.
func DetectSignals(columns []string, types map[string]ColumnType) Signals {
	var sig Signals
	for _, m := range columnMatchers {
		name := firstMatch(columns, m.match)
		switch m.role {
		case "sentiment":
			sig.Sentiment = name
		case "rating":
			sig.Rating = name
		case "text":
			sig.Text = name
		case "branch":
			sig.Branch = name
		}
	}
	for _, c := range columns {
		if types[c] == ColumnDate {
			sig.Date = c
			break
		}
	}
	return sig
}

func firstMatch(columns []string, match func(string) bool) string {
	for _, c := range columns {
		if match(strings.ToLower(c)) {
			return c
		}
	}
	return ""
}
