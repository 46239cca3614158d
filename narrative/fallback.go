package narrative

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"insights/analytics"
)

const maxThemeItems = 8

type recommendation struct {
	pattern *regexp.Regexp
	text    string
}

var recommendations = []recommendation{
	{regexp.MustCompile(`wait|queue|delay|slow`), "Reduce wait times by adding staffing during peak hours and offering scheduled slots."},
	{regexp.MustCompile(`staff|service|support|rude|attitude`), "Run a targeted staff training and implement a post-resolution follow-up to recover detractors."},
	{regexp.MustCompile(`price|expensive|cost|fees`), "Review pricing transparency and highlight value (bundles, guarantees) in communications."},
	{regexp.MustCompile(`quality|defect|broken|faulty|taste`), "Introduce a quality check and rapid replacement workflow for defect-related complaints."},
}

const defaultRecommendation = "Ask detractors to share specifics via a short survey; close the loop within 48 hours and request updated reviews after resolution."

// Fallback renders the deterministic summary used when no model is available.
func Fallback(in Input) string {
	filename := in.Filename
	if filename == "" {
		filename = "uploaded.csv"
	}

	sections := []string{
		fmt.Sprintf("Executive Summary:\n- Analyzing %s with %d rows and %d columns.", filename, in.RowCount, len(in.Columns)),
	}
	if line := keyMetricsLine(in.SentimentBreakdown); line != "" {
		sections = append(sections, "Key Metrics:\n- "+line)
	}
	sections = append(sections, "Sentiment:\n- "+sentimentLine(in.SentimentSummary))
	if top, ok := topBranch(in.BranchStats); ok {
		sections = append(sections, fmt.Sprintf("Performance Highlights:\n- Top branch: %s (avg %.2f from %d reviews).", top.Branch, top.AvgRating, top.Count))
	}
	if len(in.TopComplaintTerms) > 0 {
		sections = append(sections, "Top Negative Themes:\n- "+joinTerms(in.TopComplaintTerms))
	}
	if len(in.TopPraiseTerms) > 0 {
		sections = append(sections, "Top Positive Mentions:\n- "+joinTerms(in.TopPraiseTerms))
	}
	sections = append(sections, "Recommendations:\n- "+strings.Join(recommend(in.TopComplaintTerms), "\n- "))

	return strings.Join(sections, "\n\n")
}

func keyMetricsLine(b *analytics.SentimentBreakdown) string {
	if b == nil || b.Total <= 0 {
		return ""
	}
	total := float64(b.Total)
	pos := int(math.Round(float64(b.Positive) / total * 100))
	neg := int(math.Round(float64(b.Negative) / total * 100))
	neu := 100 - pos - neg
	if neu < 0 {
		neu = 0
	}
	return fmt.Sprintf("Good vs Bad: %d positive (%d%%), %d negative (%d%%), %d neutral (%d%%) out of %d reviews.",
		b.Positive, pos, b.Negative, neg, b.Neutral, neu, b.Total)
}

func sentimentLine(s *analytics.SentimentSummary) string {
	switch {
	case s != nil && len(s.Counts) > 0:
		labels := make([]string, 0, len(s.Counts))
		total := 0
		for label, n := range s.Counts {
			labels = append(labels, label)
			total += n
		}
		sort.Slice(labels, func(i, j int) bool {
			if s.Counts[labels[i]] != s.Counts[labels[j]] {
				return s.Counts[labels[i]] > s.Counts[labels[j]]
			}
			return labels[i] < labels[j]
		})
		if total == 0 {
			total = 1
		}
		pct := int(math.Round(float64(s.Counts[labels[0]]) / float64(total) * 100))
		return fmt.Sprintf("Most common sentiment is %s (%d%%).", labels[0], pct)
	case s != nil && s.AvgRating != "":
		return fmt.Sprintf("Average rating is %s over %d rows.", s.AvgRating, s.Total)
	default:
		return "No explicit sentiment column found."
	}
}

func topBranch(stats []analytics.BranchStat) (analytics.BranchStat, bool) {
	if len(stats) == 0 {
		return analytics.BranchStat{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if s.AvgRating > best.AvgRating {
			best = s
		}
	}
	return best, true
}

func joinTerms(terms []analytics.TermCount) string {
	if len(terms) > maxThemeItems {
		terms = terms[:maxThemeItems]
	}
	items := make([]string, 0, len(terms))
	for _, t := range terms {
		items = append(items, fmt.Sprintf("%s (%d)", t.Term, t.Count))
	}
	return strings.Join(items, ", ")
}

func recommend(complaints []analytics.TermCount) []string {
	var recs []string
	for _, r := range recommendations {
		for _, t := range complaints {
			if r.pattern.MatchString(t.Term) {
				recs = append(recs, r.text)
				break
			}
		}
	}
	if len(recs) == 0 {
		recs = append(recs, defaultRecommendation)
	}
	return recs
}
