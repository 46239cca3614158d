package analytics

import (
	"regexp"
	"sort"
	"strings"
)

const (
	maxTerms      = 15
	minTermLength = 3
)

var nonAlpha = regexp.MustCompile(`[^a-z]+`)

// DefaultStopwords is the English stopword list applied to review text.
var DefaultStopwords = []string{
	"the", "a", "an", "and", "or", "but", "if", "on", "in", "at", "to", "for", "of", "with",
	"is", "it", "this", "that", "was", "were", "are", "be", "as", "we", "i", "you", "they",
	"he", "she", "them", "our", "your", "from", "by", "not", "very", "so", "too", "also",
	"had", "have", "has",
}

// StopwordSet builds a lookup set from a word list.
func StopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

// CountTerms tallies alphabetic tokens across texts and returns the most
// frequent ones. Ties keep first-appearance order.
func CountTerms(texts []string, stopwords map[string]struct{}) []TermCount {
	freq := map[string]int{}
	var order []string
	for _, t := range texts {
		if t == "" {
			continue
		}
		for _, w := range nonAlpha.Split(strings.ToLower(t), -1) {
			if len(w) < minTermLength {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			if freq[w] == 0 {
				order = append(order, w)
			}
			freq[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > maxTerms {
		order = order[:maxTerms]
	}

	out := make([]TermCount, 0, len(order))
	for _, w := range order {
		out = append(out, TermCount{Term: w, Count: freq[w]})
	}
	return out
}

// ExtractThemes splits review text by row polarity and counts terms on each
// side. It returns empty lists when there is no text column or no breakdown.
func ExtractThemes(rows []Row, sig Signals, breakdown *SentimentBreakdown, stopwords map[string]struct{}) (complaints, praise []TermCount) {
	if sig.Text == "" || breakdown == nil {
		return []TermCount{}, []TermCount{}
	}
	var neg, pos []string
	for _, r := range rows {
		switch rowPolarity(r, sig) {
		case PolarityNegative:
			neg = append(neg, r[sig.Text])
		case PolarityPositive:
			pos = append(pos, r[sig.Text])
		}
	}
	return CountTerms(neg, stopwords), CountTerms(pos, stopwords)
}
