package analytics

import (
	"fmt"
	"regexp"
	"strings"
)

// Polarity is the derived sentiment of a row.
type Polarity int

const (
	PolarityNone Polarity = iota
	PolarityPositive
	PolarityNeutral
	PolarityNegative
)

var (
	positiveLabel = regexp.MustCompile(`pos|good|great|excellent|satisfied|happy`)
	negativeLabel = regexp.MustCompile(`neg|bad|poor|terrible|unsatisfied|angry|worst|hate`)
)

// ClassifyLabel buckets a free-form sentiment label. Positive patterns are
// tested first, so "unsatisfied" lands in positive through "satisfied".
func ClassifyLabel(label string) Polarity {
	key := strings.ToLower(label)
	switch {
	case positiveLabel.MatchString(key):
		return PolarityPositive
	case negativeLabel.MatchString(key):
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// ClassifyRating buckets a star rating: >=4 positive, <=2 negative.
func ClassifyRating(r float64) Polarity {
	switch {
	case r >= 4:
		return PolarityPositive
	case r <= 2:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// rowPolarity classifies a row with the same signal the breakdown used: the
// sentiment label when that column exists, the rating otherwise.
func rowPolarity(r Row, sig Signals) Polarity {
	if sig.Sentiment != "" {
		v := r[sig.Sentiment]
		if v == "" {
			return PolarityNone
		}
		return ClassifyLabel(v)
	}
	if sig.Rating != "" {
		f, ok := parseNumber(r[sig.Rating])
		if !ok {
			return PolarityNone
		}
		return ClassifyRating(f)
	}
	return PolarityNone
}

// Summarize derives the sentiment summary and breakdown. Both are nil when
// neither a sentiment nor a rating column exists.
func Summarize(rows []Row, sig Signals) (*SentimentSummary, *SentimentBreakdown) {
	switch {
	case sig.Sentiment != "":
		return summarizeLabels(rows, sig.Sentiment)
	case sig.Rating != "":
		return summarizeRatings(rows, sig.Rating)
	default:
		return nil, nil
	}
}

func summarizeLabels(rows []Row, col string) (*SentimentSummary, *SentimentBreakdown) {
	summary := &SentimentSummary{Column: col, Counts: map[string]int{}}
	breakdown := &SentimentBreakdown{}
	for _, r := range rows {
		v := r[col]
		if v == "" {
			continue
		}
		summary.Counts[v]++
		summary.Total++
		breakdown.add(ClassifyLabel(v))
	}
	return summary, breakdown
}

func summarizeRatings(rows []Row, col string) (*SentimentSummary, *SentimentBreakdown) {
	ratings := make([]float64, 0, len(rows))
	breakdown := &SentimentBreakdown{}
	for _, r := range rows {
		f, ok := parseNumber(r[col])
		if !ok {
			continue
		}
		ratings = append(ratings, f)
		breakdown.add(ClassifyRating(f))
	}
	summary := &SentimentSummary{
		Column:    col,
		AvgRating: fmt.Sprintf("%.2f", mean(ratings)),
		Total:     len(ratings),
	}
	return summary, breakdown
}

func (b *SentimentBreakdown) add(p Polarity) {
	switch p {
	case PolarityPositive:
		b.Positive++
	case PolarityNegative:
		b.Negative++
	case PolarityNeutral:
		b.Neutral++
	default:
		return
	}
	b.Total++
}
