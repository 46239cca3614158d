package narrative

import (
	"math"
	"regexp"
	"strings"
)

// Label is a coarse sentiment class.
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"
)

// TextSentiment is a lexicon score for one piece of text.
type TextSentiment struct {
	Score      float64 `json:"score"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

var (
	positiveWords = wordSet("good", "great", "excellent", "amazing", "love", "fantastic", "happy", "satisfied", "awesome", "perfect")
	negativeWords = wordSet("bad", "terrible", "awful", "hate", "poor", "angry", "unsatisfied", "horrible", "worst", "disappointed")
	tokenSplit    = regexp.MustCompile(`[^a-zA-Z]+`)
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// ScoreText scores text with a small keyword lexicon. The score is
// normalized into [-1, 1] by text length.
func ScoreText(text string) TextSentiment {
	tokens := tokenSplit.Split(strings.ToLower(text), -1)
	score := 0.0
	for _, t := range tokens {
		if _, ok := positiveWords[t]; ok {
			score++
		}
		if _, ok := negativeWords[t]; ok {
			score--
		}
	}
	normalized := clamp(score / math.Max(1, float64(len(tokens))/10))

	label := LabelNeutral
	switch {
	case normalized > 0.15:
		label = LabelPositive
	case normalized < -0.15:
		label = LabelNegative
	}
	return TextSentiment{
		Score:      normalized,
		Label:      label,
		Confidence: math.Min(1, math.Abs(normalized)),
	}
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
