package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used for summaries.
const DefaultModel = "gemini-1.5-flash"

// Gemini generates narratives with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client for apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Generate(ctx context.Context, in Input) (string, error) {
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(in)))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// BuildPrompt renders the analyst prompt for in. Large JSON blocks are
// truncated to keep the request small.
func BuildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("You are a senior CX analyst. Using the analytics below, produce a professional, brand-owner-ready insight report ")
	b.WriteString("with sections and bullet points (plain text only, no markdown symbols like * or #). Keep it crisp and actionable. Include:\n")
	b.WriteString("1) Executive Summary (1-2 bullets).\n")
	b.WriteString("2) Key Metrics: counts and percentages of positive, neutral, negative reviews.\n")
	b.WriteString("3) Sentiment Drivers: top negative themes (with counts) and top positive mentions.\n")
	b.WriteString("4) Performance Highlights: best/worst branches if available.\n")
	b.WriteString("5) High-Impact Recommendations: 3-5 prioritized, specific actions tied to the drivers.\n\n")

	fmt.Fprintf(&b, "CSV: %s\n", in.Filename)
	fmt.Fprintf(&b, "Rows: %d\n", in.RowCount)
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(in.Columns, ", "))
	fmt.Fprintf(&b, "Sentiment breakdown: %s\n", compactJSON(in.SentimentBreakdown, 0))
	fmt.Fprintf(&b, "Sentiment summary: %s\n", compactJSON(in.SentimentSummary, 0))
	fmt.Fprintf(&b, "Top negative themes: %s\n", compactJSON(in.TopComplaintTerms, 1500))
	fmt.Fprintf(&b, "Top positive mentions: %s\n", compactJSON(in.TopPraiseTerms, 1500))
	fmt.Fprintf(&b, "Branch stats (avgRating,count): %s\n", compactJSON(in.BranchStats, 2000))
	fmt.Fprintf(&b, "Column stats: %s\n\n", compactJSON(in.ColumnStats, 1500))
	b.WriteString("Return plain text only with clear section headings and bullet points.")
	return b.String()
}

func compactJSON(v any, limit int) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "{}"
	}
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	return string(data)
}
