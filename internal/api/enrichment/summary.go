package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

const summaryModel = "gemini-2.0-flash"

// Summarizer turns raw enrichment facts into a short concierge-style
// narrative. Optional: callers fall back to a plain rendering when it is nil
// or errors out.
type Summarizer interface {
	Summarize(ctx context.Context, facts *types.EnrichmentFacts) (string, error)
}

var _ Summarizer = (*GeminiSummarizer)(nil)

type GeminiSummarizer struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiSummarizer builds the summarizer from GOOGLE_GEMINI_API_KEY.
// Returns nil without error when the key is unset, so deployments without
// Gemini access still serve plain fact renderings.
func NewGeminiSummarizer(ctx context.Context, logger *slog.Logger) (*GeminiSummarizer, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		logger.Info("GOOGLE_GEMINI_API_KEY not set, enrichment summaries disabled")
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiSummarizer{
		client: client,
		model:  summaryModel,
		logger: logger,
	}, nil
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, facts *types.EnrichmentFacts) (string, error) {
	prompt := summaryPrompt(facts)
	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating enrichment summary: %w", err)
	}
	return result.Text(), nil
}

func summaryPrompt(facts *types.EnrichmentFacts) string {
	var b strings.Builder
	b.WriteString("You are a restaurant concierge. Summarize the following live findings about ")
	b.WriteString(facts.POIName)
	b.WriteString(" in 3-4 sentences for a guest deciding where to eat tonight. Only use the facts given.\n\n")

	sections := []struct{ label, text string }{
		{"Holiday hours", facts.HolidayHours},
		{"Special events and menus", facts.SpecialEvents},
		{"Recent news", facts.RecentNews},
		{"Social buzz", facts.SocialBuzz},
		{"Current availability", facts.CurrentAvailability},
		{"Latest recognition", facts.LatestRecognition},
	}
	for _, sec := range sections {
		if sec.text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", sec.label, sec.text)
	}
	return b.String()
}

// RenderFacts is the plain-text fallback used when no summarizer is
// configured or the model call fails.
func RenderFacts(facts *types.EnrichmentFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - real-time updates\n", facts.POIName)

	sections := []struct{ label, text string }{
		{"Holiday hours", facts.HolidayHours},
		{"Special events", facts.SpecialEvents},
		{"Recent news", facts.RecentNews},
		{"Social buzz", facts.SocialBuzz},
		{"Availability", facts.CurrentAvailability},
		{"Recognition", facts.LatestRecognition},
	}
	for _, sec := range sections {
		if sec.text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", sec.label, sec.text)
	}

	if len(facts.Citations) > 0 {
		b.WriteString("Sources: ")
		seen := make(map[string]bool)
		var sources []string
		for _, c := range facts.Citations {
			if c.Source != "" && !seen[c.Source] {
				seen[c.Source] = true
				sources = append(sources, c.Source)
			}
		}
		b.WriteString(strings.Join(sources, ", "))
		b.WriteString("\n")
	}
	return b.String()
}
