package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTavilyBaseURL = "https://api.tavily.com"

// trustedDomains is the allowlist used for enrichment searches. Facts only
// count when they come from sources we would cite to a concierge guest.
var trustedDomains = []string{
	"guide.michelin.com",
	"ny.eater.com",
	"timeout.com",
	"nytimes.com",
	"theinfatuation.com",
	"opentable.com",
	"resy.com",
	"instagram.com",
	"exploretock.com",
}

// TavilyClient is a thin HTTP client for the Tavily search API.
type TavilyClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
}

func NewTavilyClient(apiKey string, logger *slog.Logger) *TavilyClient {
	return &TavilyClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultTavilyBaseURL,
		logger:     logger,
	}
}

// NewTavilyClientWithBaseURL exists for tests pointing at an httptest server.
func NewTavilyClientWithBaseURL(apiKey, baseURL string, logger *slog.Logger) *TavilyClient {
	c := NewTavilyClient(apiKey, logger)
	c.baseURL = baseURL
	return c
}

type tavilySearchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results"`
}

type TavilyResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type TavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []TavilyResult `json:"results"`
}

// Search runs one advanced-depth query against the trusted-domain allowlist.
func (c *TavilyClient) Search(ctx context.Context, query string, restrictDomains bool) (*TavilyResponse, error) {
	reqBody := tavilySearchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "advanced",
		IncludeAnswer: true,
		MaxResults:    3,
	}
	if restrictDomains {
		reqBody.IncludeDomains = trustedDomains
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var result TavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return &result, nil
}
