// Package sentiment scores free-text feedback about trip entries with an LLM.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrDisabled      = errors.New("sentiment analysis is not configured")
	ErrEmptyResponse = errors.New("empty response from sentiment model")
)

const maxResponseBytes = 1 << 20

// Item is one entry to analyze.
type Item struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Restaurant *string  `json:"restaurant,omitempty"`
	Reviews    []string `json:"reviews"`
	Answers    []string `json:"answers"`
}

// Result is the model's verdict for one item. Score is on a 0..10 scale.
type Result struct {
	Score   float64 `json:"sentiment_score"`
	Comment string  `json:"comment"`
}

// Analyzer scores a whole batch in one call. A failure applies to the batch.
type Analyzer interface {
	Analyze(ctx context.Context, items []Item) (map[string]Result, error)
}

type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

func (c Config) IsEnabled() bool {
	return c.APIKey != ""
}

// Client calls a Gemini-style generateContent endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.Model + ":generateContent"
}

// Analyze makes exactly one request for items; there is no retry.
func (c *Client) Analyze(ctx context.Context, items []Item) (map[string]Result, error) {
	if !c.cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if len(items) == 0 {
		return map[string]Result{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("sentiment rate limiter: %w", err)
	}

	prompt, err := buildPrompt(items)
	if err != nil {
		return nil, err
	}
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	results, err := parseResults(text)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "sentiment analyzed", slog.Int("items", len(items)), slog.Int("results", len(results)))
	return results, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"temperature":      0.2,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call sentiment model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read sentiment response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("sentiment model returned status %d", resp.StatusCode)
	}

	var gen struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return "", fmt.Errorf("decode sentiment envelope: %w", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return gen.Candidates[0].Content.Parts[0].Text, nil
}

func buildPrompt(items []Item) (string, error) {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sentiment items: %w", err)
	}
	return fmt.Sprintf(`You rate food experiences from a group trip. For each item, read the reviews and
follow-up answers and judge how positive the group felt about it.
Return ONLY valid JSON matching this schema:
{
  "results": [
    {"id": "<item id>", "sentiment_score": 0.0 to 10.0, "comment": "one short sentence"}
  ]
}
Include every item id exactly once. Items with no text get 5.0.

Items:
%s`, payload), nil
}

func parseResults(text string) (map[string]Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed struct {
		Results []struct {
			ID string `json:"id"`
			Result
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, fmt.Errorf("decode sentiment results: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, ErrEmptyResponse
	}

	out := make(map[string]Result, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.ID == "" {
			continue
		}
		out[r.ID] = r.Result
	}
	return out, nil
}
