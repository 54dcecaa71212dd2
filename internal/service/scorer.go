package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memefinder/internal/prompts"
)

// RelevanceScorer estimates how well a post's text matches a query.
type RelevanceScorer interface {
	// ScorePost returns a relevance score, nominally in [0,1]. Callers must
	// not trust the range: see normalizeScore.
	ScorePost(ctx context.Context, text, query string) (float64, error)
}

// OpenAIScorer scores relevance with an OpenAI-compatible chat completion.
type OpenAIScorer struct {
	client      *resty.Client
	model       string
	endpoint    string
	maxTokens   int
	temperature float32
}

// ScorerConfig holds configuration for the relevance scorer.
type ScorerConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// NewOpenAIScorer creates a new relevance scorer.
// Parameters:
//   - cfg: model, credentials and sampling settings.
//
// Returns:
//   - *OpenAIScorer: initialized scorer.
func NewOpenAIScorer(cfg *ScorerConfig) *OpenAIScorer {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 10
	}

	return &OpenAIScorer{
		client:      client,
		model:       cfg.Model,
		endpoint:    baseURL + "/chat/completions",
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ScorePost asks the model for a relevance score of text against query.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: post title and body.
//   - query: user search query, may be empty.
//
// Returns:
//   - float64: the number the model answered with.
//   - error: non-nil if the call fails or the answer is not a number.
func (s *OpenAIScorer) ScorePost(ctx context.Context, text, query string) (float64, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.RelevanceSystemPrompt},
			{Role: "user", Content: prompts.RelevanceUserPrompt(text, query)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to call completion API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return 0, fmt.Errorf("completion API error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return 0, fmt.Errorf("completion API error: HTTP %d", httpResp.StatusCode())
	}

	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices in completion response")
	}

	return parseLeadingFloat(resp.Choices[0].Message.Content)
}

var leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// parseLeadingFloat parses the numeric prefix of s, so "0.8" and
// "0.8 (highly related)" both yield 0.8.
func parseLeadingFloat(s string) (float64, error) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return strconv.ParseFloat(m, 64)
}

// normalizeScore collapses failed, non-numeric and out-of-range scores to 0.
func normalizeScore(score float64, err error) float64 {
	if err != nil || math.IsNaN(score) || score < 0 || score > 1 {
		return 0
	}
	return score
}
