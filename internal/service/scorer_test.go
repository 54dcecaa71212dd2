package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "0.8", want: 0.8},
		{in: " 0.75\n", want: 0.75},
		{in: "0.9 (very relevant)", want: 0.9},
		{in: ".5", want: 0.5},
		{in: "1", want: 1},
		{in: "-0.2", want: -0.2},
		{in: "1e-1", want: 0.1},
		{in: "3.", want: 3},
		{in: "Score: 0.8", wantErr: true},
		{in: "", wantErr: true},
		{in: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLeadingFloat(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseLeadingFloat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLeadingFloat_Infinity(t *testing.T) {
	got, err := parseLeadingFloat("Infinity")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %v", got)
	}
	if normalizeScore(got, nil) != 0 {
		t.Error("expected infinite score to normalize to 0")
	}
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		err   error
		want  float64
	}{
		{name: "in range", score: 0.7, want: 0.7},
		{name: "lower bound", score: 0, want: 0},
		{name: "upper bound", score: 1, want: 1},
		{name: "above range", score: 1.5, want: 0},
		{name: "negative", score: -0.1, want: 0},
		{name: "nan", score: math.NaN(), want: 0},
		{name: "error", score: 0.9, err: errors.New("timeout"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeScore(tt.score, tt.err); got != tt.want {
				t.Errorf("normalizeScore(%v, %v) = %v, want %v", tt.score, tt.err, got, tt.want)
			}
		})
	}
}

func TestOpenAIScorer_ScorePost(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"0.85"}}]}`))
	}))
	defer srv.Close()

	scorer := NewOpenAIScorer(&ScorerConfig{
		Model:       "gpt-3.5-turbo",
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/v1/",
		Temperature: 0.5,
	})

	score, err := scorer.ScorePost(context.Background(), "cat falls off table ", "cats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.85 {
		t.Errorf("score = %v, want 0.85", score)
	}

	if got.Model != "gpt-3.5-turbo" || got.MaxTokens != 10 || got.Temperature != 0.5 {
		t.Errorf("unexpected request settings: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "cat falls off table") || !strings.Contains(got.Messages[1].Content, "cats") {
		t.Errorf("user prompt missing text or query: %q", got.Messages[1].Content)
	}
}

func TestOpenAIScorer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited","type":"requests"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "not a number", status: http.StatusOK, body: `{"choices":[{"message":{"content":"very relevant"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			scorer := NewOpenAIScorer(&ScorerConfig{Model: "m", APIKey: "k", BaseURL: srv.URL})
			if _, err := scorer.ScorePost(context.Background(), "text", "query"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
