package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/secondbrain/engine/contracts"
)

const systemPrompt = "Answer using only the provided context. Name the source candidate where possible. If the context is insufficient to answer, say so plainly rather than guessing."

// AnthropicConfig configures the hand-rolled Claude Messages API client.
type AnthropicConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Anthropic is a thin net/http client against the Claude Messages API, in
// the same idiom as the teacher's own Claude provider: x-api-key auth,
// anthropic-version header, system prompt carried as a top-level field
// rather than a chat message. No vendor SDK is imported.
type Anthropic struct {
	cfg    AnthropicConfig
	client *http.Client
}

// NewAnthropic builds an Anthropic-backed LLMPort adapter.
func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4.5"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Anthropic{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (a *Anthropic) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Synthesize(ctx context.Context, query string, candidates []contracts.Candidate) (string, LLMMetadata, error) {
	start := time.Now()

	var contextBlock strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&contextBlock, "[%d] (source=%s)\n%s\n\n", i+1, c.Source, c.Content)
	}

	body := anthropicRequest{
		Model:  a.cfg.Model,
		System: systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock.String(), query)},
		},
		MaxTokens: a.cfg.MaxTokens,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindInternalError, "failed to marshal anthropic request").WithProvider(a.Name()).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.BaseURL, "/")+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindInternalError, "failed to build anthropic request").WithProvider(a.Name()).WithCause(err)
	}
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, err.Error()).WithProvider(a.Name()).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, "failed to read anthropic response").WithProvider(a.Name()).WithCause(err)
	}
	if resp.StatusCode >= 500 {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, fmt.Sprintf("anthropic returned %d", resp.StatusCode)).WithProvider(a.Name()).WithRetryable(true)
	}
	if resp.StatusCode >= 400 {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindInvalidArgument, fmt.Sprintf("anthropic rejected request: %d", resp.StatusCode)).WithProvider(a.Name())
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", LLMMetadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, "malformed anthropic response").WithProvider(a.Name()).WithCause(err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return text.String(), LLMMetadata{Model: a.cfg.Model, LatencyMS: time.Since(start).Milliseconds()}, nil
}

var _ LLMPort = (*Anthropic)(nil)
