package embedding

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

// HTTPConfig configures an OpenAI-compatible embeddings endpoint. Voyage,
// OpenAI, and most self-hosted embedding servers speak this same
// request/response shape, so one adapter covers all of them.
type HTTPConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// HTTPProvider is a hand-rolled client against an OpenAI-compatible
// /v1/embeddings endpoint. No vendor SDK is imported; the request shape is
// simple enough that a thin net/http wrapper is all any provider needs.
type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPProvider builds an HTTP-backed EmbeddingPort adapter.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-large"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1024
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string    { return p.cfg.Name }
func (p *HTTPProvider) Dimensions() int { return p.cfg.Dimensions }

type embedRequestBody struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponseBody struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *HTTPProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	resp, err := p.embed(ctx, []string{text}, InputTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, contracts.NewError(contracts.KindUpstreamUnavailable, "embedding provider returned no vectors").WithProvider(p.cfg.Name)
	}
	return resp.Embeddings[0], nil
}

func (p *HTTPProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := p.embed(ctx, texts, InputTypeDocument)
	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

func (p *HTTPProvider) embed(ctx context.Context, texts []string, inputType InputType) (*Response, error) {
	body := embedRequestBody{
		Input:      texts,
		Model:      p.cfg.Model,
		Dimensions: p.cfg.Dimensions,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, contracts.NewError(contracts.KindInternalError, "failed to marshal embedding request").WithProvider(p.cfg.Name).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, contracts.NewError(contracts.KindInternalError, "failed to build embedding request").WithProvider(p.cfg.Name).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, contracts.NewError(contracts.KindUpstreamUnavailable, err.Error()).WithProvider(p.cfg.Name).WithRetryable(true).WithCause(err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, contracts.NewError(contracts.KindUpstreamUnavailable, "failed to read embedding response").WithProvider(p.cfg.Name).WithCause(err)
	}

	if httpResp.StatusCode >= 500 {
		return nil, contracts.NewError(contracts.KindUpstreamUnavailable, fmt.Sprintf("embedding provider returned %d", httpResp.StatusCode)).WithProvider(p.cfg.Name).WithRetryable(true)
	}
	if httpResp.StatusCode >= 400 {
		return nil, contracts.NewError(contracts.KindInvalidArgument, fmt.Sprintf("embedding provider rejected request: %d", httpResp.StatusCode)).WithProvider(p.cfg.Name)
	}

	var parsed embedResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, contracts.NewError(contracts.KindUpstreamUnavailable, "malformed embedding response").WithProvider(p.cfg.Name).WithCause(err)
	}

	embeddings := make([][]float64, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, contracts.NewError(contracts.KindUpstreamUnavailable, "embedding response index out of range").WithProvider(p.cfg.Name)
		}
		if len(d.Embedding) != p.cfg.Dimensions {
			return nil, contracts.NewError(contracts.KindContractViolation,
				fmt.Sprintf("embedding dimension mismatch: got=%d want=%d", len(d.Embedding), p.cfg.Dimensions)).WithProvider(p.cfg.Name)
		}
		embeddings[d.Index] = d.Embedding
	}

	return &Response{
		Provider:   p.cfg.Name,
		Model:      parsed.Model,
		Embeddings: embeddings,
		Usage: Usage{
			PromptTokens: parsed.Usage.PromptTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}
