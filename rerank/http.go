package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/secondbrain/engine/contracts"
)

// HTTPConfig configures a Cohere-compatible /v2/rerank endpoint.
type HTTPConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPProvider is a hand-rolled client against a Cohere-compatible rerank
// endpoint, in the same idiom as the teacher's own Cohere reranker: a
// thin net/http wrapper rather than a vendor SDK.
type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPProvider builds an HTTP-backed RerankPort adapter.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cohere.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "rerank-v3.5"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProvider) Name() string { return p.cfg.Name }

type rerankRequestBody struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponseBody struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (p *HTTPProvider) Rerank(ctx context.Context, query string, candidates []contracts.Candidate, topK int) ([]contracts.Candidate, Metadata, error) {
	start := time.Now()
	if len(candidates) == 0 {
		return candidates, Metadata{RerankType: RerankNone, LatencyMS: 0}, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	body := rerankRequestBody{Query: query, Documents: docs, Model: p.cfg.Model, TopN: topK}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, Metadata{}, contracts.NewError(contracts.KindInternalError, "failed to marshal rerank request").WithProvider(p.cfg.Name).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.BaseURL, "/")+"/v2/rerank", bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, contracts.NewError(contracts.KindInternalError, "failed to build rerank request").WithProvider(p.cfg.Name).WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, Metadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, err.Error()).WithProvider(p.cfg.Name).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Metadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, "failed to read rerank response").WithProvider(p.cfg.Name).WithCause(err)
	}
	if resp.StatusCode >= 500 {
		return nil, Metadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, fmt.Sprintf("rerank provider returned %d", resp.StatusCode)).WithProvider(p.cfg.Name).WithRetryable(true)
	}
	if resp.StatusCode >= 400 {
		return nil, Metadata{}, contracts.NewError(contracts.KindInvalidArgument, fmt.Sprintf("rerank provider rejected request: %d", resp.StatusCode)).WithProvider(p.cfg.Name)
	}

	var parsed rerankResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, Metadata{}, contracts.NewError(contracts.KindUpstreamUnavailable, "malformed rerank response").WithProvider(p.cfg.Name).WithCause(err)
	}

	out := make([]contracts.Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		// Hardening rule: bounds-check every index; skip rather than panic.
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		score := r.RelevanceScore
		if score < 0 || score > 1 {
			score = 0.0
		}
		candidate := candidates[r.Index]
		candidate.Confidence = score
		out = append(out, candidate)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}

	return out, Metadata{
		RerankType: RerankExternal,
		Model:      p.cfg.Model,
		LatencyMS:  time.Since(start).Milliseconds(),
	}, nil
}

var _ Port = (*HTTPProvider)(nil)
