package memory

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

// ExternalConfig configures an external memory service (mem0-style: raw
// text in, ranked candidates with the service's own scores out).
type ExternalConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ExternalProvider wraps an external memory service. Candidate source is
// "memory".
type ExternalProvider struct {
	cfg    ExternalConfig
	client *http.Client
}

// NewExternalProvider builds an HTTP-backed external MemoryProvider.
func NewExternalProvider(cfg ExternalConfig) *ExternalProvider {
	if cfg.Name == "" {
		cfg.Name = "memory"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ExternalProvider{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (p *ExternalProvider) Name() string { return p.cfg.Name }

type externalSearchRequest struct {
	Query     string  `json:"query"`
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold,omitempty"`
}

type externalSearchResponse struct {
	Results []struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	} `json:"results"`
}

func (p *ExternalProvider) Search(ctx context.Context, queryText string, _ []float64, topK int, threshold float64, _ Filter) ([]contracts.Candidate, Metadata) {
	start := time.Now()
	meta := Metadata{Provider: p.cfg.Name, Threshold: threshold, TopK: topK}

	if p.cfg.APIKey == "" {
		meta.Error = string(contracts.KindCredentialsMissing)
		meta.LatencyMS = time.Since(start).Milliseconds()
		return nil, meta
	}

	body, err := json.Marshal(externalSearchRequest{Query: queryText, TopK: topK, Threshold: threshold})
	if err != nil {
		meta.Error = string(contracts.KindInternalError)
		meta.LatencyMS = time.Since(start).Milliseconds()
		return nil, meta
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/memories/search", bytes.NewReader(body))
	if err != nil {
		meta.Error = string(contracts.KindInternalError)
		meta.LatencyMS = time.Since(start).Milliseconds()
		return nil, meta
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	meta.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			meta.Error = string(contracts.KindTimeout)
		} else {
			meta.Error = string(contracts.KindProviderUnavailable)
		}
		meta.FallbackReason = err.Error()
		return nil, meta
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		meta.Error = string(contracts.KindProviderUnavailable)
		return nil, meta
	}

	// A mem0-style partial failure can still carry results alongside an
	// error status (e.g. one backing store down, others served): keep
	// any candidates the body yields and record the status as metadata
	// rather than discarding them.
	if resp.StatusCode >= 400 {
		meta.Error = string(contracts.KindProviderUnavailable)
		meta.FallbackReason = fmt.Sprintf("status=%d", resp.StatusCode)
	}

	var parsed externalSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if meta.Error == "" {
			meta.Error = string(contracts.KindProviderUnavailable)
		}
		return nil, meta
	}

	meta.RawCount = len(parsed.Results)
	candidates := make([]contracts.Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		candidate, err := contracts.NewCandidate(r.Text, p.cfg.Name, r.Score, nil)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, meta
}

var _ Provider = (*ExternalProvider)(nil)
