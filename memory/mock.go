package memory

import (
	"context"
	"strings"
	"time"

	"github.com/secondbrain/engine/contracts"
)

// Seed is one pre-loaded candidate the MockProvider can surface.
type Seed struct {
	Content string
	Tags    map[string]string
}

// MockProvider is a deterministic in-process implementation for tests: it
// filters a pre-seeded list by keyword overlap, with confidence equal to
// the overlap ratio. Candidate source is "mock".
type MockProvider struct {
	seeds []Seed
}

// NewMockProvider builds a MockProvider over a fixed seed list.
func NewMockProvider(seeds []Seed) *MockProvider {
	return &MockProvider{seeds: seeds}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Search(_ context.Context, queryText string, _ []float64, topK int, threshold float64, _ Filter) ([]contracts.Candidate, Metadata) {
	start := time.Now()
	queryTerms := strings.Fields(strings.ToLower(queryText))

	var candidates []contracts.Candidate
	for _, seed := range p.seeds {
		overlap := keywordOverlap(queryTerms, seed.Content)
		if overlap < threshold {
			continue
		}
		candidate, err := contracts.NewCandidate(seed.Content, p.Name(), overlap, seed.Tags)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate)
	}

	rawCount := len(candidates)
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	return candidates, Metadata{
		Provider:  p.Name(),
		RawCount:  rawCount,
		Threshold: threshold,
		TopK:      topK,
		LatencyMS: time.Since(start).Milliseconds(),
	}
}

func keywordOverlap(queryTerms []string, content string) float64 {
	if len(queryTerms) == 0 {
		return 0.0
	}
	contentTerms := strings.Fields(strings.ToLower(content))
	contentSet := make(map[string]struct{}, len(contentTerms))
	for _, t := range contentTerms {
		contentSet[t] = struct{}{}
	}
	matches := 0
	for _, qTerm := range queryTerms {
		if _, ok := contentSet[qTerm]; ok {
			matches++
		}
	}
	ratio := float64(matches) / float64(len(queryTerms))
	if ratio > 1 {
		return 1
	}
	return ratio
}

var _ Provider = (*MockProvider)(nil)
