package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/secondbrain/engine/contracts"
)

// Mock scores by term overlap between the query and candidate content:
// matchCount / len(queryTerms), clamped to [0,1]. Used when no live
// reranker is configured, in the same spirit as the teacher's own
// simplified rerank-score heuristic.
type Mock struct{}

// NewMock builds a deterministic term-overlap RerankPort adapter.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Rerank(_ context.Context, query string, candidates []contracts.Candidate, topK int) ([]contracts.Candidate, Metadata, error) {
	queryTerms := tokenize(query)
	out := make([]contracts.Candidate, len(candidates))
	copy(out, candidates)

	for i := range out {
		out[i].Confidence = termOverlapScore(queryTerms, tokenize(out[i].Content))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}

	return out, Metadata{RerankType: RerankMock}, nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func termOverlapScore(queryTerms, contentTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0.0
	}
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
	score := float64(matches) / float64(len(queryTerms))
	if score > 1 {
		return 1
	}
	return score
}

var _ Port = (*Mock)(nil)
