package contracts

import (
	"sort"
	"time"
)

// ProviderMetadata is the provenance record for a single provider attempt
// within one retrieval, whether it succeeded or failed.
type ProviderMetadata struct {
	Provider       string  `json:"provider"`
	RawCount       int     `json:"raw_count"`
	Threshold      float64 `json:"threshold"`
	TopK           int     `json:"top_k"`
	Error          string  `json:"error,omitempty"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	LatencyMS      int64   `json:"latency_ms"`
	RerankApplied  bool    `json:"rerank_applied,omitempty"`
}

// Summary is the confidence summary attached to a ContextPacket.
type Summary struct {
	TopConfidence    float64  `json:"top_confidence"`
	CandidateCount   int      `json:"candidate_count"`
	ProvidersUsed    []string `json:"providers_used"`
	ProvidersFailed  []string `json:"providers_failed"`
}

// ContextPacket is the Orchestrator's hand-off to the Planner.
type ContextPacket struct {
	Candidates      []Candidate                 `json:"candidates"`
	Summary         Summary                      `json:"summary"`
	RoutingMetadata map[string]ProviderMetadata  `json:"routing_metadata"`
	FallbackEmitted bool                         `json:"fallback_emitted,omitempty"`
	BranchHint      string                       `json:"branch_hint,omitempty"`
	TraceID         string                       `json:"trace_id"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// NewContextPacket sorts candidates by confidence descending (stable, so
// ties keep provider order) and derives the summary's top_confidence
// invariant: top_confidence == candidates[0].confidence, or 0 when empty.
func NewContextPacket(traceID string, candidates []Candidate, routing map[string]ProviderMetadata, now time.Time) ContextPacket {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var used, failed []string
	for name, pm := range routing {
		if pm.Error != "" {
			failed = append(failed, name)
		} else {
			used = append(used, name)
		}
	}
	sort.Strings(used)
	sort.Strings(failed)

	top := 0.0
	if len(sorted) > 0 {
		top = sorted[0].Confidence
	}

	return ContextPacket{
		Candidates: sorted,
		Summary: Summary{
			TopConfidence:   top,
			CandidateCount:  len(sorted),
			ProvidersUsed:   used,
			ProvidersFailed: failed,
		},
		RoutingMetadata: routing,
		TraceID:         traceID,
		CreatedAt:       now,
	}
}
