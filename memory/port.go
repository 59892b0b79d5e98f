// Package memory implements the MemoryProvider tagged variant (C4): one
// interface, three interchangeable ways to produce candidates — vector
// search, an external memory service, or a deterministic in-process mock.
package memory

import (
	"context"

	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/vectorstore"
)

// Filter narrows a memory search the same way a vector search is narrowed.
type Filter = vectorstore.Filter

// Provider is the MemoryProvider port (C4). Every variant returns errors
// as data: a failed call never returns a Go error, it returns a
// Metadata.Error describing what happened, so the Orchestrator can compose
// fallbacks without exception handling. The candidate slice of a failed
// call is empty, except that ExternalProvider also returns any candidates
// it recovered from an error response body.
type Provider interface {
	Search(ctx context.Context, queryText string, queryVector []float64, topK int, threshold float64, filter Filter) ([]contracts.Candidate, Metadata)
	Name() string
}

// Metadata is the provider_metadata shape shared by every variant.
type Metadata struct {
	Provider       string
	RawCount       int
	Threshold      float64
	TopK           int
	Error          string
	FallbackReason string
	LatencyMS      int64
}

// ToContract converts a memory.Metadata into the wire-level
// contracts.ProviderMetadata the Orchestrator assembles into routing_metadata.
func (m Metadata) ToContract() contracts.ProviderMetadata {
	return contracts.ProviderMetadata{
		Provider:       m.Provider,
		RawCount:       m.RawCount,
		Threshold:      m.Threshold,
		TopK:           m.TopK,
		Error:          m.Error,
		FallbackReason: m.FallbackReason,
		LatencyMS:      m.LatencyMS,
	}
}
