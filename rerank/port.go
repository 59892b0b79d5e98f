// Package rerank implements the RerankPort: re-scoring a candidate list
// against a query, with an external HTTP-backed reranker and a
// deterministic term-overlap mock.
package rerank

import (
	"context"

	"github.com/secondbrain/engine/contracts"
)

// RerankType is the closed set of rerank_metadata.rerank_type values.
type RerankType string

const (
	RerankExternal RerankType = "external"
	RerankMock     RerankType = "mock"
	RerankNone     RerankType = "none"
)

// Metadata describes what happened during one rerank call.
type Metadata struct {
	RerankType     RerankType
	Model          string
	LatencyMS      int64
	FallbackReason string
}

// Port is the RerankPort (C5). Implementations must bounds-check any
// index the underlying reranker returns against the input candidate list
// and skip invalid indices rather than panicking; an invalid score field
// is treated as 0.0.
type Port interface {
	Rerank(ctx context.Context, query string, candidates []contracts.Candidate, topK int) ([]contracts.Candidate, Metadata, error)
	Name() string
}
