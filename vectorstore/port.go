// Package vectorstore implements the VectorStorePort: similarity_search
// over stored chunks, with adapters for Qdrant, Postgres/pgvector, SQLite
// (dev mode), and an in-memory store for tests.
package vectorstore

import (
	"context"

	"github.com/secondbrain/engine/contracts"
)

// Filter narrows a similarity search. Status defaults to "active" when
// empty; the engine never returns superseded/archived/deleted chunks.
type Filter struct {
	KnowledgeType contracts.KnowledgeType
	SourceOrigin  contracts.SourceOrigin
	Status        contracts.ChunkStatus
}

func (f Filter) effectiveStatus() contracts.ChunkStatus {
	if f.Status == "" {
		return contracts.ChunkActive
	}
	return f.Status
}

// Hit is one similarity match: a chunk plus its cosine similarity.
type Hit struct {
	Chunk      contracts.Chunk
	Similarity float64
}

// Port is the VectorStorePort (C3). raw_count is the number of hits the
// store considered before truncating to top_k, for diagnostics; an empty
// result is never an error.
type Port interface {
	SimilaritySearch(ctx context.Context, queryVector []float64, topK int, threshold float64, filter Filter) (hits []Hit, rawCount int, err error)
	Name() string
}
