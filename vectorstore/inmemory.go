package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/secondbrain/engine/contracts"
)

// InMemory is a map-backed VectorStorePort used in tests and local
// development, grounded on the same full linear-scan-plus-sort approach
// the teacher's in-memory vector store uses.
type InMemory struct {
	mu     sync.RWMutex
	chunks map[string]contracts.Chunk
}

// NewInMemory builds an empty in-memory vector store.
func NewInMemory() *InMemory {
	return &InMemory{chunks: make(map[string]contracts.Chunk)}
}

func (s *InMemory) Name() string { return "inmemory" }

// Put inserts or replaces a chunk; used by tests and by ingestion
// shortcuts that bypass the network-facing stores.
func (s *InMemory) Put(chunk contracts.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = chunk
}

// Delete removes a chunk by ID.
func (s *InMemory) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, id)
}

// Count returns the number of stored chunks.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *InMemory) SimilaritySearch(_ context.Context, queryVector []float64, topK int, threshold float64, filter Filter) ([]Hit, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := filter.effectiveStatus()
	var hits []Hit
	for _, chunk := range s.chunks {
		if chunk.Status != status {
			continue
		}
		if filter.KnowledgeType != "" && chunk.KnowledgeType != filter.KnowledgeType {
			continue
		}
		if filter.SourceOrigin != "" && chunk.SourceOrigin != filter.SourceOrigin {
			continue
		}
		sim := cosineSimilarity(queryVector, chunk.Embedding)
		if sim < threshold {
			continue
		}
		hits = append(hits, Hit{Chunk: chunk, Similarity: sim})
	}

	rawCount := len(hits)

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	return hits, rawCount, nil
}

var _ Port = (*InMemory)(nil)
