package vectorstore

import (
	"context"
	"testing"

	"github.com/secondbrain/engine/contracts"
	"github.com/stretchr/testify/require"
)

func chunkWith(id string, embedding []float64, status contracts.ChunkStatus) contracts.Chunk {
	if status == "" {
		status = contracts.ChunkActive
	}
	return contracts.Chunk{
		ID:            id,
		DocumentID:    "doc-1",
		Content:       "content " + id,
		Embedding:     embedding,
		KnowledgeType: contracts.KnowledgeNote,
		SourceOrigin:  contracts.OriginManual,
		Status:        status,
	}
}

func TestInMemory_SimilaritySearch_OrdersByConfidenceDescending(t *testing.T) {
	store := NewInMemory()
	store.Put(chunkWith("a", []float64{1, 0}, ""))
	store.Put(chunkWith("b", []float64{0.9, 0.1}, ""))
	store.Put(chunkWith("c", []float64{0, 1}, ""))

	hits, rawCount, err := store.SimilaritySearch(context.Background(), []float64{1, 0}, 10, 0.0, Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, rawCount)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		require.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}
	require.Equal(t, "a", hits[0].Chunk.ID)
}

func TestInMemory_SimilaritySearch_ExcludesNonActiveByDefault(t *testing.T) {
	store := NewInMemory()
	store.Put(chunkWith("active", []float64{1, 0}, contracts.ChunkActive))
	store.Put(chunkWith("archived", []float64{1, 0}, contracts.ChunkArchived))

	hits, _, err := store.SimilaritySearch(context.Background(), []float64{1, 0}, 10, 0.0, Filter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "active", hits[0].Chunk.ID)
}

func TestInMemory_SimilaritySearch_RespectsThreshold(t *testing.T) {
	store := NewInMemory()
	store.Put(chunkWith("close", []float64{1, 0}, ""))
	store.Put(chunkWith("far", []float64{0, 1}, ""))

	hits, rawCount, err := store.SimilaritySearch(context.Background(), []float64{1, 0}, 10, 0.9, Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, rawCount)
	require.Len(t, hits, 1)
	require.Equal(t, "close", hits[0].Chunk.ID)
}

func TestInMemory_SimilaritySearch_TruncatesToTopK(t *testing.T) {
	store := NewInMemory()
	for i := 0; i < 5; i++ {
		store.Put(chunkWith(string(rune('a'+i)), []float64{1, 0}, ""))
	}
	hits, rawCount, err := store.SimilaritySearch(context.Background(), []float64{1, 0}, 2, 0.0, Filter{})
	require.NoError(t, err)
	require.Equal(t, 5, rawCount)
	require.Len(t, hits, 2)
}

func TestInMemory_SimilaritySearch_EmptyResultIsNotAnError(t *testing.T) {
	store := NewInMemory()
	hits, rawCount, err := store.SimilaritySearch(context.Background(), []float64{1, 0}, 10, 0.5, Filter{})
	require.NoError(t, err)
	require.Empty(t, hits)
	require.Equal(t, 0, rawCount)
}
