package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockProvider_FiltersByThreshold(t *testing.T) {
	p := NewMockProvider([]Seed{
		{Content: "retrieval pipeline design notes"},
		{Content: "unrelated cooking recipe"},
	})

	candidates, meta := p.Search(context.Background(), "retrieval pipeline", nil, 10, 0.4, Filter{})
	require.Len(t, candidates, 1)
	require.Equal(t, "mock", meta.Provider)
	require.Empty(t, meta.Error)
}

func TestMockProvider_ConfidenceIsOverlapRatio(t *testing.T) {
	p := NewMockProvider([]Seed{{Content: "alpha beta gamma"}})
	candidates, _ := p.Search(context.Background(), "alpha beta", nil, 10, 0.0, Filter{})
	require.Len(t, candidates, 1)
	require.InDelta(t, 1.0, candidates[0].Confidence, 0.001)
}

func TestMockProvider_TruncatesToTopKButReportsRawCount(t *testing.T) {
	p := NewMockProvider([]Seed{
		{Content: "alpha"}, {Content: "alpha"}, {Content: "alpha"},
	})
	candidates, meta := p.Search(context.Background(), "alpha", nil, 1, 0.0, Filter{})
	require.Len(t, candidates, 1)
	require.Equal(t, 3, meta.RawCount)
}

func TestMockProvider_EmptyQueryScoresZeroConfidence(t *testing.T) {
	p := NewMockProvider([]Seed{{Content: "anything"}})
	candidates, _ := p.Search(context.Background(), "", nil, 10, 0.0, Filter{})
	require.Len(t, candidates, 1)
	require.Equal(t, 0.0, candidates[0].Confidence)
}

func TestMockProvider_EmptyQueryExcludedByPositiveThreshold(t *testing.T) {
	p := NewMockProvider([]Seed{{Content: "anything"}})
	candidates, _ := p.Search(context.Background(), "", nil, 10, 0.1, Filter{})
	require.Empty(t, candidates)
}
