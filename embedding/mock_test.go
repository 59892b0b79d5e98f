package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockProvider_DeterministicForSameText(t *testing.T) {
	m := NewMockProvider(16)
	a, err := m.EmbedQuery(context.Background(), "same text")
	require.NoError(t, err)
	b, err := m.EmbedQuery(context.Background(), "same text")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestMockProvider_AllVectorsHaveConfiguredDimension(t *testing.T) {
	m := NewMockProvider(1024)
	vec, err := m.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 1024)
}

func TestMockProvider_EmbedDocumentsPreservesOrder(t *testing.T) {
	m := NewMockProvider(8)
	texts := []string{"alpha", "beta", "gamma"}
	vecs, err := m.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, text := range texts {
		single, err := m.EmbedQuery(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, single, vecs[i])
	}
}

func TestValidateDimension_RejectsMismatch(t *testing.T) {
	err := ValidateDimension(make([]float64, 4), 8, "mock")
	require.Error(t, err)
}

func TestValidateDimension_AcceptsMatch(t *testing.T) {
	err := ValidateDimension(make([]float64, 8), 8, "mock")
	require.NoError(t, err)
}
