package embedding

import (
	"context"
	"hash/fnv"

	"github.com/secondbrain/engine/contracts"
)

// MockProvider produces deterministic vectors from a text hash, with no
// network calls. Used in tests and as the mode-exhausted fallback vector
// source so recall can still run without a live embedding deployment.
type MockProvider struct {
	dimensions int
}

// NewMockProvider builds a MockProvider with the given fixed dimension D.
func NewMockProvider(dimensions int) *MockProvider {
	return &MockProvider{dimensions: dimensions}
}

func (m *MockProvider) Name() string    { return "mock" }
func (m *MockProvider) Dimensions() int { return m.dimensions }

func (m *MockProvider) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	return m.vector(text), nil
}

func (m *MockProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

// vector derives a pseudo-embedding from text content: each dimension is
// an FNV hash of the whole text seeded by its index, mapped into [-1, 1),
// so identical text always produces an identical vector; any change to
// the text, even one sharing a prefix, yields unrelated values.
func (m *MockProvider) vector(text string) []float64 {
	out := make([]float64, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		h := fnv.New32a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		v := float64(h.Sum32()%2000) / 1000.0
		out[i] = v - 1.0
	}
	return out
}

var _ Port = (*MockProvider)(nil)

// ValidateDimension is the contract-enforcement hook any Port wrapper can
// call before handing a vector onward: a wrong-length vector is always a
// contract_violation, never silently truncated or padded.
func ValidateDimension(vec []float64, want int, provider string) error {
	if len(vec) != want {
		return contracts.NewError(contracts.KindContractViolation, "embedding vector has wrong dimension").WithProvider(provider)
	}
	return nil
}
