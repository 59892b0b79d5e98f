// Package embedding implements the EmbeddingPort: turning text into
// fixed-dimension vectors in query or document mode.
package embedding

import (
	"context"
	"time"
)

// InputType distinguishes a search-time query from an ingestion-time
// document; some providers weight the embedding differently per mode.
type InputType string

const (
	InputTypeQuery    InputType = "query"
	InputTypeDocument InputType = "document"
)

// Request is one call into a Port.
type Request struct {
	Input     []string
	InputType InputType
	Model     string
}

// Response is the provider's answer: one vector per input, in order.
type Response struct {
	Provider   string
	Model      string
	Embeddings [][]float64
	Usage      Usage
	CreatedAt  time.Time
}

// Usage records token accounting for the embedding call, when the
// provider reports it.
type Usage struct {
	PromptTokens int
	TotalTokens  int
}

// Port is the EmbeddingPort (C2): embed_query and embed_documents.
// Every implementation guarantees all returned vectors have length
// exactly Dimensions(); a provider that returns a wrong-dimension vector
// is a contract_violation, never silently accepted.
type Port interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
	Name() string
	Dimensions() int
}
