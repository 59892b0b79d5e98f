package memory

import (
	"context"
	"time"

	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/embedding"
	"github.com/secondbrain/engine/vectorstore"
)

// VectorProvider embeds the query (when no vector is supplied) and runs a
// similarity search against a VectorStorePort. Candidate source is "vector".
type VectorProvider struct {
	name     string
	embedder embedding.Port
	store    vectorstore.Port
}

// NewVectorProvider builds a MemoryProvider backed by embedding + vector
// store ports.
func NewVectorProvider(embedder embedding.Port, store vectorstore.Port) *VectorProvider {
	return &VectorProvider{name: "vector", embedder: embedder, store: store}
}

func (p *VectorProvider) Name() string { return p.name }

func (p *VectorProvider) Search(ctx context.Context, queryText string, queryVector []float64, topK int, threshold float64, filter Filter) ([]contracts.Candidate, Metadata) {
	start := time.Now()
	meta := Metadata{Provider: p.name, Threshold: threshold, TopK: topK}

	vec := queryVector
	if vec == nil {
		embedded, err := p.embedder.EmbedQuery(ctx, queryText)
		if err != nil {
			meta.Error = string(contracts.ErrorKind(err))
			meta.LatencyMS = time.Since(start).Milliseconds()
			return nil, meta
		}
		vec = embedded
	}

	hits, rawCount, err := p.store.SimilaritySearch(ctx, vec, topK, threshold, filter)
	meta.RawCount = rawCount
	meta.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		meta.Error = string(contracts.ErrorKind(err))
		return nil, meta
	}

	candidates := make([]contracts.Candidate, len(hits))
	for i, h := range hits {
		candidates[i], _ = contracts.NewCandidate(h.Chunk.Content, p.name, h.Similarity, map[string]string{
			"chunk_id":       h.Chunk.ID,
			"document_id":    h.Chunk.DocumentID,
			"knowledge_type": string(h.Chunk.KnowledgeType),
		})
	}
	return candidates, meta
}

var _ Provider = (*VectorProvider)(nil)
