package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/secondbrain/engine/contracts"
)

// QdrantConfig configures the Qdrant REST adapter.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Qdrant is a hand-rolled REST client against a Qdrant collection,
// grounded on the teacher's own Qdrant store: lazily-created collection,
// payload-carried chunk fields, cosine distance.
type Qdrant struct {
	cfg    QdrantConfig
	client *http.Client
	once   sync.Once
	ensure error
}

// NewQdrant builds a Qdrant-backed VectorStorePort adapter.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6333
	}
	if cfg.Collection == "" {
		cfg.Collection = "secondbrain_chunks"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Qdrant{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (q *Qdrant) Name() string { return "qdrant" }

func (q *Qdrant) baseURL() string {
	return fmt.Sprintf("http://%s:%d", q.cfg.Host, q.cfg.Port)
}

func (q *Qdrant) applyHeaders(req *http.Request) {
	if q.cfg.APIKey != "" {
		req.Header.Set("api-key", q.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

func (q *Qdrant) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return contracts.NewError(contracts.KindInternalError, "failed to marshal qdrant request").WithProvider(q.Name()).WithCause(err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL()+path, reqBody)
	if err != nil {
		return contracts.NewError(contracts.KindInternalError, "failed to build qdrant request").WithProvider(q.Name()).WithCause(err)
	}
	q.applyHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return contracts.NewError(contracts.KindStoreUnavailable, err.Error()).WithProvider(q.Name()).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.NewError(contracts.KindStoreUnavailable, "failed to read qdrant response").WithProvider(q.Name()).WithCause(err)
	}

	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= 400 {
		return contracts.NewError(contracts.KindStoreUnavailable, fmt.Sprintf("qdrant returned %d: %s", resp.StatusCode, string(raw))).WithProvider(q.Name())
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return contracts.NewError(contracts.KindStoreUnavailable, "malformed qdrant response").WithProvider(q.Name()).WithCause(err)
	}
	return nil
}

func (q *Qdrant) ensureCollection(ctx context.Context, dimension int) error {
	q.once.Do(func() {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		q.ensure = q.doJSON(ctx, http.MethodPut, "/collections/"+q.cfg.Collection, body, nil)
	})
	return q.ensure
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes chunks into the collection, keyed by chunk ID.
func (q *Qdrant) Upsert(ctx context.Context, chunks []contracts.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := q.ensureCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}

	points := make([]qdrantPoint, len(chunks))
	for i, c := range chunks {
		points[i] = qdrantPoint{
			ID:     c.ID,
			Vector: c.Embedding,
			Payload: map[string]any{
				"document_id":    c.DocumentID,
				"content":        c.Content,
				"knowledge_type": string(c.KnowledgeType),
				"source_origin":  string(c.SourceOrigin),
				"chunk_index":    c.ChunkIndex,
				"status":         string(c.Status),
				"metadata":       c.Metadata,
			},
		}
	}

	body := map[string]any{"points": points}
	return q.doJSON(ctx, http.MethodPut, "/collections/"+q.cfg.Collection+"/points?wait=true", body, nil)
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      string         `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// SimilaritySearch runs a filtered cosine search. Qdrant applies the limit
// server-side, so the returned raw count is the number of hits returned,
// at most topK (10 when topK <= 0), not the number considered.
func (q *Qdrant) SimilaritySearch(ctx context.Context, queryVector []float64, topK int, threshold float64, filter Filter) ([]Hit, int, error) {
	must := []map[string]any{
		{"key": "status", "match": map[string]any{"value": string(filter.effectiveStatus())}},
	}
	if filter.KnowledgeType != "" {
		must = append(must, map[string]any{"key": "knowledge_type", "match": map[string]any{"value": string(filter.KnowledgeType)}})
	}
	if filter.SourceOrigin != "" {
		must = append(must, map[string]any{"key": "source_origin", "match": map[string]any{"value": string(filter.SourceOrigin)}})
	}

	limit := topK
	if limit <= 0 {
		limit = 10
	}

	body := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
		"score_threshold": threshold,
		"filter": map[string]any{
			"must": must,
		},
	}

	var resp qdrantSearchResponse
	if err := q.doJSON(ctx, http.MethodPost, "/collections/"+q.cfg.Collection+"/points/search", body, &resp); err != nil {
		return nil, 0, err
	}

	hits := make([]Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := contracts.Chunk{
			ID:            r.ID,
			Content:       payloadString(r.Payload, "content"),
			KnowledgeType: contracts.KnowledgeType(payloadString(r.Payload, "knowledge_type")),
			SourceOrigin:  contracts.SourceOrigin(payloadString(r.Payload, "source_origin")),
			Status:        contracts.ChunkStatus(payloadString(r.Payload, "status")),
			DocumentID:    payloadString(r.Payload, "document_id"),
		}
		hits = append(hits, Hit{Chunk: chunk, Similarity: r.Score})
	}
	return hits, len(hits), nil
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

var _ Port = (*Qdrant)(nil)
