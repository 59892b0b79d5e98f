package vectorstore

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/secondbrain/engine/contracts"
	"gorm.io/gorm"
)

// SQL is a gorm-backed VectorStorePort usable against either Postgres or
// SQLite: the documents/chunks schema from spec §6.2, migrated via
// AutoMigrate the way the teacher migrates its model-routing tables.
// Similarity is scored in Go rather than via a dialect-specific vector
// operator, so the same adapter works against pgvector in production and
// SQLite in dev mode without a second code path.
type SQL struct {
	db   *gorm.DB
	name string
}

// NewPostgres wraps a Postgres *gorm.DB (expected to carry the pgvector
// extension) as a VectorStorePort.
func NewPostgres(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&DocumentRow{}, &ChunkRow{}); err != nil {
		return nil, contracts.NewError(contracts.KindStoreUnavailable, "failed to migrate postgres schema").WithProvider("postgres").WithCause(err)
	}
	return &SQL{db: db, name: "postgres"}, nil
}

// NewSQLite wraps a SQLite *gorm.DB as a
// VectorStorePort, used for local development without a Postgres instance.
func NewSQLite(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&DocumentRow{}, &ChunkRow{}); err != nil {
		return nil, contracts.NewError(contracts.KindStoreUnavailable, "failed to migrate sqlite schema").WithProvider("sqlite").WithCause(err)
	}
	return &SQL{db: db, name: "sqlite"}, nil
}

func (s *SQL) Name() string { return s.name }

// UpsertDocument inserts or replaces a document row.
func (s *SQL) UpsertDocument(ctx context.Context, doc contracts.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return contracts.NewError(contracts.KindInternalError, "failed to marshal document metadata").WithCause(err)
	}
	row := DocumentRow{
		ID:            doc.ID,
		Title:         doc.Title,
		KnowledgeType: string(doc.KnowledgeType),
		SourceOrigin:  string(doc.SourceOrigin),
		SourceURL:     doc.SourceURL,
		Author:        doc.Author,
		RawContent:    doc.RawContent,
		Metadata:      string(metadata),
		IngestedAt:    doc.IngestedAt,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return contracts.NewError(contracts.KindStoreUnavailable, "failed to upsert document").WithProvider(s.name).WithCause(err)
	}
	return nil
}

// UpsertChunk inserts or replaces a chunk row.
func (s *SQL) UpsertChunk(ctx context.Context, chunk contracts.Chunk) error {
	embedding, err := json.Marshal(chunk.Embedding)
	if err != nil {
		return contracts.NewError(contracts.KindInternalError, "failed to marshal chunk embedding").WithCause(err)
	}
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return contracts.NewError(contracts.KindInternalError, "failed to marshal chunk metadata").WithCause(err)
	}
	status := chunk.Status
	if status == "" {
		status = contracts.ChunkActive
	}
	row := ChunkRow{
		ID:            chunk.ID,
		DocumentID:    chunk.DocumentID,
		Content:       chunk.Content,
		Embedding:     string(embedding),
		KnowledgeType: string(chunk.KnowledgeType),
		SourceOrigin:  string(chunk.SourceOrigin),
		ChunkIndex:    chunk.ChunkIndex,
		Status:        string(status),
		Metadata:      string(metadata),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return contracts.NewError(contracts.KindStoreUnavailable, "failed to upsert chunk").WithProvider(s.name).WithCause(err)
	}
	return nil
}

func (s *SQL) SimilaritySearch(ctx context.Context, queryVector []float64, topK int, threshold float64, filter Filter) ([]Hit, int, error) {
	query := s.db.WithContext(ctx).Model(&ChunkRow{}).Where("status = ?", string(filter.effectiveStatus()))
	if filter.KnowledgeType != "" {
		query = query.Where("knowledge_type = ?", string(filter.KnowledgeType))
	}
	if filter.SourceOrigin != "" {
		query = query.Where("source_origin = ?", string(filter.SourceOrigin))
	}

	var rows []ChunkRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, contracts.NewError(contracts.KindStoreUnavailable, "chunk query failed").WithProvider(s.name).WithCause(err)
	}

	var hits []Hit
	for _, row := range rows {
		var embedding []float64
		if err := json.Unmarshal([]byte(row.Embedding), &embedding); err != nil {
			continue
		}
		sim := cosineSimilarity(queryVector, embedding)
		if sim < threshold {
			continue
		}
		hits = append(hits, Hit{Chunk: toContractChunk(row, embedding), Similarity: sim})
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

var _ Port = (*SQL)(nil)
