package vectorstore

import (
	"time"

	"github.com/secondbrain/engine/contracts"
)

// DocumentRow is the gorm model for the documents table (spec schema §6.2).
type DocumentRow struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string    `gorm:"size:500;not null" json:"title"`
	KnowledgeType string    `gorm:"size:50;not null;index" json:"knowledge_type"`
	SourceOrigin  string    `gorm:"size:50;not null;index" json:"source_origin"`
	SourceURL     string    `gorm:"size:1000" json:"source_url"`
	Author        string    `gorm:"size:200" json:"author"`
	RawContent    string    `gorm:"type:text" json:"raw_content"`
	Metadata      string    `gorm:"type:text" json:"metadata"`
	IngestedAt    time.Time `json:"ingested_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (DocumentRow) TableName() string { return "documents" }

// ChunkRow is the gorm model for the chunks table. The embedding column is
// a text column holding a JSON-encoded float array on both Postgres and
// SQLite, and similarity is scored in Go.
type ChunkRow struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID    string `gorm:"type:uuid;not null;index" json:"document_id"`
	Content       string `gorm:"type:text;not null" json:"content"`
	Embedding     string `gorm:"type:text;not null" json:"embedding"`
	KnowledgeType string `gorm:"size:50;not null;index" json:"knowledge_type"`
	SourceOrigin  string `gorm:"size:50;not null;index" json:"source_origin"`
	ChunkIndex    int    `gorm:"not null" json:"chunk_index"`
	Status        string `gorm:"size:20;not null;index;default:active" json:"status"`
	Metadata      string `gorm:"type:text" json:"metadata"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ChunkRow) TableName() string { return "chunks" }

func toContractChunk(row ChunkRow, embedding []float64) contracts.Chunk {
	return contracts.Chunk{
		ID:            row.ID,
		DocumentID:    row.DocumentID,
		Content:       row.Content,
		Embedding:     embedding,
		KnowledgeType: contracts.KnowledgeType(row.KnowledgeType),
		SourceOrigin:  contracts.SourceOrigin(row.SourceOrigin),
		ChunkIndex:    row.ChunkIndex,
		Status:        contracts.ChunkStatus(row.Status),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
