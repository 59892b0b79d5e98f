package contracts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KnowledgeType is the closed enumeration of document/chunk kinds.
type KnowledgeType string

const (
	KnowledgeNote       KnowledgeType = "note"
	KnowledgeDocument   KnowledgeType = "document"
	KnowledgeDecision   KnowledgeType = "decision"
	KnowledgeConversation KnowledgeType = "conversation"
	KnowledgeTask       KnowledgeType = "task"
	KnowledgeSignal     KnowledgeType = "signal"
	KnowledgePlaybook   KnowledgeType = "playbook"
	KnowledgeCaseStudy  KnowledgeType = "case_study"
	KnowledgeTranscript KnowledgeType = "transcript"
)

func (k KnowledgeType) IsValid() bool {
	switch k {
	case KnowledgeNote, KnowledgeDocument, KnowledgeDecision, KnowledgeConversation,
		KnowledgeTask, KnowledgeSignal, KnowledgePlaybook, KnowledgeCaseStudy, KnowledgeTranscript:
		return true
	default:
		return false
	}
}

// SourceOrigin is the closed enumeration of ingestion origins.
type SourceOrigin string

const (
	OriginNotion   SourceOrigin = "notion"
	OriginObsidian SourceOrigin = "obsidian"
	OriginEmail    SourceOrigin = "email"
	OriginManual   SourceOrigin = "manual"
	OriginYouTube  SourceOrigin = "youtube"
	OriginWeb      SourceOrigin = "web"
	OriginOther    SourceOrigin = "other"
)

func (o SourceOrigin) IsValid() bool {
	switch o {
	case OriginNotion, OriginObsidian, OriginEmail, OriginManual, OriginYouTube, OriginWeb, OriginOther:
		return true
	default:
		return false
	}
}

// ChunkStatus is the lifecycle state of a Chunk. The engine only ever
// returns chunks whose status is ChunkActive.
type ChunkStatus string

const (
	ChunkActive     ChunkStatus = "active"
	ChunkSuperseded ChunkStatus = "superseded"
	ChunkArchived   ChunkStatus = "archived"
	ChunkDeleted    ChunkStatus = "deleted"
)

// Document is a single ingested artifact. It is immutable to the engine:
// the engine reads documents but never mutates them.
type Document struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	KnowledgeType KnowledgeType     `json:"knowledge_type"`
	SourceOrigin  SourceOrigin      `json:"source_origin"`
	SourceURL     string            `json:"source_url,omitempty"`
	Author        string            `json:"author,omitempty"`
	RawContent    string            `json:"raw_content,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	IngestedAt    time.Time         `json:"ingested_at"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewDocument validates and constructs a Document. It fails closed: any
// value outside the closed enumerations, or a non-UUID id, is rejected with
// a contract_violation error rather than silently coerced.
func NewDocument(d Document) (Document, error) {
	if _, err := uuid.Parse(d.ID); err != nil {
		return Document{}, NewError(KindContractViolation, "document id must be a UUID").WithCause(err)
	}
	if !d.KnowledgeType.IsValid() {
		return Document{}, NewError(KindContractViolation, "invalid knowledge_type: "+string(d.KnowledgeType))
	}
	if !d.SourceOrigin.IsValid() {
		return Document{}, NewError(KindContractViolation, "invalid source_origin: "+string(d.SourceOrigin))
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	d.IngestedAt = d.IngestedAt.UTC()
	return d, nil
}

// Chunk is a retrievable fragment of a document.
type Chunk struct {
	ID            string            `json:"id"`
	DocumentID    string            `json:"document_id"`
	Content       string            `json:"content"`
	Embedding     []float64         `json:"embedding"`
	KnowledgeType KnowledgeType     `json:"knowledge_type"`
	SourceOrigin  SourceOrigin      `json:"source_origin"`
	ChunkIndex    int               `json:"chunk_index"`
	Status        ChunkStatus       `json:"status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewChunk validates and constructs a Chunk against the configured
// embedding dimension D. A chunk whose embedding length does not equal D,
// whose content is empty, or whose chunk_index is negative is rejected.
func NewChunk(c Chunk, dimension int) (Chunk, error) {
	if _, err := uuid.Parse(c.ID); err != nil {
		return Chunk{}, NewError(KindContractViolation, "chunk id must be a UUID").WithCause(err)
	}
	if _, err := uuid.Parse(c.DocumentID); err != nil {
		return Chunk{}, NewError(KindContractViolation, "chunk document_id must be a UUID").WithCause(err)
	}
	if c.Content == "" {
		return Chunk{}, NewError(KindContractViolation, "chunk content must not be empty")
	}
	if len(c.Embedding) != dimension {
		return Chunk{}, NewError(KindContractViolation,
			"chunk embedding dimension mismatch").WithCause(
			dimensionError(len(c.Embedding), dimension))
	}
	if !c.KnowledgeType.IsValid() {
		return Chunk{}, NewError(KindContractViolation, "invalid knowledge_type: "+string(c.KnowledgeType))
	}
	if !c.SourceOrigin.IsValid() {
		return Chunk{}, NewError(KindContractViolation, "invalid source_origin: "+string(c.SourceOrigin))
	}
	if c.ChunkIndex < 0 {
		return Chunk{}, NewError(KindContractViolation, "chunk_index must be >= 0")
	}
	if c.Status == "" {
		c.Status = ChunkActive
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func dimensionError(got, want int) error {
	return fmt.Errorf("got=%d want=%d", got, want)
}
