package contracts

import "time"

// IngestReport is the return value of the ingest() port (§6.1). Ingestion
// itself is out of scope for this engine; IngestReport is the shape an
// ingestion pipeline hands back once it has written documents and chunks
// to the store described in §6.2.
type IngestReport struct {
	ID               string    `json:"id"`
	DocumentsTotal   int       `json:"documents_total"`
	DocumentsFailed  int       `json:"documents_failed"`
	ChunksWritten    int       `json:"chunks_written"`
	Errors           []string  `json:"errors,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}
