package planner

import (
	"context"

	"github.com/secondbrain/engine/contracts"
)

// LLMMetadata describes what happened on one synthesize call.
type LLMMetadata struct {
	Model     string
	LatencyMS int64
}

// LLMPort is the Planner's grounded-synthesis contract: answer using only
// the provided candidates, naming the source candidate where possible,
// and admitting when the context is insufficient. On failure the Planner
// falls back to the deterministic template and never surfaces the LLM
// error to the user as a failure.
type LLMPort interface {
	Synthesize(ctx context.Context, query string, candidates []contracts.Candidate) (text string, meta LLMMetadata, err error)
	Name() string
}
