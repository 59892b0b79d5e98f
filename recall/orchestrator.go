// Package recall implements the RecallOrchestrator (C8): driving one
// retrieval from query text to a ContextPacket, composing MemoryProvider,
// RerankPort, ProviderRouter, FallbackEmitter, and TraceCollector.
package recall

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/fallback"
	"github.com/secondbrain/engine/internal/ctxkeys"
	"github.com/secondbrain/engine/memory"
	"github.com/secondbrain/engine/rerank"
	"github.com/secondbrain/engine/router"
	"github.com/secondbrain/engine/trace"
)

// Timeouts holds the per-port and per-request deadlines (§5).
type Timeouts struct {
	Provider        time.Duration // T_provider, default 10s
	Rerank          time.Duration // T_rerank, default 10s
	RequestFast     time.Duration // T_request for fast/conversation, default 30s
	RequestAccurate time.Duration // T_request for accurate, default 60s
}

// DefaultTimeouts is the reference-deployment default.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Provider:        10 * time.Second,
		Rerank:          10 * time.Second,
		RequestFast:     30 * time.Second,
		RequestAccurate: 60 * time.Second,
	}
}

// Orchestrator is the RecallOrchestrator.
type Orchestrator struct {
	router    *router.Router
	providers map[string]memory.Provider
	reranker  rerank.Port
	fallback  *fallback.Emitter
	trace     *trace.Collector
	timeouts  Timeouts
}

// New builds a RecallOrchestrator.
func New(r *router.Router, providers map[string]memory.Provider, reranker rerank.Port, fallbackEmitter *fallback.Emitter, collector *trace.Collector, timeouts Timeouts) *Orchestrator {
	return &Orchestrator{
		router:    r,
		providers: providers,
		reranker:  reranker,
		fallback:  fallbackEmitter,
		trace:     collector,
		timeouts:  timeouts,
	}
}

func (o *Orchestrator) requestTimeout(mode router.Mode) time.Duration {
	if mode == router.ModeAccurate {
		return o.timeouts.RequestAccurate
	}
	return o.timeouts.RequestFast
}

// Options carries optional per-call overrides of the mode's default plan,
// used by the Planner's chat() top_k?/threshold? parameters. A zero value
// leaves the mode's default in place.
type Options struct {
	TopKOverride      int
	ThresholdOverride float64
}

// Recall drives one retrieval using the mode's default plan. queryVector
// may be nil; providers that need it derive it themselves via EmbeddingPort.
func (o *Orchestrator) Recall(ctx context.Context, queryText string, queryVector []float64, mode router.Mode, filter memory.Filter) contracts.ContextPacket {
	return o.RecallWithOptions(ctx, queryText, queryVector, mode, filter, Options{})
}

// RecallWithOptions drives one retrieval, applying opts on top of the
// mode's default plan.
func (o *Orchestrator) RecallWithOptions(ctx context.Context, queryText string, queryVector []float64, mode router.Mode, filter memory.Filter, opts Options) contracts.ContextPacket {
	ctx, cancel := context.WithTimeout(ctx, o.requestTimeout(mode))
	defer cancel()

	traceID := uuid.NewString()
	ctx = ctxkeys.WithTraceID(ctx, traceID)
	ctx = ctxkeys.WithMode(ctx, string(mode))

	plan := o.router.Plan(mode)
	if opts.TopKOverride > 0 {
		plan.TopK = opts.TopKOverride
	}
	if opts.ThresholdOverride > 0 {
		plan.Threshold = opts.ThresholdOverride
	}

	o.trace.Record(traceID, contracts.TraceEvent{
		Kind: contracts.EventRecallBegin,
		TS:   time.Now(),
		Attrs: map[string]any{
			"mode":      string(mode),
			"top_k":     plan.TopK,
			"threshold": plan.Threshold,
		},
	})

	// routing holds only providers actually called; it feeds the
	// providers_used/providers_failed summary. skippedRouting holds
	// cooldown/disabled provenance and is merged into routing_metadata
	// afterward without affecting that summary.
	routing := make(map[string]contracts.ProviderMetadata, len(plan.Providers))
	skippedRouting := make(map[string]contracts.ProviderMetadata, len(plan.Skipped))
	var merged []contracts.Candidate

	for providerName, reason := range plan.Skipped {
		skippedRouting[providerName] = contracts.ProviderMetadata{
			Provider:       providerName,
			Threshold:      plan.Threshold,
			TopK:           plan.TopK,
			FallbackReason: reason,
		}
	}

	for _, providerName := range plan.Providers {
		if ctx.Err() != nil {
			break // per-request deadline reached: issue no new outbound calls
		}
		provider, ok := o.providers[providerName]
		if !ok {
			continue
		}

		callCtx, callCancel := context.WithTimeout(ctx, o.timeouts.Provider)
		candidates, meta := provider.Search(callCtx, queryText, queryVector, plan.TopK, plan.Threshold, filter)
		callCancel()

		o.trace.Record(traceID, contracts.TraceEvent{
			Kind: contracts.EventProviderCall,
			TS:   time.Now(),
			Attrs: map[string]any{
				"provider":  providerName,
				"raw_count": meta.RawCount,
				"error":     meta.Error,
			},
		})

		if meta.Error != "" {
			o.router.MarkFailure(providerName, meta.Error)
		} else {
			o.router.MarkSuccess(providerName)
		}
		routing[providerName] = meta.ToContract()
		merged = append(merged, candidates...)
	}

	merged = dedupeByChunkOrContent(merged)

	rerankApplied := false
	if plan.Rerank && len(merged) > 0 && ctx.Err() == nil {
		rerankCtx, rerankCancel := context.WithTimeout(ctx, o.timeouts.Rerank)
		topKForRerank := plan.RerankTopK
		if topKForRerank == 0 {
			topKForRerank = plan.TopK
		}
		reranked, rerankMeta, err := o.reranker.Rerank(rerankCtx, queryText, merged, topKForRerank)
		rerankCancel()

		o.trace.Record(traceID, contracts.TraceEvent{
			Kind: contracts.EventRerank,
			TS:   time.Now(),
			Attrs: map[string]any{
				"rerank_type": string(rerankMeta.RerankType),
				"latency_ms":  rerankMeta.LatencyMS,
			},
		})

		if err == nil {
			merged = reranked
			rerankApplied = true
		}
	}

	effectiveTopK := plan.RerankTopK
	if !rerankApplied || effectiveTopK == 0 {
		effectiveTopK = plan.TopK
	}
	if effectiveTopK > 0 && len(merged) > effectiveTopK {
		merged = merged[:effectiveTopK]
	}

	providersFailed := 0
	for _, meta := range routing {
		if meta.Error != "" {
			providersFailed++
		}
	}

	fallbackEmitted := false
	if len(merged) == 0 && providersFailed > 0 {
		merged = o.fallback.Emit(mode)
		fallbackEmitted = true
		o.trace.Record(traceID, contracts.TraceEvent{Kind: contracts.EventFallback, TS: time.Now()})
	}

	for name, meta := range routing {
		meta.RerankApplied = rerankApplied
		routing[name] = meta
	}

	packet := contracts.NewContextPacket(traceID, merged, routing, time.Now())
	for name, meta := range skippedRouting {
		packet.RoutingMetadata[name] = meta
	}
	packet.FallbackEmitted = fallbackEmitted
	if ctx.Err() != nil && len(merged) == 0 {
		packet.BranchHint = "ERROR"
	}

	o.trace.Record(traceID, contracts.TraceEvent{
		Kind: contracts.EventRecallEnd,
		TS:   time.Now(),
		Attrs: map[string]any{
			"candidate_count": packet.Summary.CandidateCount,
			"top_confidence":  packet.Summary.TopConfidence,
		},
	})

	return packet
}

// dedupeByChunkOrContent keeps the highest-confidence instance of each
// chunk, identified by metadata["chunk_id"] when present or else a hash
// of its content, then sorts descending by confidence (NewContextPacket
// sorts again, but when rerank is skipped or fails the merged list is
// truncated to top_k in this order).
func dedupeByChunkOrContent(candidates []contracts.Candidate) []contracts.Candidate {
	best := make(map[string]contracts.Candidate)
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := c.Metadata["chunk_id"]
		if key == "" {
			key = contentHash(c.Content)
		}
		existing, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = c
			continue
		}
		if c.Confidence > existing.Confidence {
			best[key] = c
		}
	}

	out := make([]contracts.Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Confidence < out[j].Confidence; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
