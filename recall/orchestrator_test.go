package recall

import (
	"context"
	"testing"
	"time"

	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/fallback"
	"github.com/secondbrain/engine/memory"
	"github.com/secondbrain/engine/rerank"
	"github.com/secondbrain/engine/router"
	"github.com/secondbrain/engine/trace"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	candidates []contracts.Candidate
	err        string
	delay      time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, _ string, _ []float64, _ int, _ float64, _ memory.Filter) ([]contracts.Candidate, memory.Metadata) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, memory.Metadata{Provider: s.name, Error: string(contracts.KindTimeout)}
		}
	}
	if s.err != "" {
		return nil, memory.Metadata{Provider: s.name, Error: s.err}
	}
	return s.candidates, memory.Metadata{Provider: s.name, RawCount: len(s.candidates)}
}

func newTestOrchestrator(providers map[string]memory.Provider, rerankPort rerank.Port) *Orchestrator {
	r := router.New(router.DefaultPolicies("vector", "memory"), 30*time.Second)
	fb := fallback.New(nil)
	collector := trace.New(1000)
	timeouts := DefaultTimeouts()
	timeouts.Provider = 2 * time.Second
	timeouts.RequestFast = 2 * time.Second
	return New(r, providers, rerankPort, fb, collector, timeouts)
}

func TestRecall_MergesAndSortsCandidatesDescending(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "low", Source: "vector", Confidence: 0.3},
			{Content: "high", Source: "vector", Confidence: 0.9},
		}},
	}
	o := newTestOrchestrator(providers, rerank.NewMock())
	packet := o.Recall(context.Background(), "query", nil, router.ModeFast, memory.Filter{})

	require.Len(t, packet.Candidates, 2)
	require.Equal(t, "high", packet.Candidates[0].Content)
	require.Equal(t, 0.9, packet.Summary.TopConfidence)
}

func TestDedupeByChunkOrContent_KeepsHighestConfidenceInstance(t *testing.T) {
	candidates := []contracts.Candidate{
		{Content: "a", Source: "vector", Confidence: 0.5, Metadata: map[string]string{"chunk_id": "c1"}},
		{Content: "a-dup", Source: "memory", Confidence: 0.8, Metadata: map[string]string{"chunk_id": "c1"}},
	}
	out := dedupeByChunkOrContent(candidates)
	require.Len(t, out, 1)
	require.Equal(t, 0.8, out[0].Confidence)
}

func TestDedupeByChunkOrContent_FallsBackToContentHashWithoutChunkID(t *testing.T) {
	candidates := []contracts.Candidate{
		{Content: "same text", Source: "vector", Confidence: 0.3},
		{Content: "same text", Source: "memory", Confidence: 0.7},
		{Content: "different text", Source: "memory", Confidence: 0.1},
	}
	out := dedupeByChunkOrContent(candidates)
	require.Len(t, out, 2)
	require.Equal(t, 0.7, out[0].Confidence)
}

func TestRecall_FallbackEmittedWhenAllProvidersFailNonFastMode(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubProvider{name: "vector", err: string(contracts.KindProviderUnavailable)},
		"memory": &stubProvider{name: "memory", err: string(contracts.KindProviderUnavailable)},
	}
	o := newTestOrchestrator(providers, rerank.NewMock())
	packet := o.Recall(context.Background(), "query", nil, router.ModeConversation, memory.Filter{})

	require.True(t, packet.FallbackEmitted)
	require.Len(t, packet.Candidates, 1)
	require.Equal(t, "fallback", packet.Candidates[0].Source)
	require.ElementsMatch(t, []string{"vector", "memory"}, packet.Summary.ProvidersFailed)
}

func TestRecall_FastModeHardEmptyOnAllFailures(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubProvider{name: "vector", err: string(contracts.KindTimeout)},
	}
	o := newTestOrchestrator(providers, rerank.NewMock())
	packet := o.Recall(context.Background(), "query", nil, router.ModeFast, memory.Filter{})

	require.True(t, packet.FallbackEmitted)
	require.Empty(t, packet.Candidates)
}

func TestRecall_DeadlineExceededStopsIssuingNewCalls(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubProvider{name: "vector", delay: 5 * time.Second},
	}
	o := newTestOrchestrator(providers, rerank.NewMock())
	o.timeouts.RequestFast = 50 * time.Millisecond
	o.timeouts.Provider = 50 * time.Millisecond

	start := time.Now()
	packet := o.Recall(context.Background(), "query", nil, router.ModeFast, memory.Filter{})
	elapsed := time.Since(start)

	require.Less(t, elapsed, 4*time.Second)
	require.Contains(t, packet.Summary.ProvidersFailed, "vector")
}

func TestRecall_RerankReplacesCandidatesWhenPlanSaysSo(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "retrieval pipeline design", Source: "vector", Confidence: 0.5},
		}},
		"memory": &stubProvider{name: "memory", candidates: []contracts.Candidate{
			{Content: "unrelated text about cooking", Source: "memory", Confidence: 0.6},
		}},
	}
	o := newTestOrchestrator(providers, rerank.NewMock())
	packet := o.Recall(context.Background(), "retrieval pipeline", nil, router.ModeAccurate, memory.Filter{})

	require.NotEmpty(t, packet.Candidates)
	require.Equal(t, "retrieval pipeline design", packet.Candidates[0].Content)
}

func TestRecall_NeverPanicsAndAlwaysReturnsWellFormedPacket(t *testing.T) {
	providers := map[string]memory.Provider{}
	o := newTestOrchestrator(providers, rerank.NewMock())
	packet := o.Recall(context.Background(), "query", nil, router.ModeFast, memory.Filter{})

	require.NotEmpty(t, packet.TraceID)
	require.Equal(t, 0.0, packet.Summary.TopConfidence)
}
