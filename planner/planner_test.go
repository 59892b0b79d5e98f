package planner

import (
	"context"
	"testing"
	"time"

	"github.com/secondbrain/engine/branch"
	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/conversation"
	"github.com/secondbrain/engine/fallback"
	"github.com/secondbrain/engine/memory"
	"github.com/secondbrain/engine/recall"
	"github.com/secondbrain/engine/rerank"
	"github.com/secondbrain/engine/router"
	"github.com/secondbrain/engine/trace"
	"github.com/stretchr/testify/require"
)

type stubMemoryProvider struct {
	name       string
	candidates []contracts.Candidate
	err        string
	delay      time.Duration
}

func (s *stubMemoryProvider) Name() string { return s.name }

func (s *stubMemoryProvider) Search(ctx context.Context, _ string, _ []float64, _ int, _ float64, _ memory.Filter) ([]contracts.Candidate, memory.Metadata) {
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

type stubLLM struct {
	text string
	err  error
}

func (s *stubLLM) Name() string { return "stub-llm" }

func (s *stubLLM) Synthesize(_ context.Context, _ string, _ []contracts.Candidate) (string, LLMMetadata, error) {
	if s.err != nil {
		return "", LLMMetadata{Model: "stub"}, s.err
	}
	return s.text, LLMMetadata{Model: "stub", LatencyMS: 1}, nil
}

func newTestPlanner(t *testing.T, providers map[string]memory.Provider, llm LLMPort) *Planner {
	t.Helper()
	r := router.New(router.DefaultPolicies("vector", "memory"), 30*time.Second)
	fb := fallback.New(nil)
	collector := trace.New(1000)
	timeouts := recall.DefaultTimeouts()
	timeouts.Provider = 2 * time.Second
	timeouts.RequestFast = 2 * time.Second
	orchestrator := recall.New(r, providers, rerank.NewMock(), fb, collector, timeouts)

	sessions, err := conversation.New(20, 100)
	require.NoError(t, err)

	return New(orchestrator, branch.New(branch.DefaultThresholds()), sessions, llm)
}

func TestChat_ProceedWithoutLLMUsesDeterministicTemplate(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "notes about graphs", Source: "vector", Confidence: 0.9},
		}},
	}
	p := newTestPlanner(t, providers, nil)
	resp := p.Chat(context.Background(), ChatRequest{Query: "what are graphs", Mode: router.ModeFast})

	require.Equal(t, contracts.ActionProceed, resp.ActionTaken)
	require.Contains(t, resp.ResponseText, "Based on 1 retrieved context(s)")
	require.Contains(t, resp.ResponseText, "notes about graphs")
	require.False(t, resp.RetrievalMetadata.LLM.Used)
	require.Equal(t, 1, resp.CandidatesUsed)
	require.NotEmpty(t, resp.SessionID)
}

func TestChat_ProceedWithLLMUsesSynthesizedText(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "notes about graphs", Source: "vector", Confidence: 0.9},
		}},
	}
	p := newTestPlanner(t, providers, &stubLLM{text: "Graphs are data structures."})
	resp := p.Chat(context.Background(), ChatRequest{Query: "what are graphs", Mode: router.ModeFast})

	require.Equal(t, "Graphs are data structures.", resp.ResponseText)
	require.True(t, resp.RetrievalMetadata.LLM.Used)
}

func TestChat_LLMFailureFallsBackToTemplateWithoutSurfacingError(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "notes about graphs", Source: "vector", Confidence: 0.9},
		}},
	}
	p := newTestPlanner(t, providers, &stubLLM{err: contracts.NewError(contracts.KindUpstreamUnavailable, "api_key=supersecretlongtoken1234567890")})
	resp := p.Chat(context.Background(), ChatRequest{Query: "what are graphs", Mode: router.ModeFast})

	require.Equal(t, contracts.ActionProceed, resp.ActionTaken)
	require.Contains(t, resp.ResponseText, "Based on 1 retrieved context(s)")
	require.NotContains(t, resp.ResponseText, "supersecretlongtoken1234567890")
	require.True(t, resp.RetrievalMetadata.LLM.Fallback)
	require.NotContains(t, resp.RetrievalMetadata.LLM.Reason, "supersecretlongtoken1234567890")
}

func TestChat_LowConfidenceInvitesClarification(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "maybe related", Source: "vector", Confidence: 0.5},
		}},
	}
	p := newTestPlanner(t, providers, nil)
	resp := p.Chat(context.Background(), ChatRequest{Query: "something", Mode: router.ModeFast})

	require.Equal(t, contracts.ActionLowConfidence, resp.ActionTaken)
	require.Contains(t, resp.ResponseText, "low")
	require.Contains(t, resp.ResponseText, "clarify")
}

func TestChat_EmptyReturnsFixedMessage(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector"},
	}
	p := newTestPlanner(t, providers, nil)
	resp := p.Chat(context.Background(), ChatRequest{Query: "nothing relevant", Mode: router.ModeFast})

	require.Equal(t, contracts.ActionEmpty, resp.ActionTaken)
	require.Equal(t, emptyResponse, resp.ResponseText)
}

func TestChat_AllProvidersFailYieldsErrorWithoutLeakingRawError(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", err: "provider_unavailable key=abcdefghijklmnopqrstuvwxyz123456"},
		"memory": &stubMemoryProvider{name: "memory", err: "provider_unavailable"},
	}
	p := newTestPlanner(t, providers, nil)
	resp := p.Chat(context.Background(), ChatRequest{Query: "q", Mode: router.ModeConversation})

	require.Equal(t, contracts.ActionError, resp.ActionTaken)
	require.NotContains(t, resp.ResponseText, "abcdefghijklmnopqrstuvwxyz123456")
	require.ElementsMatch(t, []string{"vector", "memory"}, resp.RetrievalMetadata.ProvidersFailed)
}

func TestChat_AccurateModeEscalatesLowConfidence(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "weak match", Source: "vector", Confidence: 0.5},
		}},
		"memory": &stubMemoryProvider{name: "memory"},
	}
	p := newTestPlanner(t, providers, nil)
	// The mock reranker rescores "weak match" to 1/2 = 0.5 against this
	// query: between T_low and T_proceed, so low_confidence, escalated.
	resp := p.Chat(context.Background(), ChatRequest{Query: "weak point", Mode: router.ModeAccurate})

	require.Equal(t, contracts.ActionEscalate, resp.ActionTaken)
	require.Equal(t, escalateResponse, resp.ResponseText)
}

func TestChat_ForceBranchOverridesClassification(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", candidates: []contracts.Candidate{
			{Content: "strong match", Source: "vector", Confidence: 0.95},
		}},
	}
	p := newTestPlanner(t, providers, nil)
	resp := p.Chat(context.Background(), ChatRequest{Query: "q", Mode: router.ModeFast, ForceBranch: contracts.ActionEmpty})

	require.Equal(t, contracts.ActionEmpty, resp.ActionTaken)
}

func TestChat_UnknownSessionIDIsSilentlyReplaced(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector"},
	}
	p := newTestPlanner(t, providers, nil)
	resp := p.Chat(context.Background(), ChatRequest{Query: "q", Mode: router.ModeFast, SessionID: "guessed-session-id"})

	require.NotEqual(t, "guessed-session-id", resp.SessionID)
}

func TestChat_SessionPersistsAcrossTurns(t *testing.T) {
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector"},
	}
	p := newTestPlanner(t, providers, nil)
	first := p.Chat(context.Background(), ChatRequest{Query: "turn one", Mode: router.ModeFast})
	second := p.Chat(context.Background(), ChatRequest{Query: "turn two", Mode: router.ModeFast, SessionID: first.SessionID})

	require.Equal(t, first.SessionID, second.SessionID)
}

func TestChat_DeadlineExceededAllProvidersReturnsErrorWithinBudget(t *testing.T) {
	// newTestPlanner already narrows Provider/RequestFast to 2s, well below
	// this provider's induced 20s delay, so the deadline fires deterministically.
	providers := map[string]memory.Provider{
		"vector": &stubMemoryProvider{name: "vector", delay: 20 * time.Second},
	}
	p := newTestPlanner(t, providers, nil)

	start := time.Now()
	resp := p.Chat(context.Background(), ChatRequest{Query: "q", Mode: router.ModeFast})
	elapsed := time.Since(start)

	require.Less(t, elapsed, 4*time.Second)
	require.Equal(t, contracts.ActionError, resp.ActionTaken)
	require.Contains(t, resp.RetrievalMetadata.ProvidersFailed, "vector")
}
