// Package planner implements the Planner (C10): owning conversation state,
// running BranchPolicy, formatting proceed responses (via an LLMPort when
// configured, or a deterministic template otherwise), and emitting
// PlannerResponse.
package planner

import (
	"context"

	"github.com/secondbrain/engine/branch"
	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/conversation"
	"github.com/secondbrain/engine/internal/ctxkeys"
	"github.com/secondbrain/engine/memory"
	"github.com/secondbrain/engine/recall"
	"github.com/secondbrain/engine/router"
)

// Planner is the engine's top-level entry point.
type Planner struct {
	orchestrator *recall.Orchestrator
	branch       *branch.Policy
	sessions     *conversation.Store
	llm          LLMPort // nil means template-only synthesis
	truncator    *candidateTruncator
}

// New builds a Planner. llm may be nil, in which case the proceed branch
// always uses the deterministic template.
func New(orchestrator *recall.Orchestrator, policy *branch.Policy, sessions *conversation.Store, llm LLMPort) *Planner {
	return &Planner{
		orchestrator: orchestrator,
		branch:       policy,
		sessions:     sessions,
		llm:          llm,
		truncator:    newCandidateTruncator(defaultMaxCandidateChars),
	}
}

// ChatRequest is the input to Chat.
type ChatRequest struct {
	Query             string
	SessionID         string
	Mode              router.Mode
	TopKOverride      int
	ThresholdOverride float64
	ForceBranch       contracts.ActionTaken // test hook, §4.9
	Filter            memory.Filter
}

// Chat drives one query → response round trip: resolve session, recall,
// classify, compose, record, return. It never returns an error — every
// failure is absorbed into a branch and reflected in the response.
func (p *Planner) Chat(ctx context.Context, req ChatRequest) contracts.PlannerResponse {
	sessionID, _ := p.sessions.GetOrCreate(req.SessionID)
	ctx = ctxkeys.WithSessionID(ctx, sessionID)
	p.sessions.Append(sessionID, contracts.RoleUser, req.Query)

	packet := p.orchestrator.RecallWithOptions(ctx, req.Query, nil, req.Mode, req.Filter, recall.Options{
		TopKOverride:      req.TopKOverride,
		ThresholdOverride: req.ThresholdOverride,
	})
	action := p.branch.Classify(packet, req.Mode, req.ForceBranch)

	responseText, llmMeta := p.compose(ctx, action, req.Query, packet)

	p.sessions.Append(sessionID, contracts.RoleAssistant, responseText)

	candidatesUsed := 0
	if action == contracts.ActionProceed {
		candidatesUsed = len(packet.Candidates)
		if candidatesUsed > 3 {
			candidatesUsed = 3
		}
	}

	return contracts.PlannerResponse{
		ResponseText:   responseText,
		ActionTaken:    action,
		BranchCode:     action,
		SessionID:      sessionID,
		CandidatesUsed: candidatesUsed,
		Confidence:     packet.Summary.TopConfidence,
		RetrievalMetadata: contracts.RetrievalMetadata{
			RoutingMetadata: packet.RoutingMetadata,
			ProvidersFailed: packet.Summary.ProvidersFailed,
			LLM:             llmMeta,
		},
	}
}

func (p *Planner) compose(ctx context.Context, action contracts.ActionTaken, query string, packet contracts.ContextPacket) (string, *contracts.LLMMetadata) {
	switch action {
	case contracts.ActionProceed:
		return p.composeProceed(ctx, query, packet)
	case contracts.ActionLowConfidence:
		return lowConfidenceResponse(packet.Candidates, p.truncator), nil
	case contracts.ActionEmpty:
		return emptyResponse, nil
	case contracts.ActionError:
		return errorResponse(attemptedProviders(packet), sanitizedFailureReasons(packet)), nil
	case contracts.ActionEscalate:
		return escalateResponse, nil
	default:
		return emptyResponse, nil
	}
}

func (p *Planner) composeProceed(ctx context.Context, query string, packet contracts.ContextPacket) (string, *contracts.LLMMetadata) {
	if p.llm == nil {
		return deterministicProceed(packet.Candidates, packet.Summary.TopConfidence, p.truncator), &contracts.LLMMetadata{Used: false, Fallback: true, Reason: "no LLMPort configured"}
	}

	text, meta, err := p.llm.Synthesize(ctx, query, packet.Candidates)
	if err != nil {
		return deterministicProceed(packet.Candidates, packet.Summary.TopConfidence, p.truncator), &contracts.LLMMetadata{
			Used:     false,
			Model:    meta.Model,
			Fallback: true,
			Reason:   sanitize(err.Error()),
		}
	}

	return text, &contracts.LLMMetadata{Used: true, Model: meta.Model, Fallback: false}
}

func attemptedProviders(packet contracts.ContextPacket) []string {
	names := make([]string, 0, len(packet.RoutingMetadata))
	for name := range packet.RoutingMetadata {
		names = append(names, name)
	}
	return names
}

func sanitizedFailureReasons(packet contracts.ContextPacket) []string {
	reasons := make([]string, 0, len(packet.Summary.ProvidersFailed))
	for _, name := range packet.Summary.ProvidersFailed {
		meta, ok := packet.RoutingMetadata[name]
		if !ok || meta.Error == "" {
			continue
		}
		reasons = append(reasons, name+": "+sanitize(meta.Error))
	}
	return reasons
}
