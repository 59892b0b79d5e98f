// Package branch implements the BranchPolicy (C9): classifying a
// ContextPacket into the branch the Planner composes its response from.
package branch

import (
	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/router"
)

// Thresholds are the branch decision boundaries.
type Thresholds struct {
	Proceed      float64 // T_proceed, default 0.60
	LowConfidence float64 // T_low, default 0.45
}

// DefaultThresholds is the reference-deployment default.
func DefaultThresholds() Thresholds {
	return Thresholds{Proceed: 0.60, LowConfidence: 0.45}
}

// Policy classifies context packets into branches.
type Policy struct {
	thresholds Thresholds
}

// New builds a BranchPolicy.
func New(thresholds Thresholds) *Policy {
	return &Policy{thresholds: thresholds}
}

// Classify returns the branch for a packet under the given mode. forced,
// when non-empty, is honored unconditionally (the Planner API's
// force_branch test hook). No trace event is recorded for a forced
// branch, here or in the Planner.
func (p *Policy) Classify(packet contracts.ContextPacket, mode router.Mode, forced contracts.ActionTaken) contracts.ActionTaken {
	if forced != "" {
		return forced
	}

	candidateCount := packet.Summary.CandidateCount
	providersFailed := len(packet.Summary.ProvidersFailed)
	top := packet.Summary.TopConfidence

	var base contracts.ActionTaken
	switch {
	case candidateCount >= 1 && top >= p.thresholds.Proceed:
		base = contracts.ActionProceed
	case candidateCount >= 1 && top >= p.thresholds.LowConfidence:
		base = contracts.ActionLowConfidence
	case providersFailed == 0:
		// No candidate cleared T_low (including the candidateCount == 0
		// case) and nothing failed: there is simply nothing to act on.
		base = contracts.ActionEmpty
	default:
		base = contracts.ActionError
	}

	if mode == router.ModeAccurate && (base == contracts.ActionLowConfidence || base == contracts.ActionEmpty) {
		return contracts.ActionEscalate
	}
	return base
}
