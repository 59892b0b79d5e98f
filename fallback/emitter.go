// Package fallback implements the FallbackEmitter (C7): a deterministic,
// mode-aware last resort when every provider attempt yields zero usable
// candidates.
package fallback

import (
	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/router"
)

const noContextMessage = "No relevant context found in your notes."

// HardEmptyModes is the set of modes for which a hard-empty result (zero
// candidates, no fallback candidate) is acceptable.
var HardEmptyModes = map[router.Mode]bool{
	router.ModeFast: true,
}

// Emitter synthesizes the candidates list when retrieval came back empty.
type Emitter struct {
	hardEmptyModes map[router.Mode]bool
}

// New builds a FallbackEmitter. A nil hardEmptyModes falls back to the
// reference-deployment default (fast mode only).
func New(hardEmptyModes map[router.Mode]bool) *Emitter {
	if hardEmptyModes == nil {
		hardEmptyModes = HardEmptyModes
	}
	return &Emitter{hardEmptyModes: hardEmptyModes}
}

// Emit returns the fallback candidate list for a mode: empty for
// hard-empty modes (fast, by default), or a single zero-confidence
// "fallback" candidate otherwise so the Planner can still produce a
// user-facing answer.
func (e *Emitter) Emit(mode router.Mode) []contracts.Candidate {
	if e.hardEmptyModes[mode] {
		return nil
	}
	candidate, err := contracts.NewCandidate(noContextMessage, "fallback", 0.0, nil)
	if err != nil {
		return nil
	}
	return []contracts.Candidate{candidate}
}
