package fallback

import (
	"testing"

	"github.com/secondbrain/engine/router"
	"github.com/stretchr/testify/require"
)

func TestEmit_FastModeReturnsHardEmpty(t *testing.T) {
	e := New(nil)
	require.Empty(t, e.Emit(router.ModeFast))
}

func TestEmit_AccurateModeReturnsFallbackCandidate(t *testing.T) {
	e := New(nil)
	out := e.Emit(router.ModeAccurate)
	require.Len(t, out, 1)
	require.Equal(t, "fallback", out[0].Source)
	require.Equal(t, 0.0, out[0].Confidence)
}

func TestEmit_ConversationModeReturnsFallbackCandidate(t *testing.T) {
	e := New(nil)
	out := e.Emit(router.ModeConversation)
	require.Len(t, out, 1)
	require.Equal(t, "fallback", out[0].Source)
}
