package branch

import (
	"testing"
	"time"

	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/router"
	"github.com/stretchr/testify/require"
)

func packetWith(candidates []contracts.Candidate, routing map[string]contracts.ProviderMetadata) contracts.ContextPacket {
	return contracts.NewContextPacket("trace", candidates, routing, time.Now())
}

func TestClassify_ProceedWhenHighConfidence(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith([]contracts.Candidate{{Content: "c", Source: "vector", Confidence: 0.8}}, nil)
	require.Equal(t, contracts.ActionProceed, p.Classify(packet, router.ModeFast, ""))
}

func TestClassify_LowConfidenceInBand(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith([]contracts.Candidate{{Content: "c", Source: "vector", Confidence: 0.5}}, nil)
	require.Equal(t, contracts.ActionLowConfidence, p.Classify(packet, router.ModeFast, ""))
}

func TestClassify_EmptyWhenSoleCandidateBelowLowConfidenceBand(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith([]contracts.Candidate{{Content: "c", Source: "vector", Confidence: 0.449}}, nil)
	require.Equal(t, contracts.ActionEmpty, p.Classify(packet, router.ModeFast, ""))
}

func TestClassify_ErrorWhenSoleCandidateBelowLowConfidenceBandAndProviderFailed(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith(
		[]contracts.Candidate{{Content: "c", Source: "vector", Confidence: 0.449}},
		map[string]contracts.ProviderMetadata{"memory": {Provider: "memory", Error: "timeout"}},
	)
	require.Equal(t, contracts.ActionError, p.Classify(packet, router.ModeFast, ""))
}

func TestClassify_EmptyWhenNoCandidatesNoFailures(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith(nil, nil)
	require.Equal(t, contracts.ActionEmpty, p.Classify(packet, router.ModeFast, ""))
}

func TestClassify_ErrorWhenNoCandidatesButFailures(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith(nil, map[string]contracts.ProviderMetadata{"vector": {Provider: "vector", Error: "timeout"}})
	require.Equal(t, contracts.ActionError, p.Classify(packet, router.ModeFast, ""))
}

func TestClassify_EscalateOnAccurateModeLowConfidence(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith([]contracts.Candidate{{Content: "c", Source: "vector", Confidence: 0.5}}, nil)
	require.Equal(t, contracts.ActionEscalate, p.Classify(packet, router.ModeAccurate, ""))
}

func TestClassify_EscalateOnAccurateModeEmpty(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith(nil, nil)
	require.Equal(t, contracts.ActionEscalate, p.Classify(packet, router.ModeAccurate, ""))
}

func TestClassify_AccurateModeErrorIsNotEscalated(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith(nil, map[string]contracts.ProviderMetadata{"vector": {Provider: "vector", Error: "timeout"}})
	require.Equal(t, contracts.ActionError, p.Classify(packet, router.ModeAccurate, ""))
}

func TestClassify_ForcedBranchOverridesEverything(t *testing.T) {
	p := New(DefaultThresholds())
	packet := packetWith([]contracts.Candidate{{Content: "c", Source: "vector", Confidence: 0.99}}, nil)
	require.Equal(t, contracts.ActionError, p.Classify(packet, router.ModeFast, contracts.ActionError))
}
