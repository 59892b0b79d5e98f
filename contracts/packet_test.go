package contracts

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestNewContextPacket_EmptyHasZeroTopConfidence(t *testing.T) {
	packet := NewContextPacket("trace-1", nil, map[string]ProviderMetadata{}, time.Now())
	require.Equal(t, 0.0, packet.Summary.TopConfidence)
	require.Equal(t, 0, packet.Summary.CandidateCount)
}

func TestNewContextPacket_RoutingMetadataHasEntryPerProvider(t *testing.T) {
	routing := map[string]ProviderMetadata{
		"vector": {Provider: "vector"},
		"memory": {Provider: "memory", Error: "provider_unavailable"},
	}
	packet := NewContextPacket("trace-1", nil, routing, time.Now())
	require.Len(t, packet.RoutingMetadata, 2)
	require.Contains(t, packet.Summary.ProvidersUsed, "vector")
	require.Contains(t, packet.Summary.ProvidersFailed, "memory")
}

// Property 3: candidates are always sorted by confidence descending, and
// summary.top_confidence always equals candidates[0].confidence or 0 when
// empty (spec.md §8 property 3).
func TestProperty_CandidatesAlwaysSortedDescending(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("candidates sorted descending, top_confidence matches", prop.ForAll(
		func(scores []float64) bool {
			candidates := make([]Candidate, len(scores))
			for i, s := range scores {
				candidates[i] = Candidate{Content: "c", Source: "mock", Confidence: clamp01(s)}
			}
			packet := NewContextPacket("t", candidates, map[string]ProviderMetadata{}, time.Now())

			for i := 1; i < len(packet.Candidates); i++ {
				if packet.Candidates[i-1].Confidence < packet.Candidates[i].Confidence {
					return false
				}
			}
			if len(packet.Candidates) == 0 {
				return packet.Summary.TopConfidence == 0.0
			}
			return packet.Summary.TopConfidence == packet.Candidates[0].Confidence
		},
		gen.SliceOf(gen.Float64Range(-1, 2)),
	))

	properties.TestingRun(t)
}
