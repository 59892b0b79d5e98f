package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRouter() *Router {
	return New(DefaultPolicies("vector", "memory"), 30*time.Second)
}

func TestPlan_FastModeUsesOneVectorProviderNoRerank(t *testing.T) {
	r := newTestRouter()
	plan := r.Plan(ModeFast)
	require.Equal(t, []string{"vector"}, plan.Providers)
	require.False(t, plan.Rerank)
	require.Equal(t, 5, plan.TopK)
	require.Equal(t, 0.60, plan.Threshold)
}

func TestPlan_AccurateModeUsesAllProvidersWithRerank(t *testing.T) {
	r := newTestRouter()
	plan := r.Plan(ModeAccurate)
	require.ElementsMatch(t, []string{"vector", "memory"}, plan.Providers)
	require.True(t, plan.Rerank)
	require.Equal(t, 10, plan.TopK)
	require.Equal(t, 5, plan.RerankTopK)
}

func TestPlan_SkipsProviderInCooldown(t *testing.T) {
	r := newTestRouter()
	r.MarkFailure("vector", "provider_unavailable")

	plan := r.Plan(ModeFast)
	require.Empty(t, plan.Providers)
	require.Equal(t, "in_cooldown", plan.Skipped["vector"])
}

func TestPlan_CooldownExpiresAfterWindow(t *testing.T) {
	r := New(DefaultPolicies("vector", "memory"), 10*time.Millisecond)
	r.MarkFailure("vector", "timeout")
	time.Sleep(20 * time.Millisecond)

	plan := r.Plan(ModeFast)
	require.Equal(t, []string{"vector"}, plan.Providers)
}

func TestPlan_MarkSuccessClearsCooldownImmediately(t *testing.T) {
	r := newTestRouter()
	r.MarkFailure("vector", "timeout")
	r.MarkSuccess("vector")

	plan := r.Plan(ModeFast)
	require.Equal(t, []string{"vector"}, plan.Providers)
}

func TestPlan_ConversationModeDisablesRerankWithOneProvider(t *testing.T) {
	r := newTestRouter()
	r.MarkFailure("memory", "credentials_missing")

	plan := r.Plan(ModeConversation)
	require.Equal(t, []string{"vector"}, plan.Providers)
	require.False(t, plan.Rerank)
}

func TestPlan_DisabledProviderNeverAutoRecovers(t *testing.T) {
	r := newTestRouter()
	r.Disable("vector", "credentials_missing")
	time.Sleep(5 * time.Millisecond)

	plan := r.Plan(ModeFast)
	require.Empty(t, plan.Providers)
	require.Contains(t, plan.Skipped["vector"], "credentials_missing")
}

func TestPlan_AlwaysReturnsAPlanEvenWhenAllSkipped(t *testing.T) {
	r := newTestRouter()
	r.MarkFailure("vector", "timeout")
	r.MarkFailure("memory", "timeout")

	plan := r.Plan(ModeAccurate)
	require.Empty(t, plan.Providers)
	require.Len(t, plan.Skipped, 2)
}
