package router

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:status:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore_GetMissingReturnsNotOK(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, ok := store.Get("vector")
	assert.False(t, ok)
}

func TestRedisStore_SetThenGetRoundTrips(t *testing.T) {
	store, _ := newTestRedisStore(t)

	until := time.Now().Add(30 * time.Second)
	store.Set("vector", Status{Enabled: false, LastError: "timeout", CooldownUntil: until})

	status, ok := store.Get("vector")
	require.True(t, ok)
	assert.False(t, status.Enabled)
	assert.Equal(t, "timeout", status.LastError)
	assert.WithinDuration(t, until, status.CooldownUntil, time.Second)
}

func TestRedisStore_DeleteClearsStatus(t *testing.T) {
	store, _ := newTestRedisStore(t)

	store.Set("vector", Status{Enabled: false, LastError: "timeout", CooldownUntil: time.Now().Add(time.Minute)})
	store.Delete("vector")

	_, ok := store.Get("vector")
	assert.False(t, ok)
}

func TestRedisStore_SnapshotListsEveryKey(t *testing.T) {
	store, _ := newTestRedisStore(t)

	store.Set("vector", Status{Enabled: false, LastError: "timeout", CooldownUntil: time.Now().Add(time.Minute)})
	store.Set("memory", Status{Enabled: false, LastError: "credentials_missing"})

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "timeout", snapshot["vector"].LastError)
	assert.Equal(t, "credentials_missing", snapshot["memory"].LastError)
}

func TestRedisStore_CooldownExpiresViaTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)

	store.Set("vector", Status{Enabled: false, LastError: "timeout", CooldownUntil: time.Now().Add(2 * time.Second)})
	mr.FastForward(3 * time.Second)

	_, ok := store.Get("vector")
	assert.False(t, ok)
}

func TestRedisStore_PermanentDisableHasNoTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)

	store.Set("memory", Status{Enabled: false, LastError: "credentials_missing"})
	mr.FastForward(time.Hour)

	status, ok := store.Get("memory")
	require.True(t, ok)
	assert.Equal(t, "credentials_missing", status.LastError)
}

func TestRedisStore_SharedAcrossTwoInstances(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	storeA, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), KeyPrefix: "shared:"})
	require.NoError(t, err)
	defer storeA.Close()
	storeB, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), KeyPrefix: "shared:"})
	require.NoError(t, err)
	defer storeB.Close()

	routerA := NewWithStore(DefaultPolicies("vector", "memory"), time.Minute, storeA)
	routerB := NewWithStore(DefaultPolicies("vector", "memory"), time.Minute, storeB)

	routerA.MarkFailure("vector", "timeout")

	plan := routerB.Plan(ModeFast)
	assert.Empty(t, plan.Providers)
	assert.Equal(t, "in_cooldown", plan.Skipped["vector"])
}
