package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDeduplication_ExactlyOnce(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), "test-owner", slog.Default())

	inputs := map[string]any{"workflow_id": "wf-1", "custom_data": map[string]any{"total": 100.0}}
	calls := 0

	op := func(_ context.Context) (any, error) {
		calls++

		return "job-1", nil
	}

	result, err := guard.WithDeduplication(context.Background(), inputs, op)
	require.NoError(t, err)
	assert.Equal(t, "job-1", result)

	// Identical inputs inside the cool-down window are rejected without
	// running the operation again.
	_, err = guard.WithDeduplication(context.Background(), inputs, op)
	require.Error(t, err)
	assert.True(t, IsDuplicateRequest(err))
	assert.Equal(t, 1, calls)
}

func TestWithDeduplication_DifferentInputsBothRun(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), "test-owner", slog.Default())

	calls := 0
	op := func(_ context.Context) (any, error) {
		calls++

		return calls, nil
	}

	_, err := guard.WithDeduplication(context.Background(), map[string]any{"workflow_id": "wf-1"}, op)
	require.NoError(t, err)

	_, err = guard.WithDeduplication(context.Background(), map[string]any{"workflow_id": "wf-2"}, op)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestWithDeduplication_ReservationHeldAfterFailure(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), "test-owner", slog.Default())

	inputs := map[string]any{"workflow_id": "wf-1"}
	opErr := errors.New("downstream unavailable")

	_, err := guard.WithDeduplication(context.Background(), inputs, func(_ context.Context) (any, error) {
		return nil, opErr
	})
	require.ErrorIs(t, err, opErr)

	// The cool-down applies to failed attempts too; the reservation is not
	// released early.
	_, err = guard.WithDeduplication(context.Background(), inputs, func(_ context.Context) (any, error) {
		return "should not run", nil
	})
	assert.True(t, IsDuplicateRequest(err))
}

func TestWithDeduplication_TTLExpiryAllowsRerun(t *testing.T) {
	current := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return current }

	guard := NewGuard(store, "test-owner", slog.Default()).WithTTL(10 * time.Second)

	inputs := map[string]any{"workflow_id": "wf-1"}
	calls := 0
	op := func(_ context.Context) (any, error) {
		calls++

		return nil, nil
	}

	_, err := guard.WithDeduplication(context.Background(), inputs, op)
	require.NoError(t, err)

	_, err = guard.WithDeduplication(context.Background(), inputs, op)
	assert.True(t, IsDuplicateRequest(err))

	current = current.Add(11 * time.Second)

	_, err = guard.WithDeduplication(context.Background(), inputs, op)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoryStore_SweepsExpiredEntries(t *testing.T) {
	current := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return current }

	ctx := context.Background()

	for i := range 50 {
		ok, err := store.Reserve(ctx, string(rune('a'+i)), "test-owner", 10*time.Second)
		require.NoError(t, err)
		require.True(t, ok)
	}

	current = current.Add(11 * time.Second)

	// A reservation after the TTL window drops every expired entry, so the
	// map does not grow with the lifetime of the process.
	ok, err := store.Reserve(ctx, "fresh", "test-owner", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()

	assert.Equal(t, 1, size)
}

func TestFingerprint_Deterministic(t *testing.T) {
	a, err := Fingerprint(map[string]any{"workflow_id": "wf-1", "total": 10.0})
	require.NoError(t, err)

	// encoding/json sorts map keys, so insertion order does not matter.
	b, err := Fingerprint(map[string]any{"total": 10.0, "workflow_id": "wf-1"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprint_DistinguishesInputs(t *testing.T) {
	a, err := Fingerprint(map[string]any{"workflow_id": "wf-1"})
	require.NoError(t, err)

	b, err := Fingerprint(map[string]any{"workflow_id": "wf-2"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
