// Package idempotency provides a reusable exactly-once gate. A deterministic
// fingerprint of the request identity is reserved atomically with a TTL;
// repeated attempts inside the TTL fail fast instead of re-running the
// operation. The reservation is deliberately left to expire rather than
// released on success, so a double-click inside the cool-down window is
// blocked even after the first attempt succeeded.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDuplicateRequest indicates the fingerprint is already reserved; the
// caller should retry after the TTL elapses, not treat this as a failure.
var ErrDuplicateRequest = errors.New("duplicate request")

// IsDuplicateRequest checks if an error indicates a duplicated request.
func IsDuplicateRequest(err error) bool {
	return errors.Is(err, ErrDuplicateRequest)
}

const defaultTTL = 30 * time.Second

// ReservationStore is the atomic "set if not exists, with TTL" primitive the
// guard is built on. Correctness depends on the reservation being atomic at
// the storage layer, not on application-level locking.
type ReservationStore interface {
	Reserve(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
}

// Operation is the guarded unit of work.
type Operation func(ctx context.Context) (any, error)

type Guard struct {
	store  ReservationStore
	ttl    time.Duration
	owner  string
	logger *slog.Logger
}

func NewGuard(store ReservationStore, owner string, logger *slog.Logger) *Guard {
	return &Guard{
		store:  store,
		ttl:    defaultTTL,
		owner:  owner,
		logger: logger.With("module", "idempotency"),
	}
}

// WithTTL overrides the default reservation TTL.
func (g *Guard) WithTTL(ttl time.Duration) *Guard {
	g.ttl = ttl

	return g
}

// WithDeduplication reserves the fingerprint of inputs and, on success, runs
// op. A failed reservation raises ErrDuplicateRequest without invoking op.
// The reservation is never released here; it expires on its own.
func (g *Guard) WithDeduplication(ctx context.Context, inputs map[string]any, op Operation) (any, error) {
	fingerprint, err := Fingerprint(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint request: %w", err)
	}

	acquired, err := g.store.Reserve(ctx, "dedup:"+fingerprint, g.owner, g.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve fingerprint: %w", err)
	}

	if !acquired {
		g.logger.InfoContext(ctx, "Rejected duplicate request", "fingerprint", fingerprint)

		return nil, fmt.Errorf("fingerprint %s: %w", fingerprint, ErrDuplicateRequest)
	}

	return op(ctx)
}

// Fingerprint returns a deterministic hash of the inputs that identify "the
// same logical request". encoding/json sorts map keys, which makes the
// serialization canonical.
func Fingerprint(inputs map[string]any) (string, error) {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}
