package pipeline

import (
	"context"
	"errors"

	"dealership_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Store is the versioned lead storage a guarded write goes through.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.LeadPatch, expectedVersion int64) (domain.Lead, error)
}

// MutateFunc evaluates guards against a fresh read and returns the patch to write.
type MutateFunc func(lead domain.Lead) (domain.LeadPatch, error)

// Apply reads the lead, runs fn and writes the patch with the version that
// was read. A version conflict re-reads and re-evaluates fn, up to
// maxAttempts times in total. It returns the lead as read and as written.
func Apply(ctx context.Context, store Store, id uuid.UUID, maxAttempts int, fn MutateFunc) (before, after domain.Lead, err error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Lead{}, domain.Lead{}, err
		}

		current, err := store.Get(ctx, id)
		if err != nil {
			return domain.Lead{}, domain.Lead{}, err
		}

		patch, err := fn(current)
		if err != nil {
			return current, domain.Lead{}, err
		}

		updated, err := store.Update(ctx, id, patch, current.Version)
		if err == nil {
			return current, updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxAttempts {
			return current, domain.Lead{}, err
		}
	}
}
