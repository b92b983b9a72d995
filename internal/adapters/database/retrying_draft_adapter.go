package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/domain/repositories"
	apperrors "github.com/labdraft/backend/pkg/errors"
	"github.com/labdraft/backend/pkg/retry"
)

// Store writes are infrastructure calls with their own retry budgets,
// independent of the generation pipeline's transport retries.
var (
	// createOrReattachRetry covers the lookup+transition at job start.
	createOrReattachRetry = retry.Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}

	// finalizeRetry backs off 2s, 4s, 8s.
	finalizeRetry = retry.Config{
		MaxAttempts:   3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      8 * time.Second,
		BackoffFactor: 2.0,
	}

	// markFailedRetry backs off 1s, 2s, 4s, 8s, 16s.
	markFailedRetry = retry.Config{
		MaxAttempts:   5,
		InitialDelay:  1 * time.Second,
		MaxDelay:      16 * time.Second,
		BackoffFactor: 2.0,
	}
)

// RetryingDraftAdapter decorates a DraftRepository with per-operation retry
// budgets and maps exhaustion onto PersistenceError.
type RetryingDraftAdapter struct {
	inner           repositories.DraftRepository
	createRetry     retry.Config
	finalizeRetry   retry.Config
	markFailedRetry retry.Config
}

// NewRetryingDraftAdapter wraps the given repository with the stock budgets.
func NewRetryingDraftAdapter(inner repositories.DraftRepository) repositories.DraftRepository {
	return &RetryingDraftAdapter{
		inner:           inner,
		createRetry:     createOrReattachRetry,
		finalizeRetry:   finalizeRetry,
		markFailedRetry: markFailedRetry,
	}
}

// NewRetryingDraftAdapterWithBudgets wraps the repository with caller-supplied
// budgets; used by tests to avoid wall-clock delays.
func NewRetryingDraftAdapterWithBudgets(inner repositories.DraftRepository, create, finalize, markFailed retry.Config) repositories.DraftRepository {
	return &RetryingDraftAdapter{
		inner:           inner,
		createRetry:     create,
		finalizeRetry:   finalize,
		markFailedRetry: markFailed,
	}
}

// CreateOrReattach retries the idempotent upsert under its own budget.
func (a *RetryingDraftAdapter) CreateOrReattach(ctx context.Context, jobID string, ownerID *string) (*entities.Draft, error) {
	var draft *entities.Draft
	err := retry.DoWithLog(ctx, a.createRetry, "draft-create", func() error {
		var innerErr error
		draft, innerErr = a.inner.CreateOrReattach(ctx, jobID, ownerID)
		return innerErr
	}, logRetryAttempt(jobID, "create_or_reattach"))
	if err != nil {
		return nil, apperrors.NewPersistenceError("draft store unavailable while attaching job", err)
	}
	return draft, nil
}

// Finalize retries the completed-document write under its own budget.
func (a *RetryingDraftAdapter) Finalize(ctx context.Context, jobID string, ownerID *string, doc entities.SectionedDocument) error {
	err := retry.DoWithLog(ctx, a.finalizeRetry, "draft-finalize", func() error {
		return a.inner.Finalize(ctx, jobID, ownerID, doc)
	}, logRetryAttempt(jobID, "finalize"))
	if err != nil {
		return apperrors.NewPersistenceError("draft store unavailable while finalizing job", err)
	}
	return nil
}

// MarkFailed is fire-and-retry: status correction is advisory, so exhaustion
// is logged and swallowed rather than surfaced.
func (a *RetryingDraftAdapter) MarkFailed(ctx context.Context, jobID string) error {
	err := retry.DoWithLog(ctx, a.markFailedRetry, "draft-mark-failed", func() error {
		return a.inner.MarkFailed(ctx, jobID)
	}, logRetryAttempt(jobID, "mark_failed"))
	if err != nil {
		log.Error().Str("job_id", jobID).Err(err).Msg("giving up marking draft failed")
	}
	return nil
}

// GetByJobID is a single-attempt read; the caller decides whether a miss
// matters.
func (a *RetryingDraftAdapter) GetByJobID(ctx context.Context, jobID string) (*entities.Draft, error) {
	return a.inner.GetByJobID(ctx, jobID)
}

func logRetryAttempt(jobID, operation string) func(int, error, time.Duration) {
	return func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().
			Str("job_id", jobID).
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Err(err).
			Msg("draft store write failed, retrying")
	}
}
