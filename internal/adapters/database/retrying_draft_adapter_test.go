package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/domain/entities"
	apperrors "github.com/labdraft/backend/pkg/errors"
	"github.com/labdraft/backend/pkg/retry"
)

// flakyDraftRepo fails each operation a configured number of times before
// succeeding.
type flakyDraftRepo struct {
	failures int
	calls    int
}

func (r *flakyDraftRepo) attempt() error {
	r.calls++
	if r.calls <= r.failures {
		return errors.New("store unreachable")
	}
	return nil
}

func (r *flakyDraftRepo) CreateOrReattach(ctx context.Context, jobID string, ownerID *string) (*entities.Draft, error) {
	if err := r.attempt(); err != nil {
		return nil, err
	}
	return &entities.Draft{JobID: jobID, OwnerID: ownerID, Status: entities.DraftStatusProcessing}, nil
}

func (r *flakyDraftRepo) Finalize(ctx context.Context, jobID string, ownerID *string, doc entities.SectionedDocument) error {
	return r.attempt()
}

func (r *flakyDraftRepo) MarkFailed(ctx context.Context, jobID string) error {
	return r.attempt()
}

func (r *flakyDraftRepo) GetByJobID(ctx context.Context, jobID string) (*entities.Draft, error) {
	if err := r.attempt(); err != nil {
		return nil, err
	}
	return &entities.Draft{JobID: jobID}, nil
}

func fastBudget(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func newFastRetryingAdapter(inner *flakyDraftRepo) *RetryingDraftAdapter {
	return NewRetryingDraftAdapterWithBudgets(
		inner, fastBudget(3), fastBudget(3), fastBudget(5),
	).(*RetryingDraftAdapter)
}

func TestRetryingAdapter_CreateOrReattachRecovers(t *testing.T) {
	inner := &flakyDraftRepo{failures: 2}
	adapter := newFastRetryingAdapter(inner)

	draft, err := adapter.CreateOrReattach(context.Background(), "job-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "job-1", draft.JobID)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingAdapter_FinalizeExhaustionIsPersistenceError(t *testing.T) {
	inner := &flakyDraftRepo{failures: 10}
	adapter := newFastRetryingAdapter(inner)

	err := adapter.Finalize(context.Background(), "job-1", nil, entities.SectionedDocument{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePersistence))
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingAdapter_MarkFailedSwallowsExhaustion(t *testing.T) {
	inner := &flakyDraftRepo{failures: 10}
	adapter := newFastRetryingAdapter(inner)

	// Status correction is advisory; the caller-visible error path must not
	// gain a second failure from it.
	err := adapter.MarkFailed(context.Background(), "job-1")
	assert.NoError(t, err)
	assert.Equal(t, 5, inner.calls)
}

func TestRetryingAdapter_MarkFailedRetriesThenSucceeds(t *testing.T) {
	inner := &flakyDraftRepo{failures: 4}
	adapter := newFastRetryingAdapter(inner)

	assert.NoError(t, adapter.MarkFailed(context.Background(), "job-1"))
	assert.Equal(t, 5, inner.calls)
}

func TestRetryingAdapter_GetIsSingleAttempt(t *testing.T) {
	inner := &flakyDraftRepo{failures: 1}
	adapter := newFastRetryingAdapter(inner)

	_, err := adapter.GetByJobID(context.Background(), "job-1")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
