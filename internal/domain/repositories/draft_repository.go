package repositories

import (
	"context"

	"github.com/labdraft/backend/internal/domain/entities"
)

// DraftRepository owns the Draft entity's lifecycle. Persistence is keyed by
// the caller-supplied job id; every write is idempotent with respect to it.
type DraftRepository interface {
	// CreateOrReattach looks up an existing draft by job id and transitions it
	// back to processing, or inserts a new processing row when none exists.
	// Re-submission of a job id never produces a second row.
	CreateOrReattach(ctx context.Context, jobID string, ownerID *string) (*entities.Draft, error)

	// Finalize writes the serialized document and marks the draft completed.
	// When ownerID is non-nil the update is additionally scoped to that owner;
	// a nil ownerID matches only rows with no owner.
	Finalize(ctx context.Context, jobID string, ownerID *string, doc entities.SectionedDocument) error

	// MarkFailed records a terminal failure for the job. Best-effort from the
	// caller's point of view.
	MarkFailed(ctx context.Context, jobID string) error

	// GetByJobID returns the draft for a job id.
	GetByJobID(ctx context.Context, jobID string) (*entities.Draft, error)
}
