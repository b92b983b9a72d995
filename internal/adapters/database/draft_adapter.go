package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/domain/repositories"
	"github.com/labdraft/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

// DraftAdapter implements DraftRepository against PostgreSQL. One row per job
// id; the document is a single JSONB value, so no multi-row transactions are
// needed.
type DraftAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDraftAdapter creates a new adapter.
func NewDraftAdapter(client *postgres.Client) repositories.DraftRepository {
	return &DraftAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateOrReattach inserts a processing row for the job id, or transitions the
// existing row back to processing. The upsert keyed on job_id is what makes
// re-submission idempotent: a second submit restarts the job, it never
// duplicates the row.
func (a *DraftAdapter) CreateOrReattach(ctx context.Context, jobID string, ownerID *string) (*entities.Draft, error) {
	if jobID == "" {
		return nil, apperrors.NewValidationError("job id is required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO drafts (id, job_id, owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (job_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING id, job_id, owner_id, status, created_at, updated_at
	`

	draft := &entities.Draft{}
	var owner sql.NullString
	err := a.client.DB().QueryRowContext(
		ctx,
		query,
		uuid.New().String(),
		jobID,
		nullableOwner(ownerID),
		entities.DraftStatusProcessing,
		now,
	).Scan(
		&draft.ID,
		&draft.JobID,
		&owner,
		&draft.Status,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create or reattach draft", err)
	}
	if owner.Valid {
		draft.OwnerID = &owner.String
	}
	return draft, nil
}

// Finalize writes the serialized document and marks the draft completed. The
// update is scoped by job id and, when present, by owner; a nil owner matches
// only ownerless rows so anonymous jobs cannot touch owned ones. A zero-row
// update is logged and reported as success: the row may have been deleted
// upstream and that is not this caller's failure.
func (a *DraftAdapter) Finalize(ctx context.Context, jobID string, ownerID *string, doc entities.SectionedDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewInternalError("failed to serialize document", err)
	}

	update := a.db.Update("drafts").
		Set(goqu.Record{
			"document":   string(docBytes),
			"status":     entities.DraftStatusCompleted,
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"job_id": jobID})
	if ownerID != nil {
		update = update.Where(goqu.Ex{"owner_id": *ownerID})
	} else {
		update = update.Where(goqu.Ex{"owner_id": nil})
	}

	query, args, err := update.ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build finalize query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to finalize draft", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		log.Warn().Str("job_id", jobID).Msg("finalize matched no draft row")
	}
	return nil
}

// MarkFailed records a terminal failure for the job.
func (a *DraftAdapter) MarkFailed(ctx context.Context, jobID string) error {
	query, args, err := a.db.Update("drafts").
		Set(goqu.Record{
			"status":     entities.DraftStatusFailed,
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"job_id": jobID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build mark-failed query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to mark draft failed", err)
	}
	return nil
}

// GetByJobID returns the draft for a job id.
func (a *DraftAdapter) GetByJobID(ctx context.Context, jobID string) (*entities.Draft, error) {
	query, args, err := a.db.Select(
		"id",
		"job_id",
		"owner_id",
		"status",
		"document",
		"created_at",
		"updated_at",
	).
		From("drafts").
		Where(goqu.Ex{"job_id": jobID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build draft query", err)
	}

	draft := &entities.Draft{}
	var owner sql.NullString
	var docRaw []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&draft.ID,
		&draft.JobID,
		&owner,
		&draft.Status,
		&docRaw,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("draft with job_id %s not found", jobID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get draft", err)
	}

	if owner.Valid {
		draft.OwnerID = &owner.String
	}
	if len(docRaw) > 0 {
		if err := json.Unmarshal(docRaw, &draft.Document); err != nil {
			return nil, apperrors.NewInternalError("failed to decode stored document", err)
		}
	}
	return draft, nil
}

func nullableOwner(ownerID *string) any {
	if ownerID == nil {
		return nil
	}
	return *ownerID
}
