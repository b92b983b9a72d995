package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

func setupMockAdapter(t *testing.T) (*DraftAdapter, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	adapter := NewDraftAdapter(postgres.NewClientFromDB(mockDB)).(*DraftAdapter)
	return adapter, mock
}

func draftRows(jobID string, owner any, status entities.DraftStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "job_id", "owner_id", "status", "created_at", "updated_at"}).
		AddRow("row-1", jobID, owner, string(status), now, now)
}

func TestCreateOrReattach_InsertsProcessingRow(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectQuery(`INSERT INTO drafts`).
		WithArgs(sqlmock.AnyArg(), "job-1", nil, string(entities.DraftStatusProcessing), sqlmock.AnyArg()).
		WillReturnRows(draftRows("job-1", nil, entities.DraftStatusProcessing))

	draft, err := adapter.CreateOrReattach(context.Background(), "job-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "job-1", draft.JobID)
	assert.Equal(t, entities.DraftStatusProcessing, draft.Status)
	assert.Nil(t, draft.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrReattach_OwnedJob(t *testing.T) {
	adapter, mock := setupMockAdapter(t)
	owner := "owner-7"

	mock.ExpectQuery(`INSERT INTO drafts`).
		WithArgs(sqlmock.AnyArg(), "job-2", owner, string(entities.DraftStatusProcessing), sqlmock.AnyArg()).
		WillReturnRows(draftRows("job-2", owner, entities.DraftStatusProcessing))

	draft, err := adapter.CreateOrReattach(context.Background(), "job-2", &owner)
	require.NoError(t, err)
	require.NotNil(t, draft.OwnerID)
	assert.Equal(t, owner, *draft.OwnerID)
}

func TestCreateOrReattach_EmptyJobID(t *testing.T) {
	adapter, _ := setupMockAdapter(t)

	_, err := adapter.CreateOrReattach(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFinalize_ScopesAnonymousJobsToNullOwner(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`UPDATE "drafts".*"owner_id" IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc := entities.SectionedDocument{entities.SectionTitle: "T"}
	err := adapter.Finalize(context.Background(), "job-1", nil, doc)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_ZeroRowUpdateIsSuccess(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	// The row may have been deleted upstream; a zero-row update is only a
	// logged warning, never an error.
	mock.ExpectExec(`UPDATE "drafts"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	doc := entities.SectionedDocument{entities.SectionTitle: "T"}
	err := adapter.Finalize(context.Background(), "gone-job", nil, doc)
	assert.NoError(t, err)
}

func TestMarkFailed_UpdatesStatus(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`UPDATE "drafts"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, adapter.MarkFailed(context.Background(), "job-1"))
}

func TestGetByJobID_NotFound(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows([]string{
		"id", "job_id", "owner_id", "status", "document", "created_at", "updated_at",
	}))

	_, err := adapter.GetByJobID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestGetByJobID_DecodesDocument(t *testing.T) {
	adapter, mock := setupMockAdapter(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "job_id", "owner_id", "status", "document", "created_at", "updated_at",
	}).AddRow("row-1", "job-1", nil, string(entities.DraftStatusCompleted),
		[]byte(`{"title":"Stored"}`), now, now)
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	draft, err := adapter.GetByJobID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, entities.DraftStatusCompleted, draft.Status)
	assert.Equal(t, "Stored", draft.Document[entities.SectionTitle])
}
