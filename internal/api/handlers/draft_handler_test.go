package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/api/handlers"
	"github.com/labdraft/backend/internal/domain/entities"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

type stubDraftService struct {
	submitErr error
	getErr    error
	lastInput *entities.GenerationInput
	draft     *entities.Draft
}

func (s *stubDraftService) Submit(ctx context.Context, input *entities.GenerationInput) (string, error) {
	s.lastInput = input
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return input.JobID, nil
}

func (s *stubDraftService) GetDraft(ctx context.Context, jobID string) (*entities.Draft, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.draft, nil
}

func postDraft(handler *handlers.DraftHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/drafts", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.SubmitDraft(w, req)
	return w
}

func TestDraftHandler_SubmitDraft_Accepted(t *testing.T) {
	service := &stubDraftService{}
	handler := handlers.NewDraftHandler(service)

	body := `{"jobId":"job-1","ownerId":"user-7","sourceText":"Protocol text","attachments":["chromatogram.png"]}`
	w := postDraft(handler, body)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "job-1", response["jobId"])

	require.NotNil(t, service.lastInput)
	require.NotNil(t, service.lastInput.OwnerID)
	assert.Equal(t, "user-7", *service.lastInput.OwnerID)
	require.Len(t, service.lastInput.Attachments, 1)
	assert.Equal(t, "chromatogram.png", service.lastInput.Attachments[0].Name)
}

func TestDraftHandler_SubmitDraft_AnonymousOwner(t *testing.T) {
	service := &stubDraftService{}
	handler := handlers.NewDraftHandler(service)

	w := postDraft(handler, `{"jobId":"job-1","sourceText":"Protocol text"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, service.lastInput)
	assert.Nil(t, service.lastInput.OwnerID)
}

func TestDraftHandler_SubmitDraft_InvalidJSON(t *testing.T) {
	handler := handlers.NewDraftHandler(&stubDraftService{})

	w := postDraft(handler, `{"jobId":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftHandler_SubmitDraft_ErrorKindMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", apperrors.NewValidationError("source text is required"), http.StatusBadRequest, "VALIDATION"},
		{"blocked", apperrors.NewContentBlockedError("blocked by content policy"), http.StatusUnprocessableEntity, "CONTENT_BLOCKED"},
		{"timeout", apperrors.NewTimeoutError("generation timed out", nil), http.StatusGatewayTimeout, "TIMEOUT"},
		{"transport", apperrors.NewTransportError("service unreachable", nil), http.StatusBadGateway, "TRANSPORT"},
		{"malformed", apperrors.NewMalformedResponseError("missing candidates"), http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{"unrecoverable", apperrors.NewUnrecoverableContentError("fallback failed validation"), http.StatusBadGateway, "UNRECOVERABLE_CONTENT"},
		{"persistence", apperrors.NewPersistenceError("store unavailable", nil), http.StatusInternalServerError, "PERSISTENCE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := handlers.NewDraftHandler(&stubDraftService{submitErr: tc.err})

			w := postDraft(handler, `{"jobId":"job-1","sourceText":"Protocol text"}`)

			assert.Equal(t, tc.wantStatus, w.Code)

			var response map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tc.wantKind, response["errorKind"])
			assert.NotEmpty(t, response["message"])
		})
	}
}

func TestDraftHandler_GetDraft_ReturnsDocument(t *testing.T) {
	service := &stubDraftService{draft: &entities.Draft{
		JobID:  "job-1",
		Status: entities.DraftStatusCompleted,
		Document: entities.SectionedDocument{
			entities.SectionTitle: "Assay Report",
		},
	}}
	handler := handlers.NewDraftHandler(service)

	req := httptest.NewRequest("GET", "/api/drafts/job-1", nil)
	req.SetPathValue("jobId", "job-1")
	w := httptest.NewRecorder()

	handler.GetDraft(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var draft entities.Draft
	require.NoError(t, json.NewDecoder(w.Body).Decode(&draft))
	assert.Equal(t, entities.DraftStatusCompleted, draft.Status)
	assert.Equal(t, "Assay Report", draft.Document[entities.SectionTitle])
}

func TestDraftHandler_GetDraft_NotFound(t *testing.T) {
	service := &stubDraftService{getErr: apperrors.NewNotFoundError("draft not found")}
	handler := handlers.NewDraftHandler(service)

	req := httptest.NewRequest("GET", "/api/drafts/missing", nil)
	req.SetPathValue("jobId", "missing")
	w := httptest.NewRecorder()

	handler.GetDraft(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftHandler_GetDraft_MissingJobID(t *testing.T) {
	handler := handlers.NewDraftHandler(&stubDraftService{})

	req := httptest.NewRequest("GET", "/api/drafts/", nil)
	w := httptest.NewRecorder()

	handler.GetDraft(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
