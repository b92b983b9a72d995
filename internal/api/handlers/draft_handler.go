package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labdraft/backend/internal/domain/entities"
)

// DraftService defines the draft operations used by the handler.
type DraftService interface {
	Submit(ctx context.Context, input *entities.GenerationInput) (string, error)
	GetDraft(ctx context.Context, jobID string) (*entities.Draft, error)
}

// DraftHandler handles draft generation requests.
type DraftHandler struct {
	service DraftService
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(service DraftService) *DraftHandler {
	return &DraftHandler{service: service}
}

type submitDraftRequest struct {
	JobID            string   `json:"jobId"`
	OwnerID          string   `json:"ownerId"`
	SourceText       string   `json:"sourceText"`
	ObservationsText string   `json:"observationsText"`
	Attachments      []string `json:"attachments"`
}

// SubmitDraft handles POST /api/drafts. The pipeline runs synchronously but
// the response body carries only the job id; clients read the document back
// through GetDraft or the update stream.
func (h *DraftHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	var payload submitDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	input := &entities.GenerationInput{
		JobID:            payload.JobID,
		SourceText:       payload.SourceText,
		ObservationsText: payload.ObservationsText,
	}
	if owner := strings.TrimSpace(payload.OwnerID); owner != "" {
		input.OwnerID = &owner
	}
	for _, name := range payload.Attachments {
		input.Attachments = append(input.Attachments, entities.AttachmentRef{Name: name})
	}

	jobID, err := h.service.Submit(r.Context(), input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"jobId": jobID,
	})
}

// GetDraft handles GET /api/drafts/{jobId}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	if jobID == "" {
		respondWithError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	draft, err := h.service.GetDraft(r.Context(), jobID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, draft)
}
