package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/domain/providers"
)

// DraftStreamHandler handles Server-Sent Events for draft lifecycle updates.
type DraftStreamHandler struct {
	eventBus providers.EventBus
}

// NewDraftStreamHandler creates a new draft stream handler.
func NewDraftStreamHandler(eventBus providers.EventBus) *DraftStreamHandler {
	return &DraftStreamHandler{eventBus: eventBus}
}

// StreamDraftUpdates handles SSE connections for job-specific updates
// GET /api/stream/drafts/{jobId}
func (h *DraftStreamHandler) StreamDraftUpdates(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	if jobID == "" {
		respondWithError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	channel := providers.GetDraftChannel(jobID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Warn().Str("channel", channel).Err(err).Msg("failed to subscribe to draft updates")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe to updates")
		return
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"job_id":    jobID,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("job_id", jobID).Msg("client disconnected from draft stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
			if isTerminal(event.Type) {
				return
			}
		}
	}
}

// isTerminal reports whether the event closes the job's lifecycle; the stream
// ends after forwarding it.
func isTerminal(eventType entities.DraftEventType) bool {
	return eventType == entities.DraftEventCompleted || eventType == entities.DraftEventFailed
}

func (h *DraftStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal stream event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
