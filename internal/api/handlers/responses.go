package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/labdraft/backend/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps a pipeline error onto a structured HTTP response.
// The errorKind field is stable across releases; clients branch on it, not on
// the message.
func respondWithAppError(w http.ResponseWriter, err error) {
	kind := apperrors.TypeOf(err)

	message := "internal server error"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	respondWithJSON(w, statusForErrorType(kind), map[string]string{
		"errorKind": string(kind),
		"message":   message,
	})
}

func statusForErrorType(kind apperrors.ErrorType) int {
	switch kind {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeContentBlocked:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrorTypeTransport,
		apperrors.ErrorTypeMalformedResponse,
		apperrors.ErrorTypeUnrecoverableContent:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
