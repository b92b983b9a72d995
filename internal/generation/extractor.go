package generation

import (
	"strings"

	"github.com/labdraft/backend/internal/domain/providers"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

// ErrEmptyResponse marks a response carrying no envelope at all.
var ErrEmptyResponse = apperrors.NewMalformedResponseError("empty response: missing envelope")

// ExtractText validates the normalized response envelope and unwraps the
// trimmed text of the first candidate's first text part. Only the first
// candidate is considered; determinism beats best-of-N selection here.
//
// A policy-flagged response is a content decision, not a transient fault, and
// is surfaced as a distinct error so it is never retried.
func ExtractText(resp *providers.RawServiceResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.BlockReason != "" {
		return "", apperrors.NewContentBlockedError("generation request blocked: " + resp.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.NewMalformedResponseError("response is missing candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == providers.FinishReasonSafety {
		return "", apperrors.NewContentBlockedError("first candidate was blocked on policy grounds")
	}
	if candidate.Content == nil {
		return "", apperrors.NewMalformedResponseError("first candidate is missing content")
	}
	if len(candidate.Content.Parts) == 0 {
		return "", apperrors.NewMalformedResponseError("first candidate content is missing parts")
	}

	text := strings.TrimSpace(candidate.Content.Parts[0].Text)
	if text == "" {
		return "", apperrors.NewMalformedResponseError("first content part has no text")
	}
	return text, nil
}
