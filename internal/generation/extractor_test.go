package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/domain/providers"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

func responseWithText(text string) *providers.RawServiceResponse {
	return &providers.RawServiceResponse{
		Candidates: []providers.Candidate{
			{
				Content: &providers.CandidateContent{
					Parts: []providers.ContentPart{{Text: text}},
				},
				FinishReason: "STOP",
			},
		},
	}
}

func TestExtractText_ReturnsTrimmedFirstPart(t *testing.T) {
	text, err := ExtractText(responseWithText("  {\"title\":\"X\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, `{"title":"X"}`, text)
}

func TestExtractText_OnlyFirstCandidateConsidered(t *testing.T) {
	resp := responseWithText("first")
	resp.Candidates = append(resp.Candidates, responseWithText("second").Candidates...)

	text, err := ExtractText(resp)
	require.NoError(t, err)
	assert.Equal(t, "first", text)
}

func TestExtractText_ValidationChain(t *testing.T) {
	tests := []struct {
		name     string
		resp     *providers.RawServiceResponse
		wantKind apperrors.ErrorType
		wantMsg  string
	}{
		{
			name:     "nil envelope",
			resp:     nil,
			wantKind: apperrors.ErrorTypeMalformedResponse,
			wantMsg:  "envelope",
		},
		{
			name:     "no candidates",
			resp:     &providers.RawServiceResponse{},
			wantKind: apperrors.ErrorTypeMalformedResponse,
			wantMsg:  "candidates",
		},
		{
			name: "candidate without content",
			resp: &providers.RawServiceResponse{
				Candidates: []providers.Candidate{{FinishReason: "STOP"}},
			},
			wantKind: apperrors.ErrorTypeMalformedResponse,
			wantMsg:  "content",
		},
		{
			name: "content without parts",
			resp: &providers.RawServiceResponse{
				Candidates: []providers.Candidate{{Content: &providers.CandidateContent{}}},
			},
			wantKind: apperrors.ErrorTypeMalformedResponse,
			wantMsg:  "parts",
		},
		{
			name:     "blank text part",
			resp:     responseWithText("   "),
			wantKind: apperrors.ErrorTypeMalformedResponse,
			wantMsg:  "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(tt.resp)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantKind))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExtractText_PolicyBlockedCandidate(t *testing.T) {
	resp := &providers.RawServiceResponse{
		Candidates: []providers.Candidate{{FinishReason: providers.FinishReasonSafety}},
	}

	_, err := ExtractText(resp)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeContentBlocked))
}

func TestExtractText_PromptLevelBlock(t *testing.T) {
	resp := &providers.RawServiceResponse{BlockReason: "SAFETY"}

	_, err := ExtractText(resp)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeContentBlocked))
}
