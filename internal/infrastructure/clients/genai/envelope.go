package genai

import (
	"strings"

	"github.com/labdraft/backend/internal/domain/providers"
)

// sdkEnvelope is the response shape of the structured SDK-style endpoint.
type sdkEnvelope struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (e *sdkEnvelope) normalize() *providers.RawServiceResponse {
	out := &providers.RawServiceResponse{}
	if e.PromptFeedback != nil {
		out.BlockReason = e.PromptFeedback.BlockReason
	}
	for _, cand := range e.Candidates {
		normalized := providers.Candidate{FinishReason: cand.FinishReason}
		if cand.Content != nil {
			content := &providers.CandidateContent{}
			for _, part := range cand.Content.Parts {
				content.Parts = append(content.Parts, providers.ContentPart{Text: part.Text})
			}
			normalized.Content = content
		}
		out.Candidates = append(out.Candidates, normalized)
	}
	return out
}

// wireEnvelope is the raw-candidate shape returned by the direct wire
// endpoint. Same logical payload, different field names and casing.
type wireEnvelope struct {
	Outputs []struct {
		Message *struct {
			Segments []struct {
				Body string `json:"body"`
			} `json:"segments"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"outputs"`
	Moderation *struct {
		BlockReason string `json:"block_reason"`
	} `json:"moderation"`
}

func (e *wireEnvelope) normalize() *providers.RawServiceResponse {
	out := &providers.RawServiceResponse{}
	if e.Moderation != nil {
		out.BlockReason = e.Moderation.BlockReason
	}
	for _, output := range e.Outputs {
		// Wire finish reasons are lowercase; the canonical form is uppercase.
		normalized := providers.Candidate{FinishReason: strings.ToUpper(output.FinishReason)}
		if output.Message != nil {
			content := &providers.CandidateContent{}
			for _, segment := range output.Message.Segments {
				content.Parts = append(content.Parts, providers.ContentPart{Text: segment.Body})
			}
			normalized.Content = content
		}
		out.Candidates = append(out.Candidates, normalized)
	}
	return out
}
