package providers

import "context"

// RawServiceResponse is the transport-normalized envelope returned by the
// external text-generation service. Both physical transports decode into this
// one shape before anything downstream sees the response.
type RawServiceResponse struct {
	Candidates  []Candidate
	BlockReason string
}

// Candidate is one generation candidate inside the response envelope.
type Candidate struct {
	Content      *CandidateContent
	FinishReason string
}

// CandidateContent holds the content parts of a candidate.
type CandidateContent struct {
	Parts []ContentPart
}

// ContentPart is a single text fragment of a candidate's content.
type ContentPart struct {
	Text string
}

// FinishReasonSafety marks a candidate the service refused on policy grounds.
const FinishReasonSafety = "SAFETY"

// TextGenerationProvider invokes the external generative-text service. The
// implementation owns per-call timeout, transport fallback and retry; it never
// mutates job state.
type TextGenerationProvider interface {
	Generate(ctx context.Context, prompt string) (*RawServiceResponse, error)
}
