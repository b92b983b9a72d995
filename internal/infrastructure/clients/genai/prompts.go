package genai

import (
	"fmt"
	"strings"

	"github.com/labdraft/backend/internal/domain/entities"
)

// DefaultInstructionTemplate is the fixed instruction text prepended to every
// generation request. The orchestrator treats it as an opaque string; swap it
// per deployment through the service constructor.
const DefaultInstructionTemplate = `You are a technical writing assistant that turns a source document and free-text observations into a structured draft report. Return ONLY a valid JSON object with exactly these string fields:
{
  "title": string (one concise line),
  "abstract": string (3-5 sentences),
  "introduction": string,
  "objectives": string,
  "materials": string,
  "procedures": string,
  "results": string (grounded in the observations when provided),
  "discussion": string,
  "recommendations": string,
  "conclusion": string,
  "references": string
}
Every field must contain plain prose. Do not wrap the object in markdown fences, do not add commentary before or after the JSON, and do not invent measurements that contradict the observations.`

// BuildPrompt assembles the full prompt: instruction template first, then the
// caller's payload.
func BuildPrompt(instruction string, input *entities.GenerationInput) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString("Source document:\n")
	b.WriteString(input.SourceText)
	b.WriteString("\n\nObservations:\n")
	b.WriteString(input.ObservationsText)
	if len(input.Attachments) > 0 {
		b.WriteString("\n\nAttached files (names only):\n")
		for _, att := range input.Attachments {
			fmt.Fprintf(&b, "- %s\n", att.Name)
		}
	}
	return b.String()
}
