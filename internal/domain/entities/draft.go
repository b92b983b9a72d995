package entities

import "time"

// DraftStatus represents the lifecycle state of a generation job.
type DraftStatus string

const (
	DraftStatusPending    DraftStatus = "pending"
	DraftStatusProcessing DraftStatus = "processing"
	DraftStatusCompleted  DraftStatus = "completed"
	DraftStatusFailed     DraftStatus = "failed"
)

// Draft is one logical generation job and its eventual structured document.
// JobID is the caller-supplied idempotency key for the whole pipeline; at most
// one row ever exists per JobID.
type Draft struct {
	ID        string            `json:"id" db:"id"`
	JobID     string            `json:"job_id" db:"job_id"`
	OwnerID   *string           `json:"owner_id,omitempty" db:"owner_id"`
	Status    DraftStatus       `json:"status" db:"status"`
	Document  SectionedDocument `json:"document,omitempty" db:"document"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// SectionedDocument maps canonical section keys to section text. Every
// required canonical key is present and non-empty in a finalized document;
// missing or invalid content is substituted with a sentinel placeholder, never
// left absent. The value set is plain text only, so the structure always
// survives a JSON round trip unchanged.
type SectionedDocument map[string]string

// RawSectionMap is the best-effort key/value mapping recovered from raw model
// output before normalization. Keys are arbitrary heading spellings and values
// may be any JSON type; the normalizer resolves both.
type RawSectionMap map[string]any

// Canonical section keys, in presentation order.
const (
	SectionTitle           = "title"
	SectionAbstract        = "abstract"
	SectionIntroduction    = "introduction"
	SectionObjectives      = "objectives"
	SectionMaterials       = "materials"
	SectionProcedures      = "procedures"
	SectionResults         = "results"
	SectionDiscussion      = "discussion"
	SectionRecommendations = "recommendations"
	SectionConclusion      = "conclusion"
	SectionReferences      = "references"
	SectionErrorNote       = "error_note"
)

// RequiredSectionKeys is the closed set of keys every finalized document must
// carry with non-empty text.
var RequiredSectionKeys = []string{
	SectionTitle,
	SectionIntroduction,
	SectionObjectives,
	SectionMaterials,
	SectionProcedures,
	SectionResults,
	SectionDiscussion,
	SectionRecommendations,
	SectionConclusion,
	SectionReferences,
}

// OrderedSectionKeys is the full canonical key set in presentation order,
// including the optional abstract and error_note slots.
var OrderedSectionKeys = []string{
	SectionTitle,
	SectionAbstract,
	SectionIntroduction,
	SectionObjectives,
	SectionMaterials,
	SectionProcedures,
	SectionResults,
	SectionDiscussion,
	SectionRecommendations,
	SectionConclusion,
	SectionReferences,
	SectionErrorNote,
}

// AttachmentRef is a lightweight, name-only reference to an uploaded file.
// Binary content never flows through the generation pipeline.
type AttachmentRef struct {
	Name string `json:"name"`
}

// GenerationInput is the ephemeral per-invocation payload fed to the prompt
// builder. It is consumed by the pipeline and not persisted as its own entity.
type GenerationInput struct {
	JobID            string          `json:"job_id"`
	OwnerID          *string         `json:"owner_id,omitempty"`
	SourceText       string          `json:"source_text"`
	ObservationsText string          `json:"observations_text"`
	Attachments      []AttachmentRef `json:"attachments,omitempty"`
}
