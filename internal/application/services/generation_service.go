package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/domain/providers"
	"github.com/labdraft/backend/internal/domain/repositories"
	"github.com/labdraft/backend/internal/generation"
	"github.com/labdraft/backend/internal/infrastructure/clients/genai"
	"github.com/labdraft/backend/internal/infrastructure/observability"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

const (
	// ObservationsNotProvided replaces an omitted observations field before
	// prompt construction.
	ObservationsNotProvided = "Not provided."

	maxSourceTextLength   = 20000
	maxObservationsLength = 5000
	maxAttachments        = 5
)

// ContentRecoverer turns raw model output into a best-effort section map.
type ContentRecoverer interface {
	Recover(rawText string) entities.RawSectionMap
}

// SectionNormalizer maps a recovered section map onto the canonical document.
type SectionNormalizer interface {
	Normalize(raw entities.RawSectionMap) (entities.SectionedDocument, error)
}

// GenerationService coordinates the draft generation pipeline: attach job,
// invoke the external service, recover and normalize the document, persist.
// It owns the job's status transitions; no other component touches them.
type GenerationService struct {
	repo        repositories.DraftRepository
	generator   providers.TextGenerationProvider
	recoverer   ContentRecoverer
	normalizer  SectionNormalizer
	events      providers.EventBus
	instruction string
}

// NewGenerationService creates a new generation service. The events bus is
// optional; a nil bus disables lifecycle notifications. The instruction text
// is treated as opaque and prepended to every prompt.
func NewGenerationService(
	repo repositories.DraftRepository,
	generator providers.TextGenerationProvider,
	recoverer ContentRecoverer,
	normalizer SectionNormalizer,
	events providers.EventBus,
	instruction string,
) *GenerationService {
	if instruction == "" {
		instruction = genai.DefaultInstructionTemplate
	}
	return &GenerationService{
		repo:        repo,
		generator:   generator,
		recoverer:   recoverer,
		normalizer:  normalizer,
		events:      events,
		instruction: instruction,
	}
}

// Submit runs the pipeline for one job and returns the job id on success.
// The finalized document is never returned synchronously; callers fetch it
// through the read path once the job completes.
//
// Re-submitting a job id restarts the job. Concurrent submissions for one job
// id are not mutually excluded; the repository's idempotent upsert keeps a
// single row and the last finalize wins.
func (s *GenerationService) Submit(ctx context.Context, input *entities.GenerationInput) (string, error) {
	// Validation failures are caller-correctable; no job is attached for a
	// request that never had a valid input.
	if err := validateInput(input); err != nil {
		return "", err
	}

	started := time.Now()

	draft, err := s.repo.CreateOrReattach(ctx, input.JobID, input.OwnerID)
	if err != nil {
		return "", classify(err)
	}
	s.publishEvent(input.JobID, entities.DraftEventProcessing, "")
	log.Info().Str("job_id", draft.JobID).Msg("draft generation started")

	prompt := genai.BuildPrompt(s.instruction, input)

	resp, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", s.fail(ctx, input.JobID, started, err)
	}

	text, err := generation.ExtractText(resp)
	if err != nil {
		return "", s.fail(ctx, input.JobID, started, err)
	}

	rawSections := s.recoverer.Recover(text)

	doc, err := s.normalizer.Normalize(rawSections)
	if err != nil {
		return "", s.fail(ctx, input.JobID, started, err)
	}

	if err := s.repo.Finalize(ctx, input.JobID, input.OwnerID, doc); err != nil {
		return "", s.fail(ctx, input.JobID, started, err)
	}

	s.publishEvent(input.JobID, entities.DraftEventCompleted, "")
	observability.RecordDraftJob(ctx, "completed", time.Since(started))
	log.Info().Str("job_id", input.JobID).Msg("draft generation completed")
	return input.JobID, nil
}

// GetDraft is the read path for finalized documents.
func (s *GenerationService) GetDraft(ctx context.Context, jobID string) (*entities.Draft, error) {
	if jobID == "" {
		return nil, apperrors.NewValidationError("job id is required")
	}
	draft, err := s.repo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, classify(err)
	}
	return draft, nil
}

// fail classifies the pipeline error and kicks off best-effort status
// correction. The correction is deliberately not awaited: the request already
// failed and its caller should not pay the repair's retry budget. A row stuck
// in processing when even that fails is an accepted, monitorable outcome.
func (s *GenerationService) fail(ctx context.Context, jobID string, started time.Time, cause error) error {
	classified := classify(cause)
	observability.RecordDraftJob(ctx, string(apperrors.TypeOf(classified)), time.Since(started))
	log.Error().Str("job_id", jobID).Err(classified).Msg("draft generation failed")

	go func() {
		_ = s.repo.MarkFailed(context.Background(), jobID)
		s.publishEvent(jobID, entities.DraftEventFailed, string(apperrors.TypeOf(classified)))
	}()

	return classified
}

// classify guarantees every error leaving the orchestrator carries a stable
// taxonomy kind.
func classify(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewInternalError("draft generation pipeline failed", err)
}

func (s *GenerationService) publishEvent(jobID string, eventType entities.DraftEventType, errorKind string) {
	if s.events == nil {
		return
	}
	event := &entities.DraftEvent{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Type:      eventType,
		ErrorKind: errorKind,
		Timestamp: time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, providers.EventChannelDraftUpdates, event); err != nil {
		log.Warn().Str("job_id", jobID).Err(err).Msg("failed to publish draft event")
	}
	if err := s.events.Publish(ctx, providers.GetDraftChannel(jobID), event); err != nil {
		log.Warn().Str("job_id", jobID).Err(err).Msg("failed to publish draft event")
	}
}

// validateInput checks and normalizes the caller's payload in place.
func validateInput(input *entities.GenerationInput) error {
	if input == nil {
		return apperrors.NewValidationError("generation input is required")
	}
	if strings.TrimSpace(input.JobID) == "" {
		return apperrors.NewValidationError("job id is required")
	}

	input.SourceText = strings.TrimSpace(input.SourceText)
	if input.SourceText == "" {
		return apperrors.NewValidationError("source text is required")
	}
	if len(input.SourceText) > maxSourceTextLength {
		return apperrors.NewValidationError("source text is too long")
	}

	input.ObservationsText = strings.TrimSpace(input.ObservationsText)
	if input.ObservationsText == "" {
		input.ObservationsText = ObservationsNotProvided
	}
	if len(input.ObservationsText) > maxObservationsLength {
		return apperrors.NewValidationError("observations text is too long")
	}

	if len(input.Attachments) > maxAttachments {
		return apperrors.NewValidationError("too many attachments")
	}
	for _, att := range input.Attachments {
		if strings.TrimSpace(att.Name) == "" {
			return apperrors.NewValidationError("attachment name must not be empty")
		}
	}
	return nil
}
