package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/adapters/database"
	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/infrastructure/clients/postgres"
	"github.com/labdraft/backend/pkg/config"
)

const draftsSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	id          UUID PRIMARY KEY,
	job_id      TEXT NOT NULL UNIQUE,
	owner_id    TEXT,
	status      TEXT NOT NULL DEFAULT 'pending',
	document    JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_drafts_owner_id ON drafts (owner_id);
CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts (status);
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, dropping drafts table")
		if _, err := pgClient.DB().ExecContext(ctx, `DROP TABLE IF EXISTS drafts`); err != nil {
			log.Fatal().Err(err).Msg("failed to drop drafts table")
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, draftsSchema); err != nil {
		log.Fatal().Err(err).Msg("failed to create drafts schema")
	}
	log.Info().Msg("drafts schema ready")

	if os.Getenv("SEED_SAMPLE_DRAFT") != "true" {
		return
	}

	// Sample row for local development of the read path
	repo := database.NewDraftAdapter(pgClient)
	owner := "dev-user"
	if _, err := repo.CreateOrReattach(ctx, "sample-job", &owner); err != nil {
		log.Fatal().Err(err).Msg("failed to create sample draft")
	}

	doc := entities.SectionedDocument{
		entities.SectionTitle:           "Buffer Stability Assay Report",
		entities.SectionIntroduction:    "A stability screen of three candidate buffers.",
		entities.SectionObjectives:      "Determine which buffer preserves enzyme activity over 72h.",
		entities.SectionMaterials:       "Tris, HEPES, phosphate buffers; enzyme stock; plate reader.",
		entities.SectionProcedures:      "Incubate aliquots at 4C and 25C, sample every 12h.",
		entities.SectionResults:         "HEPES retained 94% activity at 72h; Tris 81%; phosphate 63%.",
		entities.SectionDiscussion:      "Phosphate likely accelerates aggregation at 25C.",
		entities.SectionRecommendations: "Adopt HEPES for the production formulation.",
		entities.SectionConclusion:      "HEPES is the preferred buffer under tested conditions.",
		entities.SectionReferences:      "Internal protocol LB-114, rev 3.",
	}
	if err := repo.Finalize(ctx, "sample-job", &owner, doc); err != nil {
		log.Fatal().Err(err).Msg("failed to finalize sample draft")
	}
	log.Info().Str("job_id", "sample-job").Msg("sample draft seeded")
}
