package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/labdraft/backend/internal/domain/entities"
	"github.com/labdraft/backend/internal/domain/providers"
	"github.com/labdraft/backend/internal/domain/repositories"
	"github.com/labdraft/backend/internal/infrastructure/observability"
)

// CachedDraftAdapter decorates a DraftRepository with read-path caching.
// Only completed drafts are cached; in-flight jobs change too often to be
// worth it. Every write invalidates the job's cache entry.
type CachedDraftAdapter struct {
	inner   repositories.DraftRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedDraftAdapter creates a new cached draft adapter. Metrics may be
// nil.
func NewCachedDraftAdapter(inner repositories.DraftRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.DraftRepository {
	return &CachedDraftAdapter{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

const completedDraftTTL = 10 * time.Minute

func draftCacheKey(jobID string) string {
	return fmt.Sprintf("draft:doc:%s", jobID)
}

// GetByJobID returns the cached completed draft when available, falling back
// to the store.
func (a *CachedDraftAdapter) GetByJobID(ctx context.Context, jobID string) (*entities.Draft, error) {
	cacheKey := draftCacheKey(jobID)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var draft entities.Draft
		if err := json.Unmarshal(cached, &draft); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cacheKey)
			return &draft, nil
		}
		log.Warn().Str("job_id", jobID).Msg("failed to decode cached draft, falling back to store")
	}
	observability.RecordCacheMiss(ctx, a.metrics, cacheKey)

	draft, err := a.inner.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if draft.Status == entities.DraftStatusCompleted {
		if data, err := json.Marshal(draft); err == nil {
			if err := a.cache.Set(ctx, cacheKey, data, completedDraftTTL); err != nil {
				log.Warn().Str("job_id", jobID).Err(err).Msg("failed to cache draft")
			}
		}
	}
	return draft, nil
}

// CreateOrReattach delegates and drops any stale cache entry for the job.
func (a *CachedDraftAdapter) CreateOrReattach(ctx context.Context, jobID string, ownerID *string) (*entities.Draft, error) {
	draft, err := a.inner.CreateOrReattach(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, jobID)
	return draft, nil
}

// Finalize delegates and invalidates so the next read sees the new document.
func (a *CachedDraftAdapter) Finalize(ctx context.Context, jobID string, ownerID *string, doc entities.SectionedDocument) error {
	if err := a.inner.Finalize(ctx, jobID, ownerID, doc); err != nil {
		return err
	}
	a.invalidate(ctx, jobID)
	return nil
}

// MarkFailed delegates and invalidates.
func (a *CachedDraftAdapter) MarkFailed(ctx context.Context, jobID string) error {
	if err := a.inner.MarkFailed(ctx, jobID); err != nil {
		return err
	}
	a.invalidate(ctx, jobID)
	return nil
}

func (a *CachedDraftAdapter) invalidate(ctx context.Context, jobID string) {
	if err := a.cache.Delete(ctx, draftCacheKey(jobID)); err != nil {
		log.Warn().Str("job_id", jobID).Err(err).Msg("failed to invalidate draft cache entry")
	}
}
