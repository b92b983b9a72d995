package generation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/domain/entities"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

func newDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultNormalizerConfig())
}

func assertCanonicalComplete(t *testing.T, doc entities.SectionedDocument) {
	t.Helper()
	for _, key := range entities.RequiredSectionKeys {
		assert.NotEmpty(t, doc[key], "required key %q must be non-empty", key)
	}
}

func TestNormalize_EmptyMapYieldsCompleteDocument(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{})
	require.NoError(t, err)

	assertCanonicalComplete(t, doc)
	cfg := DefaultNormalizerConfig()
	assert.Equal(t, cfg.GenericTitle, doc[entities.SectionTitle])
	assert.Equal(t, cfg.Placeholder, doc[entities.SectionIntroduction])
	assert.Equal(t, cfg.Placeholder, doc[entities.SectionAbstract])
}

func TestNormalize_AliasedTitle(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{"Title": "X"})
	require.NoError(t, err)

	assert.Equal(t, "X", doc[entities.SectionTitle])
	cfg := DefaultNormalizerConfig()
	for _, key := range entities.RequiredSectionKeys {
		if key == entities.SectionTitle {
			continue
		}
		assert.Equal(t, cfg.Placeholder, doc[key])
	}
}

func TestNormalize_HeadingNoiseStripped(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"1. Introduction":  "intro text",
		"## Results:":      "results text",
		"Section 3 Aims":   "aims text",
		"Bibliography":     "refs text",
		"FINDINGS":         "ignored, results already claimed",
		"some random junk": "dropped",
	})
	require.NoError(t, err)

	assert.Equal(t, "intro text", doc[entities.SectionIntroduction])
	assert.Equal(t, "results text", doc[entities.SectionResults])
	assert.Equal(t, "aims text", doc[entities.SectionObjectives])
	assert.Equal(t, "refs text", doc[entities.SectionReferences])
}

func TestNormalize_FirstAliasWins(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"introduction": "canonical value",
		"background":   "synonym value",
	})
	require.NoError(t, err)

	// "introduction" sits earlier in the alias table than "background".
	assert.Equal(t, "canonical value", doc[entities.SectionIntroduction])
}

func TestNormalize_NonTextValuesReplaced(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"results":    42.0,
		"discussion": map[string]any{"nested": true},
		"conclusion": "  ",
	})
	require.NoError(t, err)

	cfg := DefaultNormalizerConfig()
	assert.Equal(t, cfg.Placeholder, doc[entities.SectionResults])
	assert.Equal(t, cfg.Placeholder, doc[entities.SectionDiscussion])
	assert.Equal(t, cfg.Placeholder, doc[entities.SectionConclusion])
}

func TestNormalize_MethodsFillsRecommendations(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"methods": "wear gloves",
	})
	require.NoError(t, err)

	assert.Equal(t, "wear gloves", doc[entities.SectionRecommendations])
}

func TestNormalize_MethodsDoesNotOverrideRecommendations(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"methods":         "wear gloves",
		"recommendations": "repeat the trial",
	})
	require.NoError(t, err)

	assert.Equal(t, "repeat the trial", doc[entities.SectionRecommendations])
}

func TestNormalize_FallbackTitleReplaced(t *testing.T) {
	cfg := DefaultNormalizerConfig()
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"title": "Draft Report " + fallbackTitleMarker,
	})
	require.NoError(t, err)

	assert.Equal(t, cfg.GenericTitle, doc[entities.SectionTitle])
}

func TestNormalize_ErrorNoteCarriedThrough(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"error_note": "generation was degraded",
	})
	require.NoError(t, err)

	assert.Equal(t, "generation was degraded", doc[entities.SectionErrorNote])
	assertCanonicalComplete(t, doc)
}

func TestNormalize_SuspiciousContentTriggersSafeDocument(t *testing.T) {
	cfg := DefaultNormalizerConfig()
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"title":   "Fine Title",
		"results": "value was [object Object] after mixing",
	})
	require.NoError(t, err)

	assertCanonicalComplete(t, doc)
	for _, key := range entities.RequiredSectionKeys {
		assert.Equal(t, cfg.Placeholder, doc[key])
	}
	assert.Contains(t, doc[entities.SectionErrorNote], "suspicious fragment")
}

func TestNormalize_OversizedSectionTriggersSafeDocument(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"discussion": strings.Repeat("a", 10001),
	})
	require.NoError(t, err)

	assert.Contains(t, doc[entities.SectionErrorNote], "exceeds")
}

func TestNormalize_BrokenFallbackIsUnrecoverable(t *testing.T) {
	// A placeholder that violates its own policy means even the safe
	// document cannot pass; this is an invariant violation.
	cfg := DefaultNormalizerConfig()
	cfg.Placeholder = "placeholder with NaN inside"

	_, err := NewNormalizer(cfg).Normalize(entities.RawSectionMap{
		"results": "value was [object Object]",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnrecoverableContent))
}

func TestSectionedDocument_RoundTrip(t *testing.T) {
	doc, err := newDefaultNormalizer().Normalize(entities.RawSectionMap{
		"title":   "Round Trip",
		"results": "stable",
	})
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded entities.SectionedDocument
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, doc, decoded)
}
