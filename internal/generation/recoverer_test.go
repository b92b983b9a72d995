package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/domain/entities"
)

func newDefaultRecoverer() *Recoverer {
	return NewRecoverer(DefaultRecovererConfig())
}

func TestRecover_FencedJSONObject(t *testing.T) {
	raw := "```json\n{\"Title\":\"X\"}\n```"

	m := newDefaultRecoverer().Recover(raw)

	require.Contains(t, m, "Title")
	assert.Equal(t, "X", m["Title"])
	assert.NotContains(t, m, entities.SectionErrorNote)
}

func TestRecover_BareObject(t *testing.T) {
	m := newDefaultRecoverer().Recover(`{"title":"Bare","results":"ok"}`)

	assert.Equal(t, "Bare", m["title"])
	assert.Equal(t, "ok", m["results"])
}

func TestRecover_OnlyBraceSpanStrategyParses(t *testing.T) {
	// Prose prefix defeats strategy 1 (which wants a fenced or bare object)
	// and the URL's double slash makes strategy 2's comment stripping destroy
	// the closing brace. Only the plain brace-span slice can parse this.
	raw := `Here is your draft: {"title":"X","references":"see https://example.com/protocols"} hope it helps!`

	m := newDefaultRecoverer().Recover(raw)

	assert.Equal(t, "X", m["title"])
	assert.Equal(t, "see https://example.com/protocols", m["references"])
	// The heuristic fallback was not reached and strategy 4's repairs were
	// not applied: the URL survives untouched and no error note was added.
	assert.NotContains(t, m, entities.SectionErrorNote)
}

func TestRecover_AggressiveStripRemovesComments(t *testing.T) {
	raw := "```js\n{\n  \"title\": \"Commented\", // model chatter\n  \"results\": \"fine\"\n}\n```"

	m := newDefaultRecoverer().Recover(raw)

	assert.Equal(t, "Commented", m["title"])
	assert.Equal(t, "fine", m["results"])
}

func TestRecover_SyntacticRepair(t *testing.T) {
	raw := `{title: "Repaired", status: draft pending,}`

	m := newDefaultRecoverer().Recover(raw)

	assert.Equal(t, "Repaired", m["title"])
	assert.Equal(t, "draft pending", m["status"])
}

func TestRecover_ProseFallsBackToHeuristics(t *testing.T) {
	raw := "I could not produce JSON this time.\n" +
		"Title: Thermal Expansion Study\n" +
		"Results: The rod expanded by 0.4mm.\n" +
		"Conclusion: Expansion matched prediction."

	m := newDefaultRecoverer().Recover(raw)

	assert.Equal(t, "Thermal Expansion Study", m[entities.SectionTitle])
	assert.Equal(t, "The rod expanded by 0.4mm.", m[entities.SectionResults])
	assert.Equal(t, "Expansion matched prediction.", m[entities.SectionConclusion])
	assert.NotEmpty(t, m[entities.SectionErrorNote])
}

func TestRecover_ProseWithoutBraces_AlwaysNonEmpty(t *testing.T) {
	m := newDefaultRecoverer().Recover("plain prose with no structure at all")

	require.NotEmpty(t, m)
	title, ok := m[entities.SectionTitle].(string)
	require.True(t, ok)
	assert.Contains(t, title, fallbackTitleMarker)
	assert.NotEmpty(t, m[entities.SectionErrorNote])
}

func TestRecover_ArrayRejected(t *testing.T) {
	// A top-level array is not a section map; the fallback must take over.
	m := newDefaultRecoverer().Recover(`["title", "results"]`)

	assert.Contains(t, m, entities.SectionErrorNote)
}

func TestRecover_EmptyInput(t *testing.T) {
	m := newDefaultRecoverer().Recover("")

	require.NotEmpty(t, m)
	assert.Contains(t, m, entities.SectionTitle)
	assert.Contains(t, m, entities.SectionErrorNote)
}
