package generation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/labdraft/backend/internal/domain/entities"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

// SectionAlias maps one observed heading spelling to a canonical section key.
type SectionAlias struct {
	Alias     string
	Canonical string
}

// NormalizerConfig holds the alias and content-policy tables. Immutable after
// construction; there is deliberately no package-level mutable state here so
// deployments can vary policy and tests stay isolated.
type NormalizerConfig struct {
	// Aliases is evaluated in order; the first alias producing a value for a
	// canonical key wins.
	Aliases []SectionAlias

	// Placeholder substitutes missing or invalid section content.
	Placeholder string

	// GenericTitle replaces unusable titles.
	GenericTitle string

	// FallbackTitleMarker identifies titles synthesized by the recoverer's
	// heuristic fallback.
	FallbackTitleMarker string

	// SuspiciousFragments are literal substrings whose presence in a section
	// marks a serialization artifact that leaked through generation.
	SuspiciousFragments []string

	// MaxSectionLength bounds the character count of any required section.
	MaxSectionLength int
}

// DefaultNormalizerConfig returns the stock alias and policy tables.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Aliases: []SectionAlias{
			{"title", entities.SectionTitle},
			{"heading", entities.SectionTitle},
			{"report title", entities.SectionTitle},
			{"abstract", entities.SectionAbstract},
			{"summary", entities.SectionAbstract},
			{"introduction", entities.SectionIntroduction},
			{"intro", entities.SectionIntroduction},
			{"background", entities.SectionIntroduction},
			{"objectives", entities.SectionObjectives},
			{"objective", entities.SectionObjectives},
			{"aims", entities.SectionObjectives},
			{"aim", entities.SectionObjectives},
			{"materials", entities.SectionMaterials},
			{"material", entities.SectionMaterials},
			{"apparatus", entities.SectionMaterials},
			{"equipment", entities.SectionMaterials},
			{"procedures", entities.SectionProcedures},
			{"procedure", entities.SectionProcedures},
			{"experimental procedure", entities.SectionProcedures},
			{"results", entities.SectionResults},
			{"result", entities.SectionResults},
			{"findings", entities.SectionResults},
			{"observations", entities.SectionResults},
			{"discussion", entities.SectionDiscussion},
			{"analysis", entities.SectionDiscussion},
			{"recommendations", entities.SectionRecommendations},
			{"recommendation", entities.SectionRecommendations},
			{"suggestions", entities.SectionRecommendations},
			{"conclusion", entities.SectionConclusion},
			{"conclusions", entities.SectionConclusion},
			{"references", entities.SectionReferences},
			{"reference", entities.SectionReferences},
			{"bibliography", entities.SectionReferences},
			{"citations", entities.SectionReferences},
			// Carried through unaliased; methods may later be renamed to
			// recommendations during completion.
			{"methods", "methods"},
			{"method", "methods"},
			{"methodology", "methods"},
			{"error_note", entities.SectionErrorNote},
			{"error note", entities.SectionErrorNote},
		},
		Placeholder:         "Content for this section could not be generated.",
		GenericTitle:        "Untitled Draft Report",
		FallbackTitleMarker: fallbackTitleMarker,
		SuspiciousFragments: []string{"[object Object]", "[Object object]", "undefined", "NaN"},
		MaxSectionLength:    10000,
	}
}

// Normalizer maps a recovered raw section map onto the canonical section set.
// It only fails when even its own safe-fallback document violates the content
// policy, which is an invariant violation rather than a runtime expectation.
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer creates a normalizer with the given tables.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// headingNoiseRe strips list numbering, markdown markers and section prefixes
// from observed heading spellings.
var headingNoiseRe = regexp.MustCompile(`^(?:[#*\s]*)(?:section\s+)?(?:[0-9]+[.)]?\s*)?`)

func canonicalizeHeading(key string) string {
	cleaned := strings.ToLower(strings.TrimSpace(key))
	cleaned = headingNoiseRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimRight(cleaned, ": ")
	return strings.TrimSpace(cleaned)
}

// Normalize resolves aliases, completes the required canonical key set and
// validates content policy, substituting the safe-fallback document when
// validation fails.
func (n *Normalizer) Normalize(raw entities.RawSectionMap) (entities.SectionedDocument, error) {
	resolved := n.resolveAliases(raw)
	doc := n.completeRequiredKeys(resolved)
	n.fixTitle(doc)

	violations := n.validate(doc)
	if len(violations) == 0 {
		return doc, nil
	}

	failed := n.validationFailedDocument(violations)
	if second := n.validate(failed); len(second) > 0 {
		return nil, apperrors.NewUnrecoverableContentError(
			fmt.Sprintf("safe fallback document failed validation: %s", strings.Join(second, "; ")))
	}
	return failed, nil
}

// resolveAliases maps observed heading spellings to canonical keys. The alias
// table is walked in order and the first match for a canonical key wins;
// already-canonical raw keys are preserved when no alias claimed their slot.
func (n *Normalizer) resolveAliases(raw entities.RawSectionMap) map[string]any {
	canonicalOf := make(map[string]string, len(raw))
	for key := range raw {
		canonicalOf[key] = canonicalizeHeading(key)
	}

	resolved := make(map[string]any, len(raw))
	for _, alias := range n.cfg.Aliases {
		if _, taken := resolved[alias.Canonical]; taken {
			continue
		}
		for key, cleaned := range canonicalOf {
			if cleaned == alias.Alias {
				resolved[alias.Canonical] = raw[key]
				break
			}
		}
	}
	for key, cleaned := range canonicalOf {
		if _, taken := resolved[cleaned]; !taken && isCanonicalKey(cleaned) {
			resolved[cleaned] = raw[key]
		}
	}
	return resolved
}

func isCanonicalKey(key string) bool {
	for _, k := range entities.OrderedSectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// completeRequiredKeys builds the full canonical document, substituting the
// placeholder for any required key that is missing, empty or not text.
func (n *Normalizer) completeRequiredKeys(resolved map[string]any) entities.SectionedDocument {
	// A methods-named value fills the recommendations slot when nothing
	// claimed it.
	if methods, ok := textValue(resolved["methods"]); ok {
		if _, has := textValue(resolved[entities.SectionRecommendations]); !has {
			resolved[entities.SectionRecommendations] = methods
		}
	}

	doc := entities.SectionedDocument{}
	for _, key := range entities.RequiredSectionKeys {
		if value, ok := textValue(resolved[key]); ok {
			doc[key] = value
		} else {
			doc[key] = n.cfg.Placeholder
		}
	}

	if value, ok := textValue(resolved[entities.SectionAbstract]); ok {
		doc[entities.SectionAbstract] = value
	} else {
		doc[entities.SectionAbstract] = n.cfg.Placeholder
	}
	if value, ok := textValue(resolved[entities.SectionErrorNote]); ok {
		doc[entities.SectionErrorNote] = value
	}
	return doc
}

func textValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// fixTitle replaces unusable titles, including the recoverer's fallback
// placeholder, with the generic title.
func (n *Normalizer) fixTitle(doc entities.SectionedDocument) {
	title := strings.TrimSpace(doc[entities.SectionTitle])
	if title == "" || title == n.cfg.Placeholder ||
		(n.cfg.FallbackTitleMarker != "" && strings.Contains(title, n.cfg.FallbackTitleMarker)) {
		doc[entities.SectionTitle] = n.cfg.GenericTitle
	}
}

// validate checks every required section against the content policy and
// returns the list of violations.
func (n *Normalizer) validate(doc entities.SectionedDocument) []string {
	var violations []string
	for _, key := range entities.RequiredSectionKeys {
		text, ok := doc[key]
		if !ok || strings.TrimSpace(text) == "" {
			violations = append(violations, fmt.Sprintf("section %q is empty", key))
			continue
		}
		if len(text) > n.cfg.MaxSectionLength {
			violations = append(violations, fmt.Sprintf("section %q exceeds %d characters", key, n.cfg.MaxSectionLength))
		}
		for _, fragment := range n.cfg.SuspiciousFragments {
			if strings.Contains(text, fragment) {
				violations = append(violations, fmt.Sprintf("section %q contains suspicious fragment %q", key, fragment))
			}
		}
	}
	return violations
}

// validationFailedDocument is the canonical safe document substituted when
// content validation fails.
func (n *Normalizer) validationFailedDocument(violations []string) entities.SectionedDocument {
	doc := entities.SectionedDocument{}
	for _, key := range entities.RequiredSectionKeys {
		doc[key] = n.cfg.Placeholder
	}
	doc[entities.SectionAbstract] = n.cfg.Placeholder
	doc[entities.SectionErrorNote] = "Content validation failed: " + strings.Join(violations, "; ")
	return doc
}
