package generation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/labdraft/backend/internal/domain/entities"
)

// fallbackTitleMarker tags titles synthesized by the heuristic fallback so the
// normalizer can recognize and replace them later.
const fallbackTitleMarker = "[unstructured output]"

// fallbackErrorNote describes degraded generation in the recovered document.
const fallbackErrorNote = "The generation service returned unstructured text. Sections were recovered heuristically and may be incomplete."

// FallbackPattern pairs a section key with the case-insensitive pattern used
// to hunt for it in free text.
type FallbackPattern struct {
	Key     string
	Pattern *regexp.Regexp
}

// RecovererConfig holds the heuristic fallback tables. Injected at
// construction so deployments can vary the patterns and tests stay isolated.
type RecovererConfig struct {
	FallbackPatterns  []FallbackPattern
	FallbackTitle     string
	FallbackErrorNote string
}

// DefaultRecovererConfig returns the stock fallback tables.
func DefaultRecovererConfig() RecovererConfig {
	section := func(key, names string) FallbackPattern {
		return FallbackPattern{
			Key:     key,
			Pattern: regexp.MustCompile(`(?im)^\s*(?:` + names + `)\s*[:\-]\s*(.+)$`),
		}
	}
	return RecovererConfig{
		FallbackPatterns: []FallbackPattern{
			section(entities.SectionTitle, `title|heading`),
			section(entities.SectionAbstract, `abstract|summary`),
			section(entities.SectionIntroduction, `introduction|intro`),
			section("methods", `methods?|methodology`),
			section(entities.SectionResults, `results?`),
			section(entities.SectionDiscussion, `discussion`),
			section(entities.SectionConclusion, `conclusion`),
		},
		FallbackTitle:     "Draft Report " + fallbackTitleMarker,
		FallbackErrorNote: fallbackErrorNote,
	}
}

// Recoverer turns raw model output into a best-effort key/value map through a
// strict cascade of increasingly aggressive repair strategies. It never fails:
// when no strategy yields a parseable object it falls back to heuristic
// regex extraction over the raw text.
type Recoverer struct {
	cfg        RecovererConfig
	strategies []func(string) (entities.RawSectionMap, bool)
}

// NewRecoverer creates a recoverer with the given fallback tables.
func NewRecoverer(cfg RecovererConfig) *Recoverer {
	return &Recoverer{
		cfg: cfg,
		strategies: []func(string) (entities.RawSectionMap, bool){
			recoverFencedObject,
			recoverAggressiveStrip,
			recoverBraceSpan,
			recoverSyntacticRepair,
		},
	}
}

// Recover applies each strategy in order and stops at the first one that
// yields a structurally valid object. All four failing, it returns the
// heuristic fallback map, which is never empty.
func (r *Recoverer) Recover(rawText string) entities.RawSectionMap {
	for _, strategy := range r.strategies {
		if m, ok := strategy(rawText); ok {
			return m
		}
	}
	return r.heuristicFallback(rawText)
}

var (
	fenceOpenRe   = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	fenceAnyRe    = regexp.MustCompile("```[a-zA-Z]*")
	greedyBraceRe = regexp.MustCompile(`(?s)\{.*\}`)
	lineCommentRe = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_ ]*?)\s*:`)
	bareValueRe     = regexp.MustCompile(`:\s*([A-Za-z][^",{}\[\]\n]*?)\s*([,}])`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// parseObject accepts candidate text only when it parses to a JSON object;
// arrays and scalars are rejected.
func parseObject(candidate string) (entities.RawSectionMap, bool) {
	if strings.TrimSpace(candidate) == "" {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, false
	}
	return entities.RawSectionMap(obj), true
}

// Strategy 1: strip code-fence markers and take the greedy brace-bounded
// block. Targets the common case of a fenced or bare JSON object; output
// buried in surrounding prose is left to later strategies.
func recoverFencedObject(raw string) (entities.RawSectionMap, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, false
	}
	return parseObject(greedyBraceRe.FindString(cleaned))
}

// Strategy 2: aggressive strip — any fence with a language tag, inline and
// block comments — then bound to the first/last-brace span.
func recoverAggressiveStrip(raw string) (entities.RawSectionMap, bool) {
	cleaned := fenceAnyRe.ReplaceAllString(raw, "")
	cleaned = blockCommentRe.ReplaceAllString(cleaned, "")
	cleaned = lineCommentRe.ReplaceAllString(cleaned, "")
	return parseObject(braceSpan(cleaned))
}

// Strategy 3: slice between the literal first '{' and last '}', ignoring
// everything outside.
func recoverBraceSpan(raw string) (entities.RawSectionMap, bool) {
	return parseObject(braceSpan(raw))
}

// Strategy 4: syntactic repair — quote bare keys and bare scalar values,
// strip trailing commas — then re-bound to a brace span.
func recoverSyntacticRepair(raw string) (entities.RawSectionMap, bool) {
	repaired := bareKeyRe.ReplaceAllString(raw, `$1"$2":`)
	repaired = bareValueRe.ReplaceAllString(repaired, `: "$1"$2`)
	repaired = trailingCommaRe.ReplaceAllString(repaired, `$1`)
	return parseObject(braceSpan(repaired))
}

func braceSpan(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return ""
	}
	return s[first : last+1]
}

// heuristicFallback runs independent regex searches for each known section
// name over the raw text. Sections not found stay absent; the normalizer
// fills canonical gaps later. The result always carries a title and an
// error note describing the degraded generation.
func (r *Recoverer) heuristicFallback(rawText string) entities.RawSectionMap {
	out := entities.RawSectionMap{}
	for _, fp := range r.cfg.FallbackPatterns {
		match := fp.Pattern.FindStringSubmatch(rawText)
		if len(match) > 1 {
			if value := strings.TrimSpace(match[1]); value != "" {
				out[fp.Key] = value
			}
		}
	}
	if _, ok := out[entities.SectionTitle]; !ok {
		out[entities.SectionTitle] = r.cfg.FallbackTitle
	}
	out[entities.SectionErrorNote] = r.cfg.FallbackErrorNote
	return out
}
