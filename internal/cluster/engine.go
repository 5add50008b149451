// Package cluster groups creator records into merge candidates. Two
// independent passes run over the host's records: a surname pass that
// merges diacritic spellings of one author's surname, and a given-name
// pass that merges abbreviated and extended given-name forms under one
// surname. Both passes are gated by the learning engine's recorded
// rejections before anything is returned, and both are biased toward not
// merging: genuinely different people sharing a surname stay apart.
package cluster

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/nameparse"
	"github.com/milekpl/zotero-ner/internal/observability"
	"github.com/milekpl/zotero-ner/internal/strmetrics"
)

// Engine clusters creator records and assembles suggestions. It is built
// once with its dependencies and holds no per-pass state; callers must not
// run two passes concurrently.
type Engine struct {
	parser *nameparse.Parser
	learn  *learning.Engine
	logger zerolog.Logger
}

// New creates a clustering engine.
func New(parser *nameparse.Parser, learn *learning.Engine, logger zerolog.Logger) *Engine {
	return &Engine{
		parser: parser,
		learn:  learn,
		logger: logger.With().Str("component", "cluster").Logger(),
	}
}

// effectiveRecord is a creator record with its name resolved into given and
// surname parts. Single-field records are parsed; dual-field records pass
// through unchanged.
type effectiveRecord struct {
	first  string
	last   string
	record domain.CreatorRecord
}

// EffectiveName resolves a record into its given and surname parts,
// parsing single-field records the same way the passes do.
func (e *Engine) EffectiveName(rec domain.CreatorRecord) (first, last string) {
	eff := e.effective(rec)
	return eff.first, eff.last
}

func (e *Engine) effective(rec domain.CreatorRecord) effectiveRecord {
	if rec.FieldMode != domain.FieldModeSingle || rec.FirstName != "" {
		return effectiveRecord{
			first:  strings.TrimSpace(rec.FirstName),
			last:   strings.TrimSpace(rec.LastName),
			record: rec,
		}
	}

	parsed := e.parser.Parse(rec.LastName)
	first := parsed.FirstName
	if parsed.MiddleName != "" {
		first = joinName(first, parsed.MiddleName)
	}
	last := parsed.LastName
	if parsed.Prefix != "" {
		last = joinName(parsed.Prefix, last)
	}
	return effectiveRecord{first: first, last: last, record: rec}
}

// Suggestions runs both passes over records and assembles gated, ranked
// merge suggestions. Surname-pass and given-name-pass clusters referencing
// the same surname merge into one combined suggestion.
func (e *Engine) Suggestions(records []domain.CreatorRecord) []domain.Suggestion {
	surname := e.surnameClusters(records)
	given := e.givenNameClusters(records)

	type pending struct {
		surnameClusters []domain.VariantCluster
		givenClusters   []domain.VariantCluster
	}
	byKey := make(map[string]*pending)
	keyOrder := make([]string, 0)
	get := func(key string) *pending {
		p, ok := byKey[key]
		if !ok {
			p = &pending{}
			byKey[key] = p
			keyOrder = append(keyOrder, key)
		}
		return p
	}

	for _, c := range surname {
		if e.skipped(c) {
			continue
		}
		p := get(SurnameKey(c.Surname))
		p.surnameClusters = append(p.surnameClusters, c)
	}
	for _, c := range given {
		if e.skipped(c) {
			continue
		}
		p := get(SurnameKey(c.Surname))
		p.givenClusters = append(p.givenClusters, c)
	}
	sort.Strings(keyOrder)

	var suggestions []domain.Suggestion
	suppressed := 0
	for _, key := range keyOrder {
		p := byKey[key]
		if e.rejected(key, p.surnameClusters, p.givenClusters) {
			suppressed++
			continue
		}

		clusters := make([]domain.VariantCluster, 0, len(p.surnameClusters)+len(p.givenClusters))
		clusters = append(clusters, p.surnameClusters...)
		clusters = append(clusters, p.givenClusters...)

		var typ domain.SuggestionType
		switch {
		case len(p.surnameClusters) > 0 && len(p.givenClusters) > 0:
			typ = domain.SuggestionTypeCombined
		case len(p.surnameClusters) > 0:
			typ = domain.SuggestionTypeSurname
		default:
			typ = domain.SuggestionTypeGivenName
		}

		primary := clusters[0].RecommendedFullName
		variants := variantDisplays(clusters)
		sug := domain.Suggestion{
			ID:         uuid.New(),
			Type:       typ,
			SurnameKey: key,
			Primary:    primary,
			Variants:   variants,
			Similarity: meanSimilarity(primary, variants),
			Clusters:   clusters,
		}
		suggestions = append(suggestions, sug)

		sugLogger := observability.WithSuggestionContext(e.logger, sug.ID.String(), key)
		sugLogger.Debug().
			Str("type", string(typ)).
			Str("primary", primary).
			Int("clusters", len(clusters)).
			Msg("suggestion assembled")
	}

	e.logger.Debug().
		Int("records", len(records)).
		Int("suggestions", len(suggestions)).
		Int("suppressed", suppressed).
		Msg("clustering finished")
	return suggestions
}

func (e *Engine) skipped(c domain.VariantCluster) bool {
	return e.learn.IsSkipped(c.Surname, c.RecommendedFirstName)
}

// rejected applies the all-or-nothing rejection policy: if ANY constituent
// variant pair of any cluster was previously recorded as distinct people,
// the whole suggestion is suppressed. Partial merges confuse more than
// they help.
func (e *Engine) rejected(key string, surnameClusters, givenClusters []domain.VariantCluster) bool {
	for _, c := range surnameClusters {
		if e.anyPairDistinct(c, domain.PairScopeSurname, func(v domain.NameVariant) string { return v.LastName }) {
			return true
		}
	}
	for _, c := range givenClusters {
		if e.anyPairDistinct(c, domain.GivenNamePairScope(key), func(v domain.NameVariant) string { return v.FirstName }) {
			return true
		}
	}
	return false
}

// anyPairDistinct checks every distinct pair of variant spellings in the
// cluster against the recorded rejections for scope. Surname clusters
// compare surname spellings, given-name clusters compare given names.
func (e *Engine) anyPairDistinct(c domain.VariantCluster, scope string, field func(domain.NameVariant) string) bool {
	names := make([]string, 0, len(c.Variants))
	seen := make(map[string]struct{}, len(c.Variants))
	for _, v := range c.Variants {
		s := field(v)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if e.learn.IsDistinctPair(names[i], names[j], scope) {
				return true
			}
		}
	}
	return false
}

func variantDisplays(clusters []domain.VariantCluster) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range clusters {
		for _, name := range c.DisplayNames() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// meanSimilarity is the average Jaro-Winkler similarity between the
// recommended form and each variant, reported to the host as the
// suggestion's confidence signal.
func meanSimilarity(primary string, variants []string) float64 {
	if len(variants) == 0 {
		return 0
	}
	p := strings.ToLower(primary)
	sum := 0.0
	for _, v := range variants {
		sum += strmetrics.Similarity(p, strings.ToLower(v))
	}
	return sum / float64(len(variants))
}
