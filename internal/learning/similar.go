package learning

import (
	"sort"
	"strings"

	"github.com/milekpl/zotero-ner/internal/strmetrics"
)

// Match is a stored mapping whose key scored above the confidence
// threshold against a queried name.
type Match struct {
	Key        string  `json:"key"`
	Normalized string  `json:"normalized"`
	Confidence float64 `json:"confidence"`
	UsageCount int     `json:"usage_count"`
}

const (
	// diacriticVariantScore is assigned when two keys differ only in
	// diacritics. It outranks any blended score below a near-exact match.
	diacriticVariantScore = 0.95

	// minLengthRatio prunes candidates whose key length differs too much
	// from the query to plausibly be the same name.
	minLengthRatio = 0.5

	// lowSimilarityFloor marks Jaro-Winkler scores too weak for the word
	// and initial components to rescue.
	lowSimilarityFloor = 0.3
)

// FindSimilar returns stored mappings whose canonical keys resemble raw,
// best first. Scores blend Jaro-Winkler similarity with word overlap and
// an initial-aware component; keys differing only in diacritics always
// score as near-exact matches.
func (e *Engine) FindSimilar(raw string) []Match {
	query := e.CanonicalKey(raw)
	if query == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	matches := make([]Match, 0, e.cfg.MaxSuggestions)
	for key, m := range e.mappings {
		if key == query {
			continue
		}
		score := e.similarityScore(query, key)
		if score < e.cfg.ConfidenceThreshold {
			continue
		}
		matches = append(matches, Match{
			Key:        key,
			Normalized: m.Normalized,
			Confidence: score,
			UsageCount: m.UsageCount,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].UsageCount > matches[j].UsageCount
	})
	if len(matches) > e.cfg.MaxSuggestions {
		matches = matches[:e.cfg.MaxSuggestions]
	}
	return matches
}

func (e *Engine) similarityScore(query, key string) float64 {
	cacheKey := query + "\x00" + key
	if score, ok := e.simCache.Get(cacheKey); ok {
		return score
	}
	score := blendedSimilarity(query, key)
	e.simCache.Put(cacheKey, score)
	return score
}

func blendedSimilarity(a, b string) float64 {
	la, lb := len(a), len(b)
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer == 0 || float64(shorter)/float64(longer) < minLengthRatio {
		return 0
	}

	if strmetrics.IsDiacriticOnlyVariant(a, b) {
		return diacriticVariantScore
	}

	jw := strmetrics.Similarity(a, b)
	if jw < lowSimilarityFloor {
		return jw * 0.5
	}
	return 0.5*jw + 0.3*wordOverlap(a, b) + 0.2*initialAwareScore(a, b)
}

// wordOverlap is the share of words the longer name has in common with the
// shorter one.
func wordOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	shared := 0
	for _, w := range wordsB {
		if _, ok := setA[w]; ok {
			shared++
		}
	}
	longer := len(wordsA)
	if len(wordsB) > longer {
		longer = len(wordsB)
	}
	return float64(shared) / float64(longer)
}

// initialAwareScore compares names that may abbreviate given names to
// initials. The last word anchors the comparison: when surnames differ the
// score is zero regardless of the given names.
func initialAwareScore(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	if wordsA[len(wordsA)-1] != wordsB[len(wordsB)-1] {
		return 0
	}
	if len(wordsA) == 1 || len(wordsB) == 1 {
		// One side is a bare surname.
		return 0.7
	}

	firstA, firstB := wordsA[0], wordsB[0]
	switch {
	case firstA == firstB:
		return 1.0
	case initialsCompatible(firstA, firstB):
		return 0.9
	default:
		return 0.3
	}
}

// initialsCompatible reports whether one first name abbreviates the other,
// e.g. "j" against "john".
func initialsCompatible(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) == 1 || len(b) == 1 {
		return a[0] == b[0]
	}
	return false
}
