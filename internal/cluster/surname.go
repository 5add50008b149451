package cluster

import (
	"sort"
	"strings"

	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/strmetrics"
)

// surnameClusters is the surname pass: within one author's records, find
// surname spellings that differ only in diacritics. Records are bucketed by
// normalized given name first, so surnames are only merged inside the same
// person's records. Two unrelated people who happen to share a surname
// never end up in the same bucket.
func (e *Engine) surnameClusters(records []domain.CreatorRecord) []domain.VariantCluster {
	type authorBucket struct {
		records []effectiveRecord
	}
	buckets := make(map[string]*authorBucket)
	bucketOrder := make([]string, 0)

	for _, rec := range records {
		eff := e.effective(rec)
		if eff.last == "" {
			continue
		}
		key := learning.Canonicalize(eff.first)
		b, ok := buckets[key]
		if !ok {
			b = &authorBucket{}
			buckets[key] = b
			bucketOrder = append(bucketOrder, key)
		}
		b.records = append(b.records, eff)
	}
	sort.Strings(bucketOrder)

	var clusters []domain.VariantCluster
	for _, key := range bucketOrder {
		clusters = append(clusters, e.surnameBucketClusters(buckets[key].records)...)
	}
	return clusters
}

// surnameBucketClusters clusters one author bucket's surnames by
// diacritic-folded equality and emits a cluster for every folded group with
// at least two distinct raw spellings.
func (e *Engine) surnameBucketClusters(records []effectiveRecord) []domain.VariantCluster {
	type foldGroup struct {
		spellings []string
		byName    map[string]*domain.NameVariant
		order     []string
	}
	groups := make(map[string]*foldGroup)
	groupOrder := make([]string, 0)

	for _, rec := range records {
		folded := SurnameKey(rec.last)
		g, ok := groups[folded]
		if !ok {
			g = &foldGroup{byName: make(map[string]*domain.NameVariant)}
			groups[folded] = g
			groupOrder = append(groupOrder, folded)
		}
		if !containsString(g.spellings, rec.last) {
			g.spellings = append(g.spellings, rec.last)
		}

		display := rec.record.DisplayName()
		v, ok := g.byName[display]
		if !ok {
			g.byName[display] = &domain.NameVariant{
				FirstName:   rec.first,
				LastName:    rec.last,
				Occurrences: rec.record.OccurrenceCount,
				Items:       rec.record.Items,
			}
			g.order = append(g.order, display)
			continue
		}
		v.Occurrences += rec.record.OccurrenceCount
		v.Items = append(v.Items, rec.record.Items...)
	}

	var clusters []domain.VariantCluster
	for _, folded := range groupOrder {
		g := groups[folded]
		if len(g.spellings) < 2 {
			continue
		}

		variants := make([]domain.NameVariant, 0, len(g.order))
		for _, display := range g.order {
			variants = append(variants, *g.byName[display])
		}

		surname := dominantSpelling(g.spellings, variants, func(v domain.NameVariant) string { return v.LastName })
		first := dominantFirstName(variants)
		clusters = append(clusters, domain.VariantCluster{
			Surname:              surname,
			Variants:             variants,
			RecommendedFirstName: first,
			RecommendedSurname:   surname,
			RecommendedFullName:  joinName(first, surname),
		})
	}
	return clusters
}

// SurnameKey is the clustering identity of a surname: diacritic-folded and
// lowercased.
func SurnameKey(surname string) string {
	return strings.ToLower(strmetrics.FoldDiacritics(strings.TrimSpace(surname)))
}

// dominantSpelling picks the recommended spelling: highest total occurrence
// count, ties broken by first-seen order.
func dominantSpelling(spellings []string, variants []domain.NameVariant, field func(domain.NameVariant) string) string {
	totals := make(map[string]int, len(spellings))
	for _, v := range variants {
		totals[field(v)] += v.Occurrences
	}
	best := ""
	bestCount := -1
	for _, s := range spellings {
		if totals[s] > bestCount {
			best = s
			bestCount = totals[s]
		}
	}
	return best
}

func dominantFirstName(variants []domain.NameVariant) string {
	spellings := make([]string, 0, len(variants))
	for _, v := range variants {
		if !containsString(spellings, v.FirstName) {
			spellings = append(spellings, v.FirstName)
		}
	}
	return dominantSpelling(spellings, variants, func(v domain.NameVariant) string { return v.FirstName })
}

func joinName(first, last string) string {
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
