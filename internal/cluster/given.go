package cluster

import (
	"sort"
	"strings"

	"github.com/milekpl/zotero-ner/internal/domain"
)

// givenVariant is one distinct given-name spelling within a surname group,
// with its aggregated occurrences and derived clustering signature.
type givenVariant struct {
	given   string
	tokens  []nameToken
	sig     tokenSignature
	variant domain.NameVariant
}

func (v *givenVariant) bare() bool {
	return v.sig.empty()
}

// givenNameClusters is the given-name pass: within each surname group, find
// given-name spellings that plausibly abbreviate or extend one another
// ("J." / "Jerry" / "Jerry A.") while keeping genuinely different given
// names apart ("Alex" / "Andrea").
func (e *Engine) givenNameClusters(records []domain.CreatorRecord) []domain.VariantCluster {
	type surnameGroup struct {
		spellings []string
		variants  []domain.NameVariant
		byGiven   map[string]*givenVariant
		order     []string
	}
	groups := make(map[string]*surnameGroup)
	groupOrder := make([]string, 0)

	for _, rec := range records {
		eff := e.effective(rec)
		if eff.first == "" || eff.last == "" {
			continue
		}
		key := SurnameKey(eff.last)
		g, ok := groups[key]
		if !ok {
			g = &surnameGroup{byGiven: make(map[string]*givenVariant)}
			groups[key] = g
			groupOrder = append(groupOrder, key)
		}
		if !containsString(g.spellings, eff.last) {
			g.spellings = append(g.spellings, eff.last)
		}

		v, ok := g.byGiven[eff.first]
		if !ok {
			tokens := decompose(eff.first)
			g.byGiven[eff.first] = &givenVariant{
				given:  eff.first,
				tokens: tokens,
				sig:    signatureOf(tokens),
				variant: domain.NameVariant{
					FirstName:   eff.first,
					LastName:    eff.last,
					Occurrences: rec.OccurrenceCount,
					Items:       rec.Items,
				},
			}
			g.order = append(g.order, eff.first)
		} else {
			v.variant.Occurrences += rec.OccurrenceCount
			v.variant.Items = append(v.variant.Items, rec.Items...)
		}
		g.variants = append(g.variants, domain.NameVariant{
			LastName:    eff.last,
			Occurrences: rec.OccurrenceCount,
		})
	}
	sort.Strings(groupOrder)

	var clusters []domain.VariantCluster
	for _, key := range groupOrder {
		g := groups[key]
		surname := dominantSpelling(g.spellings, g.variants, func(v domain.NameVariant) string { return v.LastName })

		variants := make([]*givenVariant, 0, len(g.order))
		for _, given := range g.order {
			variants = append(variants, g.byGiven[given])
		}
		clusters = append(clusters, e.surnameGroupClusters(surname, variants)...)
	}
	return clusters
}

// surnameGroupClusters buckets one surname's given names and clusters each
// bucket's members by token-signature overlap.
func (e *Engine) surnameGroupClusters(surname string, variants []*givenVariant) []domain.VariantCluster {
	buckets := make(map[string][]*givenVariant)
	bucketOrder := make([]string, 0)
	put := func(key string, v *givenVariant) {
		if _, ok := buckets[key]; !ok {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], v)
	}

	for _, v := range variants {
		put(bucketKey(v.tokens), v)
	}

	mergeInitialBuckets(buckets, &bucketOrder)

	var clusters []domain.VariantCluster
	for _, key := range bucketOrder {
		members := buckets[key]
		if members == nil || len(members) < 2 {
			continue
		}
		for _, component := range partition(members) {
			if len(component) < 2 {
				continue
			}
			clusters = append(clusters, buildCluster(surname, component))
		}
	}
	return clusters
}

// bucketKey normalizes a given name to its bucket identity. All-initial
// names key as "init:" plus their letters; everything else keys on the
// first content word after nickname mapping.
func bucketKey(tokens []nameToken) string {
	if len(tokens) == 0 {
		return ""
	}
	allInitials := true
	for _, tok := range tokens {
		if !tok.isInitial {
			allInitials = false
			break
		}
	}
	if allInitials {
		letters := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			letters = append(letters, tok.text)
		}
		return "init:" + strings.Join(letters, "")
	}
	for _, tok := range tokens {
		if !tok.isInitial {
			return nicknameKey(tok.text)
		}
	}
	return ""
}

// mergeInitialBuckets folds each "init:" bucket into the best-matching
// full-name bucket: prefer a bucket whose key starts with the whole initial
// sequence, otherwise fall back to a leading-letter match. Among candidates
// the bucket with the highest aggregate occurrence count wins, ties going
// to the lexicographically smaller key.
func mergeInitialBuckets(buckets map[string][]*givenVariant, order *[]string) {
	for _, initKey := range *order {
		letters, ok := strings.CutPrefix(initKey, "init:")
		if !ok || letters == "" {
			continue
		}

		target := findTargetBucket(buckets, func(key string) bool {
			return strings.HasPrefix(key, letters)
		})
		if target == "" {
			target = findTargetBucket(buckets, func(key string) bool {
				return key[0] == letters[0]
			})
		}
		if target == "" {
			continue
		}
		buckets[target] = append(buckets[target], buckets[initKey]...)
		buckets[initKey] = nil
	}
}

func findTargetBucket(buckets map[string][]*givenVariant, match func(string) bool) string {
	best := ""
	bestCount := -1
	for key, members := range buckets {
		if members == nil || strings.HasPrefix(key, "init:") || key == "" || !match(key) {
			continue
		}
		count := 0
		for _, v := range members {
			count += v.variant.Occurrences
		}
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best
}

// partition splits a bucket into same-person components. Signed variants
// join when their signatures overlap; bare variants (base word only) are
// folded into the highest-frequency signed component afterwards, on the
// assumption that a bare name is a terser form of the main candidate. Ties
// between equally frequent components break lexicographically on the
// component's recommended form.
func partition(members []*givenVariant) [][]*givenVariant {
	uf := newUnionFind(len(members))
	for i := 0; i < len(members); i++ {
		if members[i].bare() {
			continue
		}
		for j := i + 1; j < len(members); j++ {
			if members[j].bare() {
				continue
			}
			if members[i].sig.overlaps(members[j].sig) {
				uf.union(i, j)
			}
		}
	}

	var signed [][]*givenVariant
	var bare []*givenVariant
	for _, idxs := range uf.components() {
		component := make([]*givenVariant, 0, len(idxs))
		for _, i := range idxs {
			component = append(component, members[i])
		}
		if len(component) == 1 && component[0].bare() {
			bare = append(bare, component[0])
			continue
		}
		signed = append(signed, component)
	}

	if len(signed) == 0 {
		// Nothing carries a signature. The bucket key already asserts the
		// variants share a base name (nickname-mapped), so distinct bare
		// spellings cluster together directly.
		if len(bare) >= 2 {
			return [][]*givenVariant{bare}
		}
		return nil
	}

	for _, v := range bare {
		best := -1
		bestFreq := -1
		bestForm := ""
		for i, component := range signed {
			freq := 0
			for _, m := range component {
				freq += m.variant.Occurrences
			}
			form := recommendFirstName(component)
			if freq > bestFreq || (freq == bestFreq && form < bestForm) {
				best = i
				bestFreq = freq
				bestForm = form
			}
		}
		signed[best] = append(signed[best], v)
	}
	return signed
}

func buildCluster(surname string, component []*givenVariant) domain.VariantCluster {
	variants := make([]domain.NameVariant, 0, len(component))
	for _, v := range component {
		variants = append(variants, v.variant)
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Occurrences > variants[j].Occurrences
	})

	first := recommendFirstName(component)
	return domain.VariantCluster{
		Surname:              surname,
		Variants:             variants,
		RecommendedFirstName: first,
		RecommendedSurname:   surname,
		RecommendedFullName:  joinName(first, surname),
	}
}
