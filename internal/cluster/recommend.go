package cluster

import "strings"

// recommendFirstName composes the canonical given-name form for a
// component: the strongest base word, then the union of extra words, then
// whatever initials remain unexplained, each as "X.".
func recommendFirstName(component []*givenVariant) string {
	base, baseKey := selectBaseWord(component)

	// Extra words and initials in first-appearance order, excluding
	// anything the base word or an extra word already accounts for.
	covered := map[string]struct{}{}
	if baseKey != "" {
		covered[string([]rune(baseKey)[0])] = struct{}{}
	}

	var extras []string
	seenExtra := map[string]struct{}{baseKey: {}}
	for _, v := range component {
		// Each variant's first content word is its own base candidate, not
		// an extra word.
		baseSeen := false
		for _, tok := range v.tokens {
			if tok.isInitial {
				continue
			}
			if !baseSeen {
				baseSeen = true
				continue
			}
			if _, ok := seenExtra[tok.text]; ok {
				continue
			}
			seenExtra[tok.text] = struct{}{}
			extras = append(extras, tok.display)
			covered[string([]rune(tok.text)[0])] = struct{}{}
		}
	}

	var initials []string
	for _, v := range component {
		for _, tok := range v.tokens {
			if !tok.isInitial {
				continue
			}
			if _, ok := covered[tok.text]; ok {
				continue
			}
			covered[tok.text] = struct{}{}
			initials = append(initials, strings.ToUpper(tok.display)+".")
		}
	}

	parts := make([]string, 0, 1+len(extras)+len(initials))
	if base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, extras...)
	parts = append(parts, initials...)
	return strings.Join(parts, " ")
}

// selectBaseWord picks the component's strongest leading word: the first
// content word backed by the most occurrences, longer words breaking count
// ties and lexicographic order breaking length ties. A real word always
// outranks a bare initial, so an all-initial component yields no base word.
func selectBaseWord(component []*givenVariant) (display, key string) {
	counts := map[string]int{}
	displays := map[string]string{}
	order := make([]string, 0)

	for _, v := range component {
		for _, tok := range v.tokens {
			if tok.isInitial {
				continue
			}
			if _, ok := counts[tok.text]; !ok {
				order = append(order, tok.text)
				displays[tok.text] = tok.display
			}
			counts[tok.text] += v.variant.Occurrences
			break
		}
	}

	best := ""
	for _, word := range order {
		if best == "" {
			best = word
			continue
		}
		switch {
		case counts[word] > counts[best]:
			best = word
		case counts[word] == counts[best] && len(word) > len(best):
			best = word
		case counts[word] == counts[best] && len(word) == len(best) && word < best:
			best = word
		}
	}
	if best == "" {
		return "", ""
	}
	return displays[best], best
}
