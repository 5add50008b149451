// Package strmetrics provides string distance and similarity primitives for
// name comparison: bounded edit distance, Jaro-Winkler similarity, and
// diacritic folding.
//
// All functions are pure, which allows callers to cache results aggressively.
package strmetrics

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// winklerPrefixCap is the maximum common-prefix length rewarded by the
// Winkler bonus.
const winklerPrefixCap = 4

// winklerPrefixWeight is the bonus weight per matching prefix character.
const winklerPrefixWeight = 0.1

// Distance returns the Levenshtein edit distance between a and b.
func Distance(a, b string) int {
	return DistanceWithin(a, b, -1)
}

// DistanceWithin returns the Levenshtein edit distance between a and b,
// computed with a two-row dynamic program. When maxDistance >= 0 and every
// value in the current row exceeds it, the computation stops early and
// maxDistance+1 is returned as a sentinel.
func DistanceWithin(a, b string, maxDistance int) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return boundResult(len(rb), maxDistance)
	}
	if len(rb) == 0 {
		return boundResult(len(ra), maxDistance)
	}

	// A length gap alone already forces at least that many edits.
	if maxDistance >= 0 {
		gap := len(ra) - len(rb)
		if gap < 0 {
			gap = -gap
		}
		if gap > maxDistance {
			return maxDistance + 1
		}
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := prev[j-1] + cost
			if del := prev[j] + 1; del < d {
				d = del
			}
			if ins := curr[j-1] + 1; ins < d {
				d = ins
			}
			curr[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if maxDistance >= 0 && rowMin > maxDistance {
			return maxDistance + 1
		}
		prev, curr = curr, prev
	}

	return boundResult(prev[len(rb)], maxDistance)
}

func boundResult(d, maxDistance int) int {
	if maxDistance >= 0 && d > maxDistance {
		return maxDistance + 1
	}
	return d
}

// Similarity returns the Jaro-Winkler similarity of a and b in [0, 1].
// The matching window is floor(max(len)/2)-1, transpositions are counted
// per the Jaro definition, and a common prefix of up to four characters
// adds a bonus of 0.1 per character.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	window := len(ra)
	if len(rb) > window {
		window = len(rb)
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(ra))
	matchedB := make([]bool, len(rb))
	matches := 0

	for i := range ra {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(rb) {
			hi = len(rb)
		}
		for j := lo; j < hi; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := range ra {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	jaro := (m/float64(len(ra)) + m/float64(len(rb)) + (m-float64(transpositions)/2)/m) / 3

	prefix := 0
	for i := 0; i < len(ra) && i < len(rb) && i < winklerPrefixCap; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}

	return jaro + float64(prefix)*winklerPrefixWeight*(1-jaro)
}

// NormalizedEditSimilarity returns 1 - distance/max(len) for strings whose
// length ratio min(len)/max(len) is at least threshold, and 0 otherwise.
// The short circuit avoids the edit-distance computation for obviously
// dissimilar pairs.
func NormalizedEditSimilarity(a, b string, threshold float64) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	minLen, maxLen := la, lb
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	if float64(minLen)/float64(maxLen) < threshold {
		return 0
	}
	d := Distance(a, b)
	return 1 - float64(d)/float64(maxLen)
}

// foldExpansions maps characters whose canonical decomposition does not
// produce the conventional transliteration used in bibliographies.
var foldExpansions = map[rune]string{
	'ä': "ae", 'Ä': "Ae",
	'ö': "oe", 'Ö': "Oe",
	'ü': "ue", 'Ü': "Ue",
	'ł': "l", 'Ł': "L",
	'ß': "ss",
	'ø': "o", 'Ø': "O",
	'đ': "d", 'Đ': "D",
}

// FoldDiacritics returns s with diacritics removed: explicit expansions
// first (ä→ae, ö→oe, ü→ue, ł→l, ...), then canonical decomposition with
// combining marks stripped.
func FoldDiacritics(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if exp, ok := foldExpansions[r]; ok {
			sb.WriteString(exp)
			continue
		}
		sb.WriteRune(r)
	}
	decomposed := norm.NFD.String(sb.String())

	var out strings.Builder
	out.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// IsDiacriticOnlyVariant reports whether a and b are equal once diacritics
// are folded away.
func IsDiacriticOnlyVariant(a, b string) bool {
	return FoldDiacritics(a) == FoldDiacritics(b)
}
