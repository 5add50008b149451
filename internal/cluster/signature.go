package cluster

import (
	"strings"
	"unicode"
)

// nameToken is one word or initial of a given name.
type nameToken struct {
	// text is the token lowercased with periods stripped.
	text string
	// display is the token as it appeared, without a trailing period.
	display   string
	isInitial bool
}

// decompose splits a given name into ordered tokens, treating hyphens as
// separators so "J.-P." yields two initials. A token counts as an initial
// when a single letter remains after stripping periods.
func decompose(given string) []nameToken {
	fields := strings.FieldsFunc(given, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	tokens := make([]nameToken, 0, len(fields))
	for _, f := range fields {
		bare := strings.ReplaceAll(f, ".", "")
		if bare == "" {
			continue
		}
		tokens = append(tokens, nameToken{
			text:      strings.ToLower(bare),
			display:   strings.TrimSuffix(f, "."),
			isInitial: len([]rune(bare)) == 1,
		})
	}
	return tokens
}

// tokenSignature captures what a given name says beyond its base word:
// the set of initial letters and the set of extra whole words. Two
// spellings are candidates for the same person only when their signatures
// overlap. Signatures are a clustering device and are never displayed.
type tokenSignature struct {
	initials   map[string]struct{}
	extraWords map[string]struct{}
}

// signatureOf derives the signature from decomposed tokens.
//
// A bare one-word name ("Jerry") carries no signature at all; it asserts
// nothing beyond the base word, so it never joins components directly and
// is folded in afterwards. A multi-token name contributes its base word's
// leading letter to the initials set, which is what lets "Jerry A." and
// "J." overlap. All-initial names ("J.", "J. A.") contribute every letter.
func signatureOf(tokens []nameToken) tokenSignature {
	sig := tokenSignature{
		initials:   make(map[string]struct{}),
		extraWords: make(map[string]struct{}),
	}
	if len(tokens) == 0 {
		return sig
	}
	if len(tokens) == 1 && !tokens[0].isInitial {
		return sig
	}

	baseSeen := false
	for _, tok := range tokens {
		if tok.isInitial {
			sig.initials[tok.text] = struct{}{}
			continue
		}
		first := string([]rune(tok.text)[0])
		sig.initials[first] = struct{}{}
		if baseSeen {
			sig.extraWords[tok.text] = struct{}{}
		}
		baseSeen = true
	}
	return sig
}

func (s tokenSignature) empty() bool {
	return len(s.initials) == 0 && len(s.extraWords) == 0
}

// overlaps reports whether the two signatures share an initial or an extra
// word. Empty signatures never overlap anything.
func (s tokenSignature) overlaps(other tokenSignature) bool {
	if s.empty() || other.empty() {
		return false
	}
	for ini := range s.initials {
		if _, ok := other.initials[ini]; ok {
			return true
		}
	}
	for w := range s.extraWords {
		if _, ok := other.extraWords[w]; ok {
			return true
		}
	}
	return false
}
