// Package nameparse decomposes raw creator name strings into structured
// components: prefix, first name, middle name, last name, and suffix.
//
// Parsing never fails. Malformed or empty input degrades to a best-effort
// partial result, because one bad name must never abort a batch of
// thousands.
package nameparse

import (
	"strings"
	"unicode"

	"github.com/milekpl/zotero-ner/internal/cache"
)

// DefaultCacheSize is the default capacity of the parse memo cache.
const DefaultCacheSize = 5000

// ParsedName is the immutable structured form of a raw name string. At
// least one of FirstName and LastName is non-empty unless the input was
// empty.
type ParsedName struct {
	Prefix     string
	FirstName  string
	MiddleName string
	LastName   string
	Suffix     string
	Original   string
}

// noblePrefixes are particle tokens that attach to the surname rather than
// standing as a middle name.
var noblePrefixes = map[string]bool{
	"von": true, "van": true, "de": true, "del": true, "della": true,
	"delle": true, "di": true, "da": true, "dos": true, "das": true,
	"do": true, "du": true, "des": true, "den": true, "der": true,
	"ter": true, "ten": true, "te": true, "la": true, "le": true,
	"los": true, "las": true, "af": true, "av": true, "zu": true,
	"of": true, "st": true, "st.": true,
}

// compoundPrefixes additionally consume one following capitalized word,
// handling forms like "del Carmen".
var compoundPrefixes = map[string]bool{
	"del": true, "de": true, "da": true, "das": true, "dos": true,
	"do": true, "du": true, "des": true, "di": true,
}

// nameSuffixes are generational and title tokens that trail the surname.
// Matched case-insensitively, with or without a trailing period.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"phd": true, "md": true, "esq": true, "jd": true, "dds": true,
	"dphil": true, "frs": true,
}

// Parser parses raw name strings, memoizing results by exact raw string in
// a capacity-bounded cache to amortize repeated parsing across large
// batches. It is safe for concurrent use.
type Parser struct {
	memo *cache.Bounded[string, ParsedName]
}

// NewParser creates a Parser with the given memo cache capacity. A
// non-positive capacity selects DefaultCacheSize.
func NewParser(cacheSize int) *Parser {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Parser{memo: cache.NewBounded[string, ParsedName](cacheSize)}
}

// Parse decomposes raw into a ParsedName.
func (p *Parser) Parse(raw string) ParsedName {
	if parsed, ok := p.memo.Get(raw); ok {
		return parsed
	}
	parsed := parse(raw)
	p.memo.Put(raw, parsed)
	return parsed
}

func parse(raw string) ParsedName {
	result := ParsedName{Original: raw}

	trimmed := strings.TrimRight(strings.TrimSpace(raw), ", ")
	if trimmed == "" {
		return result
	}

	// Inverted "Last, First Middle" form: both segments around the comma
	// must contain letters. The pre-comma segment was already classified
	// by the host as a surname, so the remainder after the first given
	// token stays a single last-name unit instead of being run through
	// prefix/suffix classification.
	if idx := strings.Index(trimmed, ","); idx >= 0 {
		last := strings.TrimSpace(trimmed[:idx])
		rest := strings.TrimSpace(trimmed[idx+1:])
		if containsLetter(last) && containsLetter(rest) {
			rewritten := strings.Fields(rest + " " + last)
			result.FirstName = stripTrailingPeriod(rewritten[0])
			result.LastName = stripTrailingPeriod(strings.Join(rewritten[1:], " "))
			return result
		}
	}

	tokens := strings.Fields(trimmed)
	if len(tokens) == 1 {
		tok := tokens[0]
		if noblePrefixes[strings.ToLower(tok)] {
			result.Prefix = tok
		} else {
			result.LastName = stripTrailingPeriod(tok)
		}
		return result
	}

	result.FirstName = tokens[0]
	rest := tokens[1:]

	// Scan forward consuming contiguous noble/locative prefixes, always
	// leaving at least one token for the last name.
	var prefixParts []string
	i := 0
	for i < len(rest)-1 {
		low := strings.ToLower(rest[i])
		if !noblePrefixes[low] {
			break
		}
		prefixParts = append(prefixParts, rest[i])
		i++
		if compoundPrefixes[low] && i < len(rest)-1 && startsUpper(rest[i]) {
			prefixParts = append(prefixParts, rest[i])
			i++
		}
	}
	result.Prefix = strings.Join(prefixParts, " ")

	// Scan backward consuming suffix tokens.
	var suffixParts []string
	j := len(rest) - 1
	for j > i && isSuffixToken(rest[j]) {
		suffixParts = append([]string{rest[j]}, suffixParts...)
		j--
	}
	result.Suffix = strings.Join(suffixParts, " ")

	result.LastName = rest[j]
	if j > i {
		result.MiddleName = strings.Join(rest[i:j], " ")
	}

	result.FirstName = stripTrailingPeriod(result.FirstName)
	result.MiddleName = stripTrailingPeriod(result.MiddleName)
	result.LastName = stripTrailingPeriod(result.LastName)

	return result
}

// stripTrailingPeriod removes a trailing period only when it terminates a
// real word: at least two letters, containing a vowel, with no internal
// periods. True initials and abbreviations keep theirs.
func stripTrailingPeriod(field string) string {
	if !strings.HasSuffix(field, ".") {
		return field
	}
	word := field
	if sp := strings.LastIndexFunc(field, unicode.IsSpace); sp >= 0 {
		word = field[sp+1:]
	}
	word = strings.TrimSuffix(word, ".")
	if strings.Contains(word, ".") {
		return field
	}
	letters := 0
	hasVowel := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if isVowel(r) {
			hasVowel = true
		}
	}
	if letters < 2 || !hasVowel {
		return field
	}
	return strings.TrimSuffix(field, ".")
}

func isSuffixToken(tok string) bool {
	return nameSuffixes[strings.ToLower(strings.TrimSuffix(tok, "."))]
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u', 'y', 'á', 'é', 'í', 'ó', 'ú', 'ä', 'ö', 'ü', 'å', 'ø':
		return true
	}
	return false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func containsLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
