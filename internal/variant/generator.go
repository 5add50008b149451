// Package variant generates canonical spelling forms for a parsed name.
// The forms are presentation suggestions only and play no role in
// clustering decisions.
package variant

import (
	"strings"

	"github.com/milekpl/zotero-ner/internal/nameparse"
)

// Generate returns the ordered, deduplicated set of canonical spelling
// forms for p. The original string is always included verbatim; each of
// the five deterministic forms is filtered out when its required fields
// are missing.
func Generate(p nameparse.ParsedName) []string {
	forms := []string{
		p.Original,
		fullForm(p),
		initialsForm(p),
		lastOnlyForm(p),
		firstInitialLastForm(p),
		firstInitialsLastForm(p),
	}

	seen := make(map[string]struct{}, len(forms))
	out := make([]string, 0, len(forms))
	for _, f := range forms {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// fullForm is "first [middle] [prefix] last".
func fullForm(p nameparse.ParsedName) string {
	if p.FirstName == "" || p.LastName == "" {
		return ""
	}
	return joinParts(p.FirstName, p.MiddleName, p.Prefix, p.LastName)
}

// initialsForm is "F. [middle initials] [prefix] last".
func initialsForm(p nameparse.ParsedName) string {
	if p.FirstName == "" || p.LastName == "" {
		return ""
	}
	return joinParts(initialOf(p.FirstName), middleInitials(p.MiddleName, " "), p.Prefix, p.LastName)
}

func lastOnlyForm(p nameparse.ParsedName) string {
	return p.LastName
}

// firstInitialLastForm is "F. [prefix] last".
func firstInitialLastForm(p nameparse.ParsedName) string {
	if p.FirstName == "" || p.LastName == "" {
		return ""
	}
	return joinParts(initialOf(p.FirstName), p.Prefix, p.LastName)
}

// firstInitialsLastForm concatenates the first initial with the middle
// initials ("J.R.R. Tolkien"), collapsing runs of two or more periods to
// one.
func firstInitialsLastForm(p nameparse.ParsedName) string {
	if p.FirstName == "" || p.LastName == "" {
		return ""
	}
	initials := collapsePeriods(initialOf(p.FirstName) + middleInitials(p.MiddleName, ""))
	return joinParts(initials, p.Prefix, p.LastName)
}

// initialOf returns the first letter of a name part followed by a period.
func initialOf(part string) string {
	for _, r := range part {
		return string(r) + "."
	}
	return ""
}

// middleInitials converts every middle-name token to its initial, joined
// by sep.
func middleInitials(middle, sep string) string {
	if middle == "" {
		return ""
	}
	tokens := strings.Fields(middle)
	initials := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if ini := initialOf(strings.Trim(tok, ".")); ini != "" {
			initials = append(initials, ini)
		}
	}
	return strings.Join(initials, sep)
}

// collapsePeriods reduces every run of two or more periods to a single one.
func collapsePeriods(s string) string {
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	return s
}

func joinParts(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
