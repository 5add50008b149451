// Package domain provides the shared model types for the creator name
// normalization engine.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldMode indicates how a creator name is stored by the host.
type FieldMode int

const (
	// FieldModeDual stores first and last name in separate fields.
	FieldModeDual FieldMode = 0
	// FieldModeSingle stores the full name in a single field.
	FieldModeSingle FieldMode = 1
)

// ItemSummary is a compact description of one host item that references a
// creator record. It is carried through analysis so the host can locate the
// physical records a suggestion affects.
type ItemSummary struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	ItemID int64  `json:"item_id,omitempty"`
	Key    string `json:"key,omitempty"`
}

// CreatorRecord is the host's input unit: one (firstName, lastName, fieldMode)
// triple, possibly representing many physical records collapsed together.
type CreatorRecord struct {
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	FieldMode       FieldMode     `json:"field_mode"`
	OccurrenceCount int           `json:"occurrence_count"`
	Items           []ItemSummary `json:"items,omitempty"`
}

// DisplayName returns the record's human-readable "First Last" form.
func (r CreatorRecord) DisplayName() string {
	if r.FirstName == "" {
		return r.LastName
	}
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// SuggestionType distinguishes what a suggestion proposes to merge.
type SuggestionType string

const (
	// SuggestionTypeSurname proposes merging diacritic spellings of one
	// author's surname.
	SuggestionTypeSurname SuggestionType = "surname"
	// SuggestionTypeGivenName proposes merging given-name variants under
	// one surname.
	SuggestionTypeGivenName SuggestionType = "given_name"
	// SuggestionTypeCombined carries both surname and given-name clusters
	// for the same surname.
	SuggestionTypeCombined SuggestionType = "combined"
)

// NameVariant is one distinct spelling inside a cluster, with the number of
// host records carrying it.
type NameVariant struct {
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	Occurrences int           `json:"occurrences"`
	Items       []ItemSummary `json:"items,omitempty"`
}

// Display returns the variant's "First Last" form.
func (v NameVariant) Display() string {
	if v.FirstName == "" {
		return v.LastName
	}
	if v.LastName == "" {
		return v.FirstName
	}
	return v.FirstName + " " + v.LastName
}

// VariantCluster is the unit of one merge decision: at least two distinct
// spellings believed to denote the same person, with a recommended
// canonical form.
type VariantCluster struct {
	Surname              string        `json:"surname"`
	Variants             []NameVariant `json:"variants"`
	RecommendedFirstName string        `json:"recommended_first_name,omitempty"`
	RecommendedSurname   string        `json:"recommended_surname,omitempty"`
	RecommendedFullName  string        `json:"recommended_full_name"`
}

// DisplayNames returns the distinct display forms covered by the cluster,
// in variant order.
func (c VariantCluster) DisplayNames() []string {
	names := make([]string, 0, len(c.Variants))
	seen := make(map[string]struct{}, len(c.Variants))
	for _, v := range c.Variants {
		d := v.Display()
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		names = append(names, d)
	}
	return names
}

// Suggestion is an externally visible merge recommendation. Suggestions are
// created per analysis pass, are immutable, and are not themselves persisted.
type Suggestion struct {
	ID         uuid.UUID        `json:"id"`
	Type       SuggestionType   `json:"type"`
	SurnameKey string           `json:"surname_key"`
	Primary    string           `json:"primary"`
	Variants   []string         `json:"variants"`
	Similarity float64          `json:"similarity"`
	Clusters   []VariantCluster `json:"clusters"`
}

// LearningMapping is a persisted raw-to-normalized name mapping owned by the
// learning engine. It is keyed in storage by the canonicalized form of Raw.
type LearningMapping struct {
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	Confidence float64   `json:"confidence"`
	UsageCount int       `json:"usage_count"`
	Timestamp  time.Time `json:"timestamp"`
	LastUsed   time.Time `json:"last_used"`
	Context    []string  `json:"context,omitempty"`
}

// DistinctPairRecord is a persisted explicit rejection of a proposed merge
// between two name spellings. The pair key is order-independent.
type DistinctPairRecord struct {
	Scope     string    `json:"scope"`
	NameA     string    `json:"name_a"`
	NameB     string    `json:"name_b"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisResult is the outcome of one analysis pass.
type AnalysisResult struct {
	RunID               uuid.UUID      `json:"run_id"`
	Suggestions         []Suggestion   `json:"suggestions"`
	SurnameFrequencies  map[string]int `json:"surname_frequencies"`
	TotalUniqueSurnames int            `json:"total_unique_surnames"`
	TotalVariantGroups  int            `json:"total_variant_groups"`
	RecordsProcessed    int            `json:"records_processed"`
}

// RecordUpdate describes the target (firstName, lastName) pair the host
// should write for records that currently carry an accepted variant. The
// engine never mutates host storage itself.
type RecordUpdate struct {
	OldFirstName string        `json:"old_first_name"`
	OldLastName  string        `json:"old_last_name"`
	NewFirstName string        `json:"new_first_name"`
	NewLastName  string        `json:"new_last_name"`
	Items        []ItemSummary `json:"items,omitempty"`
}

// ApplyError reports a suggestion that could not be applied.
type ApplyError struct {
	SuggestionID uuid.UUID `json:"suggestion_id"`
	Message      string    `json:"message"`
}

// ApplyResult is the outcome of applying accepted and declined suggestions.
type ApplyResult struct {
	Applied        int            `json:"applied"`
	UpdatedRecords []RecordUpdate `json:"updated_records"`
	Errors         []ApplyError   `json:"errors,omitempty"`
}

// ProgressUpdate reports analysis progress at bounded intervals.
type ProgressUpdate struct {
	Stage     string `json:"stage"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// ProgressFunc receives progress updates. It is invoked synchronously and
// never retained beyond the pass.
type ProgressFunc func(ProgressUpdate)

// PairScopeSurname is the distinct-pair scope for surname spellings.
const PairScopeSurname = "surname"

// GivenNamePairScope returns the distinct-pair scope for given-name variants
// under the surname identified by surnameKey.
func GivenNamePairScope(surnameKey string) string {
	return "given-name:" + strings.ToLower(surnameKey)
}
