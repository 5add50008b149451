package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/nameparse"
)

func newTestEngine(t *testing.T) (*Engine, *learning.Engine) {
	t.Helper()
	cfg := learning.DefaultConfig()
	cfg.SaveDelay = time.Hour
	learn := learning.NewEngine(learning.NewMemoryStore(), cfg, zerolog.Nop())
	t.Cleanup(func() { _ = learn.Close(context.Background()) })
	return New(nameparse.NewParser(nameparse.DefaultCacheSize), learn, zerolog.Nop()), learn
}

func rec(first, last string, occurrences int) domain.CreatorRecord {
	return domain.CreatorRecord{
		FirstName:       first,
		LastName:        last,
		FieldMode:       domain.FieldModeDual,
		OccurrenceCount: occurrences,
	}
}

func TestDifferentGivenNamesNeverMerge(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Alex", "Martin", 3),
		rec("Andrea", "Martin", 2),
	})
	assert.Empty(t, suggestions, "different base given names under one surname must not merge")
}

func TestGivenNameVariantsCluster(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Jerry", "Fodor", 4),
		rec("J.", "Fodor", 2),
		rec("Jerry A.", "Fodor", 1),
	})

	require.Len(t, suggestions, 1)
	s := suggestions[0]
	assert.Equal(t, domain.SuggestionTypeGivenName, s.Type)
	assert.Equal(t, "fodor", s.SurnameKey)
	require.Len(t, s.Clusters, 1, "all three spellings belong to one person")

	c := s.Clusters[0]
	assert.Equal(t, "Jerry A.", c.RecommendedFirstName)
	assert.Equal(t, "Jerry A. Fodor", c.RecommendedFullName)
	assert.ElementsMatch(t,
		[]string{"Jerry Fodor", "J. Fodor", "Jerry A. Fodor"},
		c.DisplayNames())
	assert.Equal(t, "Jerry Fodor", c.Variants[0].Display(),
		"variants are ordered by occurrence count")
}

func TestGivenNameVariantsAggregateOccurrences(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	a := rec("Jerry", "Fodor", 4)
	a.Items = []domain.ItemSummary{{Title: "The Language of Thought", Year: 1975}}
	b := rec("Jerry", "Fodor", 3)
	b.Items = []domain.ItemSummary{{Title: "The Modularity of Mind", Year: 1983}}

	suggestions := e.Suggestions([]domain.CreatorRecord{a, b, rec("J.", "Fodor", 2)})

	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Clusters, 1)
	c := suggestions[0].Clusters[0]

	var jerry *domain.NameVariant
	for i := range c.Variants {
		if c.Variants[i].FirstName == "Jerry" {
			jerry = &c.Variants[i]
			break
		}
	}
	require.NotNil(t, jerry)
	assert.Equal(t, 7, jerry.Occurrences,
		"repeated spellings sum their occurrence counts")
	assert.Len(t, jerry.Items, 2, "items from every record are carried through")
}

func TestBareInitialMergesIntoFullName(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("John", "Smith", 3),
		rec("J.", "Smith", 1),
	})

	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Clusters, 1)
	c := suggestions[0].Clusters[0]
	assert.Equal(t, "John", c.RecommendedFirstName)
	assert.Equal(t, "John Smith", c.RecommendedFullName)
}

func TestNicknameEquivalence(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Bill", "Evans", 2),
		rec("William", "Evans", 5),
	})

	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Clusters, 1)
	c := suggestions[0].Clusters[0]
	assert.Equal(t, "William Evans", c.RecommendedFullName)
	assert.ElementsMatch(t, []string{"Bill Evans", "William Evans"}, c.DisplayNames())
}

func TestSurnameDiacriticVariantsCluster(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Marcin", "Miłkowski", 5),
		rec("Marcin", "Milkowski", 2),
		rec("Anna", "Milkowska", 3),
	})

	require.Len(t, suggestions, 1)
	s := suggestions[0]
	assert.Equal(t, domain.SuggestionTypeSurname, s.Type)
	assert.Equal(t, "milkowski", s.SurnameKey)
	require.Len(t, s.Clusters, 1)

	c := s.Clusters[0]
	assert.Equal(t, "Miłkowski", c.Surname, "the dominant spelling is recommended")
	assert.Equal(t, "Marcin Miłkowski", c.RecommendedFullName)
}

func TestSurnamesNotMergedAcrossGivenNames(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Marcin", "Miłkowski", 5),
		rec("Anna", "Milkowski", 2),
	})
	assert.Empty(t, suggestions,
		"surname spellings are merged only within one author's records")
}

func TestCombinedSuggestion(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Marcin", "Miłkowski", 5),
		rec("Marcin", "Milkowski", 2),
		rec("M.", "Miłkowski", 1),
	})

	require.Len(t, suggestions, 1)
	s := suggestions[0]
	assert.Equal(t, domain.SuggestionTypeCombined, s.Type)
	assert.Len(t, s.Clusters, 2, "one surname cluster plus one given-name cluster")
	assert.Equal(t, "Marcin Miłkowski", s.Primary)
}

func TestDistinctPairSuppressesWholeSuggestion(t *testing.T) {
	t.Parallel()

	e, learn := newTestEngine(t)
	records := []domain.CreatorRecord{
		rec("Marcin", "Miłkowski", 5),
		rec("Marcin", "Milkowski", 2),
	}

	require.Len(t, e.Suggestions(records), 1)

	learn.RecordDistinctPair("Miłkowski", "Milkowski", domain.PairScopeSurname)
	assert.Empty(t, e.Suggestions(records),
		"a recorded rejection permanently suppresses the suggestion")
}

func TestDistinctGivenNamePairSuppresses(t *testing.T) {
	t.Parallel()

	e, learn := newTestEngine(t)
	records := []domain.CreatorRecord{
		rec("John", "Smith", 3),
		rec("J.", "Smith", 1),
	}

	require.Len(t, e.Suggestions(records), 1)

	learn.RecordDistinctPair("John", "J.", domain.GivenNamePairScope("smith"))
	assert.Empty(t, e.Suggestions(records))
}

func TestSkipDecisionSuppressesCluster(t *testing.T) {
	t.Parallel()

	e, learn := newTestEngine(t)
	records := []domain.CreatorRecord{
		rec("Bill", "Evans", 2),
		rec("William", "Evans", 5),
	}

	require.Len(t, e.Suggestions(records), 1)

	learn.RecordSkip("Evans", "William")
	assert.Empty(t, e.Suggestions(records))
}

func TestSingleFieldRecordsAreParsed(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	single := domain.CreatorRecord{
		LastName:        "J. Smith",
		FieldMode:       domain.FieldModeSingle,
		OccurrenceCount: 1,
	}
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("John", "Smith", 3),
		single,
	})

	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Clusters, 1)
	c := suggestions[0].Clusters[0]
	assert.Equal(t, "John Smith", c.RecommendedFullName)
	assert.ElementsMatch(t, []string{"John Smith", "J. Smith"}, c.DisplayNames())
}

func TestSuggestionSimilarityIsBounded(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	suggestions := e.Suggestions([]domain.CreatorRecord{
		rec("Jerry", "Fodor", 4),
		rec("J.", "Fodor", 2),
	})
	require.Len(t, suggestions, 1)
	assert.Greater(t, suggestions[0].Similarity, 0.0)
	assert.LessOrEqual(t, suggestions[0].Similarity, 1.0)
}
