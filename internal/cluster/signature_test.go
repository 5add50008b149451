package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		given    string
		texts    []string
		initials []bool
	}{
		{"Jerry A.", []string{"jerry", "a"}, []bool{false, true}},
		{"J.R.R.", []string{"jrr"}, []bool{false}},
		{"J. R. R.", []string{"j", "r", "r"}, []bool{true, true, true}},
		{"J.-P.", []string{"j", "p"}, []bool{true, true}},
		{"Jean-Pierre", []string{"jean", "pierre"}, []bool{false, false}},
		{"", nil, nil},
	}
	for _, tt := range tests {
		tokens := decompose(tt.given)
		require.Len(t, tokens, len(tt.texts), "given %q", tt.given)
		for i, tok := range tokens {
			assert.Equal(t, tt.texts[i], tok.text, "given %q token %d", tt.given, i)
			assert.Equal(t, tt.initials[i], tok.isInitial, "given %q token %d", tt.given, i)
		}
	}
}

func TestSignatureOf(t *testing.T) {
	t.Parallel()

	bare := signatureOf(decompose("Jerry"))
	assert.True(t, bare.empty(), "a bare one-word name asserts nothing")

	initial := signatureOf(decompose("J."))
	assert.False(t, initial.empty())
	assert.Contains(t, initial.initials, "j")

	extended := signatureOf(decompose("Jerry A."))
	assert.Contains(t, extended.initials, "j", "the base word contributes its leading letter")
	assert.Contains(t, extended.initials, "a")

	assert.True(t, initial.overlaps(extended))
	assert.False(t, bare.overlaps(extended), "empty signatures never overlap")

	middle := signatureOf(decompose("John Brian"))
	assert.Contains(t, middle.extraWords, "brian")
	assert.Contains(t, middle.initials, "b", "extra words also contribute their leading letter")
}

func TestBucketKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		given string
		want  string
	}{
		{"John", "john"},
		{"J.", "init:j"},
		{"J. A.", "init:ja"},
		{"J.-P.", "init:jp"},
		{"Bill", "william"},
		{"John B.", "john"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bucketKey(decompose(tt.given)), "given %q", tt.given)
	}
}
