package datasets

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/nlpdatasets/tokenizers/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSameRecords(t *testing.T, want, got *Dataset) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	assert.Equal(t, want.Task(), got.Task())
	assert.Equal(t, want.Labels(), got.Labels())
	for i := range want.Len() {
		wantFields, err := want.Get(i)
		require.NoError(t, err)
		gotFields, err := got.Get(i)
		require.NoError(t, err)
		assert.Equal(t, wantFields, gotFields, "record %d", i)
	}
}

func TestCacheSequenceLabeling(t *testing.T) {
	opts := labelingOptions(t, " ", "O", "B-PER", "I-PER", "B-LOC", "I-LOC")
	examples := []Example{
		{Text: "George Washington in Pennsylvania", Label: "B-PER I-PER O B-LOC"},
		{Text: "the Washington"},
	}
	d, err := New(&fakeTokenizer{pad: true}, TaskSequenceLabeling, examples, opts)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, d.WriteCache(dir, "ner"))
	cached, err := ReadCache(dir, "ner", TaskSequenceLabeling)
	require.NoError(t, err)
	requireSameRecords(t, d, cached)

	rec, err := cached.Record(1)
	require.NoError(t, err)
	assert.False(t, rec.HasLabel)
	assert.Nil(t, rec.TagIDs)

	// Overwriting is fine.
	require.NoError(t, d.WriteCache(dir, "ner"))
}

func TestCacheClassification(t *testing.T) {
	tok, err := vocab.New([]string{"[PAD]", "[UNK]", "good", "bad", "movie"},
		vocab.WithUnknownToken("[UNK]"), vocab.WithPadding(true))
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.MaxSeqLen = 8
	d, err := FromReader(tok, TaskClassification, strings.NewReader("\tgood movie\n\tbad\n"), false, opts)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	require.NoError(t, d.WriteCache(dir, "reviews"))
	assert.NoFileExists(t, filepath.Join(dir, "reviews.labels"))
	cached, err := ReadCache(dir, "reviews", TaskClassification)
	require.NoError(t, err)
	requireSameRecords(t, d, cached)
	assert.Nil(t, cached.LabelIndex())
}

func TestReadCacheMissing(t *testing.T) {
	_, err := ReadCache(t.TempDir(), "nothing", TaskClassification)
	assert.ErrorIs(t, err, ErrMissingResource)
}
