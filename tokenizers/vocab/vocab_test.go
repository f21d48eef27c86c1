package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVocab = []string{"[PAD]", "[UNK]", "the", "cat", "sat", "mat"}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(testVocab, WithUnknownToken("<unk>"))
	assert.Error(t, err)

	_, err = New([]string{"a"}, WithPadding(true))
	assert.Error(t, err)

	tok, err := New(testVocab)
	require.NoError(t, err)
	assert.Equal(t, 6, tok.VocabSize())
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(testVocab, "\r\n")+"\r\n"), 0644))
	tok, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "cat"}, tok.Tokenize("the cat"))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	dropping, err := New(testVocab)
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "cat", "mat"}, dropping.Tokenize("the cat on mat"))
	assert.Empty(t, dropping.Tokenize("dog"))

	withUnk, err := New(testVocab, WithUnknownToken("[UNK]"))
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "cat", "[UNK]", "mat"}, withUnk.Tokenize("the cat on mat"))

	chars, err := New([]string{"北", "京"}, WithSegmenter(func(text string) []string {
		return strings.Split(text, "")
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"北", "京"}, chars.Tokenize("北京"))
}

func TestEncode(t *testing.T) {
	tok, err := New(testVocab)
	require.NoError(t, err)

	enc, ok := tok.Encode("the cat sat", "", 0)
	require.True(t, ok)
	seq, isSeq := enc.(*api.SeqLenEncoding)
	require.True(t, isSeq)
	assert.Equal(t, []int{2, 3, 4}, seq.Text)
	assert.Equal(t, 3, seq.SeqLen)

	enc, ok = tok.Encode("the cat", "on mat", 0)
	require.True(t, ok)
	assert.Equal(t, []int{2, 3, 5}, enc.IDs())

	enc, ok = tok.Encode("the cat sat", "", 2)
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, enc.IDs())

	// No word in the vocabulary: declined.
	_, ok = tok.Encode("dog bird", "", 10)
	assert.False(t, ok)
}

func TestEncodeWithPadding(t *testing.T) {
	tok, err := New(testVocab, WithPadding(true))
	require.NoError(t, err)
	enc, ok := tok.EncodePieces([]string{"cat", "sat"}, 4)
	require.True(t, ok)
	seq := enc.(*api.SeqLenEncoding)
	assert.Equal(t, []int{3, 4, 0, 0}, seq.Text)
	assert.Equal(t, 2, seq.SeqLen)
	assert.Equal(t, []string{"cat", "sat", "[PAD]", "[PAD]"}, tok.Decode(enc))
}

func TestSpecialTokenID(t *testing.T) {
	tok, err := New(testVocab, WithUnknownToken("[UNK]"))
	require.NoError(t, err)
	id, err := tok.SpecialTokenID(api.TokUnknown)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	id, err = tok.SpecialTokenID(api.TokPad)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	_, err = tok.SpecialTokenID(api.TokClassification)
	assert.Error(t, err)
}
