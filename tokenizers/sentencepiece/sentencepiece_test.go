package sentencepiece

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTokenizer loads the SentencePiece model pointed to by $SENTENCEPIECE_MODEL (e.g. the
// "tokenizer.model" of google/flan-t5-small), or skips the test.
func newTestTokenizer(t *testing.T, options ...Option) *Tokenizer {
	modelPath := os.Getenv("SENTENCEPIECE_MODEL")
	if modelPath == "" {
		t.Skip("SENTENCEPIECE_MODEL not set")
	}
	tok, err := NewFromFile(modelPath, options...)
	require.NoError(t, err)
	return tok
}

func TestNewFromFileMissing(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "tokenizer.model"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSliceMap(t *testing.T) {
	assert.Equal(t, []int{2, 4, 6}, sliceMap([]int{1, 2, 3}, func(e int) int { return 2 * e }))
	assert.Empty(t, sliceMap([]string{}, func(e string) int { return len(e) }))
}

// TestTokenizeEncodePieces verifies that encoding the pieces of a text is the same as encoding the text.
func TestTokenizeEncodePieces(t *testing.T) {
	tok := newTestTokenizer(t)
	for _, input := range []string{"hello", "hello world", "The quick brown fox jumps over the lazy dog."} {
		t.Run(input, func(t *testing.T) {
			pieces := tok.Tokenize(input)
			require.NotEmpty(t, pieces)
			fromText, ok := tok.Encode(input, "", 0)
			require.True(t, ok)
			fromPieces, ok := tok.EncodePieces(pieces, 0)
			require.True(t, ok)
			assert.Equal(t, fromText.IDs(), fromPieces.IDs())
			assert.Equal(t, pieces, tok.Decode(fromPieces))
		})
	}
}

func TestEncodeTruncateAndPad(t *testing.T) {
	tok := newTestTokenizer(t, WithPadding(true))
	enc, ok := tok.Encode("The quick brown fox jumps over the lazy dog.", "", 4)
	require.True(t, ok)
	seq := enc.(*api.SeqLenEncoding)
	assert.Len(t, seq.Text, 4)
	assert.Equal(t, 4, seq.SeqLen)

	enc, ok = tok.Encode("hello", "", 32)
	require.True(t, ok)
	seq = enc.(*api.SeqLenEncoding)
	assert.Len(t, seq.Text, 32)
	assert.Less(t, seq.SeqLen, 32)
	assert.Equal(t, tok.Info.PadID, seq.Text[31])

	_, ok = tok.Encode("", "", 32)
	assert.False(t, ok)
}

func TestSpecialTokenID(t *testing.T) {
	tok := newTestTokenizer(t)
	id, err := tok.SpecialTokenID(api.TokUnknown)
	require.NoError(t, err)
	assert.Equal(t, tok.Info.UnknownID, id)
	_, err = tok.SpecialTokenID(api.TokMask)
	assert.Error(t, err)
}
