package datasets

import (
	"strings"
	"testing"

	"github.com/gomlx/nlpdatasets/internal/sequence"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenizer splits words with testSplits and produces BertEncodings
// "[CLS] pieces... [SEP]", optionally padded to maxSeqLen.
type fakeTokenizer struct {
	pad bool
}

var fakeVocab = []string{
	"[PAD]", "[CLS]", "[SEP]", "[UNK]",
	"Wash", "##ington", "Penn", "##syl", "##vania", "George", "the", "in", "great", "keyboard", "bad",
}

func fakeID(piece string) int {
	for id, token := range fakeVocab {
		if token == piece {
			return id
		}
	}
	return 3
}

func (f *fakeTokenizer) Tokenize(unit string) []string {
	return testSplits(unit)
}

func (f *fakeTokenizer) Encode(text, textPair string, maxSeqLen int) (api.Encoding, bool) {
	var pieces []string
	for _, word := range strings.Fields(text) {
		pieces = append(pieces, f.Tokenize(word)...)
	}
	for _, word := range strings.Fields(textPair) {
		pieces = append(pieces, f.Tokenize(word)...)
	}
	return f.EncodePieces(pieces, maxSeqLen)
}

func (f *fakeTokenizer) EncodePieces(pieces []string, maxSeqLen int) (api.Encoding, bool) {
	if len(pieces) == 0 {
		return nil, false
	}
	pieces = sequence.Truncate(pieces, sequence.Budget(maxSeqLen, 2))
	ids := []int{fakeID("[CLS]")}
	for _, piece := range pieces {
		ids = append(ids, fakeID(piece))
	}
	ids = append(ids, fakeID("[SEP]"))
	if f.pad && maxSeqLen > 0 {
		ids = sequence.Pad(ids, maxSeqLen, fakeID("[PAD]"))
	}
	return &api.BertEncoding{InputIDs: ids, SegmentIDs: make([]int, len(ids))}, true
}

func (f *fakeTokenizer) Decode(enc api.Encoding) []string {
	ids := enc.IDs()
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = fakeVocab[id]
	}
	return tokens
}

func mustLabelIndex(t *testing.T, labels ...string) *LabelIndex {
	t.Helper()
	index, err := NewLabelIndex(labels)
	require.NoError(t, err)
	return index
}

func TestAlignLabels(t *testing.T) {
	tests := []struct {
		name      string
		decoded   []string
		subtokens []string
		labels    []string
		want      []string
	}{
		{
			name:      "special tokens",
			decoded:   []string{"[CLS]", "Wash", "##ington", "[SEP]"},
			subtokens: []string{"Wash", "##ington"},
			labels:    []string{"B-PER", "I-PER"},
			want:      []string{"O", "B-PER", "I-PER", "O"},
		},
		{
			name:      "padding",
			decoded:   []string{"[CLS]", "in", "Penn", "[SEP]", "[PAD]", "[PAD]"},
			subtokens: []string{"in", "Penn"},
			labels:    []string{"O", "B-LOC"},
			want:      []string{"O", "O", "B-LOC", "O", "O", "O"},
		},
		{
			name:      "truncated",
			decoded:   []string{"[CLS]", "Wash", "[SEP]"},
			subtokens: []string{"Wash", "##ington"},
			labels:    []string{"B-PER", "I-PER"},
			want:      []string{"O", "B-PER", "O"},
		},
		{
			name:      "unknown token breaks the match",
			decoded:   []string{"[CLS]", "[UNK]", "the", "[SEP]"},
			subtokens: []string{"zzz", "the"},
			labels:    []string{"B-MISC", "O"},
			want:      []string{"O", "O", "O", "O"},
		},
		{
			name:      "subtoken spelled like a special token matches first",
			decoded:   []string{"[CLS]", "[SEP]", "the", "[SEP]"},
			subtokens: []string{"[SEP]", "the"},
			labels:    []string{"B-X", "I-X"},
			want:      []string{"O", "B-X", "I-X", "O"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignLabels(tt.decoded, tt.subtokens, tt.labels, "O")
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.decoded))
		})
	}
}

func TestBuildClassification(t *testing.T) {
	opts := DefaultOptions()
	opts.Labels = mustLabelIndex(t, "0", "1")
	builder := NewRecordBuilder(&fakeTokenizer{}, opts)

	rec, ok, err := builder.BuildClassification(Example{ID: 0, Text: "great keyboard", Label: "1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.HasLabel)
	assert.Equal(t, 1, rec.ClassID)
	assert.Equal(t, []int{1, 12, 13, 2}, rec.Encoding.IDs())

	rec, ok, err = builder.BuildClassification(Example{ID: 1, Text: "bad", TextPair: "keyboard"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, rec.HasLabel)
	assert.Equal(t, []int{1, 14, 13, 2}, rec.Encoding.IDs())

	_, ok, err = builder.BuildClassification(Example{ID: 2, Text: "???", Label: "0"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = builder.BuildClassification(Example{ID: 3, Text: "great", Label: "2"})
	assert.ErrorIs(t, err, ErrUnknownLabel)

	unlabeled := NewRecordBuilder(&fakeTokenizer{}, DefaultOptions())
	_, _, err = unlabeled.BuildClassification(Example{ID: 4, Text: "great", Label: "1"})
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestBuildLabeling(t *testing.T) {
	opts := labelingOptions(t, " ", "O", "B-PER", "I-PER", "B-LOC", "I-LOC")
	builder := NewRecordBuilder(&fakeTokenizer{}, opts)

	rec, ok, err := builder.BuildLabeling(Example{Text: "George Washington in Pennsylvania", Label: "B-PER I-PER O B-LOC"})
	require.NoError(t, err)
	require.True(t, ok)
	// [CLS] George Wash ##ington in Penn ##syl ##vania [SEP]
	assert.Equal(t, []int{0, 1, 2, 2, 0, 3, 4, 4, 0}, rec.TagIDs)
	assert.Len(t, rec.TagIDs, len(rec.Encoding.IDs()))

	rec, ok, err = builder.BuildLabeling(Example{Text: "the Washington"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, rec.HasLabel)
	assert.Nil(t, rec.TagIDs)

	_, ok, err = builder.BuildLabeling(Example{Text: "??? ???", Label: "O O"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = builder.BuildLabeling(Example{Text: "the Washington", Label: "O"})
	assert.ErrorIs(t, err, ErrAlignment)

	_, _, err = builder.BuildLabeling(Example{Text: "the", Label: "B-ORG"})
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestRecordFields(t *testing.T) {
	enc := &api.BertEncoding{InputIDs: []int{1, 4, 2}, SegmentIDs: []int{0, 0, 0}}
	rec := &Record{Encoding: enc, HasLabel: true, ClassID: 1}
	fields := rec.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, api.Field{Name: "label", Values: []int{1}, Scalar: true}, fields[2])

	// Fields are copies.
	fields[0].Values[0] = 99
	assert.Equal(t, 1, enc.InputIDs[0])

	rec = &Record{Encoding: enc, HasLabel: true, TagIDs: []int{0, 1, 0}}
	fields = rec.Fields()
	assert.Equal(t, api.Field{Name: "label", Values: []int{0, 1, 0}}, fields[2])

	rec = &Record{Encoding: enc}
	assert.Len(t, rec.Fields(), 2)
}
