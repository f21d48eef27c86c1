// Package vocab implements a vocabulary-lookup tokenizer: text is segmented into words and each
// word is looked up in a fixed vocabulary. Words not in the vocabulary are dropped, unless an
// unknown token is configured.
//
// It produces api.SeqLenEncoding records (text ids and sequence length), with no special tokens.
package vocab

import (
	"bufio"
	"os"
	"strings"

	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/gomlx/nlpdatasets/internal/sequence"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/pkg/errors"
)

// Segmenter splits text into words.
type Segmenter func(text string) []string

// Tokenizer implements api.Tokenizer with a vocabulary lookup.
type Tokenizer struct {
	vocab     map[string]int
	idToToken []string
	segmenter Segmenter

	unkToken       string
	padToken       string
	padToMaxSeqLen bool
}

// Compile time assert that Tokenizer implements api.Tokenizer interface.
var _ api.Tokenizer = &Tokenizer{}

// Option configures a Tokenizer.
type Option func(t *Tokenizer)

// WithUnknownToken maps out-of-vocabulary words to token, which must be in the vocabulary.
// By default out-of-vocabulary words are dropped.
func WithUnknownToken(token string) Option {
	return func(t *Tokenizer) {
		t.unkToken = token
	}
}

// WithPadToken sets the token used for padding. Default is "[PAD]".
func WithPadToken(token string) Option {
	return func(t *Tokenizer) {
		t.padToken = token
	}
}

// WithPadding pads every encoding up to maxSeqLen. SeqLen still reports the unpadded length.
func WithPadding(pad bool) Option {
	return func(t *Tokenizer) {
		t.padToMaxSeqLen = pad
	}
}

// WithSegmenter sets how text is split into words. Default is strings.Fields.
func WithSegmenter(segmenter Segmenter) Option {
	return func(t *Tokenizer) {
		t.segmenter = segmenter
	}
}

// New creates a Tokenizer from the list of tokens: the position of each token is its id.
func New(tokens []string, options ...Option) (*Tokenizer, error) {
	if len(tokens) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	t := &Tokenizer{
		vocab:     make(map[string]int, len(tokens)),
		idToToken: tokens,
		segmenter: strings.Fields,
		padToken:  "[PAD]",
	}
	for id, token := range tokens {
		t.vocab[token] = id
	}
	for _, option := range options {
		option(t)
	}
	if t.unkToken != "" {
		if _, found := t.vocab[t.unkToken]; !found {
			return nil, errors.Errorf("unknown token %q is not in the vocabulary", t.unkToken)
		}
	}
	if t.padToMaxSeqLen {
		if _, found := t.vocab[t.padToken]; !found {
			return nil, errors.Errorf("padding requested but pad token %q is not in the vocabulary", t.padToken)
		}
	}
	return t, nil
}

// NewFromFile creates a Tokenizer from a vocabulary file with one token per line.
func NewFromFile(vocabPath string, options ...Option) (*Tokenizer, error) {
	if !files.Exists(vocabPath) {
		return nil, errors.Errorf("vocabulary file %q not found", vocabPath)
	}
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocabulary file %q", vocabPath)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read vocabulary file %q", vocabPath)
	}
	return New(tokens, options...)
}

// Tokenize implements api.Tokenizer.
func (t *Tokenizer) Tokenize(unit string) []string {
	var pieces []string
	for _, word := range t.segmenter(unit) {
		if _, found := t.vocab[word]; found {
			pieces = append(pieces, word)
		} else if t.unkToken != "" {
			pieces = append(pieces, t.unkToken)
		}
	}
	return pieces
}

// Encode implements api.Tokenizer. The text pair, if given, is appended to the text.
// It returns false if no word of the text is in the vocabulary.
func (t *Tokenizer) Encode(text, textPair string, maxSeqLen int) (api.Encoding, bool) {
	pieces := t.Tokenize(text)
	if textPair != "" {
		pieces = append(pieces, t.Tokenize(textPair)...)
	}
	return t.EncodePieces(pieces, maxSeqLen)
}

// EncodePieces implements api.Tokenizer.
func (t *Tokenizer) EncodePieces(pieces []string, maxSeqLen int) (api.Encoding, bool) {
	ids := make([]int, 0, len(pieces))
	for _, piece := range pieces {
		if id, found := t.vocab[piece]; found {
			ids = append(ids, id)
		} else if t.unkToken != "" {
			ids = append(ids, t.vocab[t.unkToken])
		}
	}
	if len(ids) == 0 {
		return nil, false
	}
	ids = sequence.Truncate(ids, sequence.Budget(maxSeqLen, 0))
	enc := &api.SeqLenEncoding{Text: ids, SeqLen: len(ids)}
	if t.padToMaxSeqLen && maxSeqLen > 0 {
		enc.Text = sequence.Pad(enc.Text, maxSeqLen, t.vocab[t.padToken])
	}
	return enc, true
}

// Decode implements api.Tokenizer. Padding positions decode to the pad token.
func (t *Tokenizer) Decode(enc api.Encoding) []string {
	ids := enc.IDs()
	tokens := make([]string, len(ids))
	for i, id := range ids {
		if id >= 0 && id < len(t.idToToken) {
			tokens[i] = t.idToToken[id]
		} else {
			tokens[i] = t.unkToken
		}
	}
	return tokens
}

// SpecialTokenID returns the id of the unknown or padding tokens, if configured.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	var content string
	switch token {
	case api.TokUnknown:
		content = t.unkToken
	case api.TokPad:
		content = t.padToken
	}
	if id, found := t.vocab[content]; found && content != "" {
		return id, nil
	}
	return 0, errors.Errorf("special token %s not found", token)
}

// VocabSize returns the number of tokens in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.idToToken)
}
