// Package sentencepiece implements an api.Tokenizer based on a SentencePiece model.
//
// It produces api.SeqLenEncoding records, with no special tokens.
package sentencepiece

import (
	"sync"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/gomlx/nlpdatasets/internal/sequence"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/pkg/errors"
)

// Tokenizer implements api.Tokenizer based on SentencePiece tokenizer by Google.
//
// The processor doesn't expose its piece table, so the tokenizer remembers the (piece, id)
// pairs it has seen to map pieces back to ids in EncodePieces and ids to pieces in Decode.
type Tokenizer struct {
	processor *esentencepiece.Processor
	Info      *esentencepiece.ModelInfo

	mu          sync.Mutex
	pieceToID   map[string]int
	idToPiece   map[int]string
	padToMaxLen bool
}

// Compile time assert that sentencepiece.Tokenizer implements api.Tokenizer interface.
var _ api.Tokenizer = &Tokenizer{}

// Option configures a Tokenizer.
type Option func(t *Tokenizer)

// WithPadding pads every encoding with the model's pad id up to maxSeqLen.
func WithPadding(pad bool) Option {
	return func(t *Tokenizer) {
		t.padToMaxLen = pad
	}
}

// NewFromFile creates a SentencePiece tokenizer from a "tokenizer.model" file, which must be a
// SentencePiece Model proto.
func NewFromFile(modelPath string, options ...Option) (*Tokenizer, error) {
	if !files.Exists(modelPath) {
		return nil, errors.Errorf("sentencepiece model %q not found", modelPath)
	}
	proc, err := esentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", modelPath)
	}
	t := &Tokenizer{
		processor: proc,
		Info:      proc.ModelInfo(),
		pieceToID: make(map[string]int),
		idToPiece: make(map[int]string),
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// encode runs the processor and records every piece seen.
func (t *Tokenizer) encode(text string) []esentencepiece.Token {
	tokens := t.processor.Encode(text)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tok := range tokens {
		t.pieceToID[tok.Text] = tok.ID
		t.idToPiece[tok.ID] = tok.Text
	}
	return tokens
}

// Tokenize implements api.Tokenizer.
func (t *Tokenizer) Tokenize(unit string) []string {
	return sliceMap(t.encode(unit), func(tok esentencepiece.Token) string { return tok.Text })
}

// Encode implements api.Tokenizer. The text pair, if given, is appended to the text.
func (t *Tokenizer) Encode(text, textPair string, maxSeqLen int) (api.Encoding, bool) {
	ids := sliceMap(t.encode(text), func(tok esentencepiece.Token) int { return tok.ID })
	if textPair != "" {
		ids = append(ids, sliceMap(t.encode(textPair), func(tok esentencepiece.Token) int { return tok.ID })...)
	}
	return t.fromIDs(ids, maxSeqLen)
}

// EncodePieces implements api.Tokenizer. Pieces never returned by Tokenize map to the unknown id.
func (t *Tokenizer) EncodePieces(pieces []string, maxSeqLen int) (api.Encoding, bool) {
	t.mu.Lock()
	ids := sliceMap(pieces, func(piece string) int {
		if id, found := t.pieceToID[piece]; found {
			return id
		}
		return t.Info.UnknownID
	})
	t.mu.Unlock()
	return t.fromIDs(ids, maxSeqLen)
}

func (t *Tokenizer) fromIDs(ids []int, maxSeqLen int) (api.Encoding, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	ids = sequence.Truncate(ids, sequence.Budget(maxSeqLen, 0))
	enc := &api.SeqLenEncoding{Text: ids, SeqLen: len(ids)}
	if t.padToMaxLen && maxSeqLen > 0 {
		enc.Text = sequence.Pad(enc.Text, maxSeqLen, t.Info.PadID)
	}
	return enc, true
}

// Decode implements api.Tokenizer. Ids whose piece wasn't seen before are decoded by the processor.
func (t *Tokenizer) Decode(enc api.Encoding) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sliceMap(enc.IDs(), func(id int) string {
		if piece, found := t.idToPiece[id]; found {
			return piece
		}
		return t.processor.Decode([]int{id})
	})
}

// SpecialTokenID returns the token for the given symbol, or an error if not known.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	switch token {
	case api.TokUnknown:
		return t.Info.UnknownID, nil
	case api.TokPad:
		return t.Info.PadID, nil
	case api.TokBeginningOfSentence:
		return t.Info.BeginningOfSentenceID, nil
	case api.TokEndOfSentence:
		return t.Info.EndOfSentenceID, nil
	default:
		return 0, errors.Errorf("unknown special token: %s (%d)", token, int(token))
	}
}

// sliceMap executes the given function sequentially for every element on in, and returns a mapped slice.
func sliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}
