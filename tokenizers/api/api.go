// Package api defines the Tokenizer capability consumed by the datasets package.
// It's kept separate to break the cyclic dependency between the datasets and the concrete
// tokenizer implementations (hftokenizer, vocab and sentencepiece).
package api

// Field is one named numeric array of an encoded record, e.g. "input_ids".
//
// Scalar fields (like "seq_len") hold exactly one value in Values.
type Field struct {
	Name   string
	Values []int
	Scalar bool
}

// Encoding is the model-ready representation of one text (or text pair) produced by a Tokenizer.
//
// There are two shapes: BertEncoding (input_ids/segment_ids) and SeqLenEncoding (text/seq_len).
type Encoding interface {
	// IDs returns the token ids, one per encoded position, including special and padding tokens.
	IDs() []int

	// Fields returns the numeric fields in model-input order.
	Fields() []Field
}

// BertEncoding is the encoding of BERT-style tokenizers: the token ids, with the special
// [CLS]/[SEP] tokens already injected, and the segment (token type) of each position.
type BertEncoding struct {
	InputIDs   []int
	SegmentIDs []int
}

// IDs implements Encoding.
func (e *BertEncoding) IDs() []int { return e.InputIDs }

// Fields implements Encoding.
func (e *BertEncoding) Fields() []Field {
	return []Field{
		{Name: "input_ids", Values: e.InputIDs},
		{Name: "segment_ids", Values: e.SegmentIDs},
	}
}

// SeqLenEncoding is the encoding of vocabulary-lookup tokenizers: the token ids (possibly padded)
// and the number of real (non-padding) tokens.
type SeqLenEncoding struct {
	Text   []int
	SeqLen int
}

// IDs implements Encoding.
func (e *SeqLenEncoding) IDs() []int { return e.Text }

// Fields implements Encoding.
func (e *SeqLenEncoding) Fields() []Field {
	return []Field{
		{Name: "text", Values: e.Text},
		{Name: "seq_len", Values: []int{e.SeqLen}, Scalar: true},
	}
}

// Tokenizer is the capability the datasets need from a tokenizer.
//
// Implementations are free in how they split and map text, but Decode must return exactly
// one token per position of the Encoding, special and padding tokens included.
type Tokenizer interface {
	// Tokenize splits one unit (a word) into subtokens. An empty result means the unit
	// can't be represented at all.
	Tokenize(unit string) []string

	// Encode tokenizes text (and textPair, if not empty) and returns its encoding, limited
	// to maxSeqLen positions (maxSeqLen <= 0 means no limit).
	// It returns false if the text has no usable representation.
	Encode(text, textPair string, maxSeqLen int) (Encoding, bool)

	// EncodePieces encodes subtokens previously returned by Tokenize, without re-splitting them.
	// It returns false if there is nothing to encode.
	EncodePieces(pieces []string, maxSeqLen int) (Encoding, bool)

	// Decode converts every position of the encoding back to its token string.
	Decode(enc Encoding) []string
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSpecialTokensCount
)

//go:generate enumer -type=SpecialToken -trimprefix=Tok -transform=snake -values -text -json -yaml api.go
