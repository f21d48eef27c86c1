// Package hftokenizer implements a BERT-style WordPiece tokenizer for HuggingFace's tokenizer.json
// format (the "fast" tokenizers), or for a plain BERT vocab.txt file.
//
// It produces api.BertEncoding records: [CLS] text [SEP] (text_pair [SEP]), with segment ids.
package hftokenizer

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/gomlx/nlpdatasets/internal/sequence"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/pkg/errors"
)

// TokenizerJSON represents the parts of HuggingFace's tokenizer.json file used by this package.
type TokenizerJSON struct {
	Version      string        `json:"version"`
	AddedTokens  []AddedToken  `json:"added_tokens"`
	Normalizer   *Normalizer   `json:"normalizer"`
	PreTokenizer *PreTokenizer `json:"pre_tokenizer"`
	Model        Model         `json:"model"`
}

// AddedToken represents a special token added to the vocabulary.
type AddedToken struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	Lstrip     bool   `json:"lstrip"`
	Rstrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

// Normalizer represents the normalizer configuration.
//
// For "BertNormalizer", nil CleanText and HandleChineseChars default to true, and a nil
// StripAccents follows Lowercase.
type Normalizer struct {
	Type               string       `json:"type"`
	Lowercase          bool         `json:"lowercase"`
	CleanText          *bool        `json:"clean_text"`
	HandleChineseChars *bool        `json:"handle_chinese_chars"`
	StripAccents       *bool        `json:"strip_accents"`
	Normalizers        []Normalizer `json:"normalizers"`
}

// PreTokenizer represents the pre-tokenizer configuration.
type PreTokenizer struct {
	Type          string         `json:"type"`
	PreTokenizers []PreTokenizer `json:"pretokenizers"`
}

// Model represents the WordPiece model.
type Model struct {
	Type                    string         `json:"type"`
	Vocab                   map[string]int `json:"vocab"`
	UnkToken                string         `json:"unk_token"`
	ContinuingSubwordPrefix string         `json:"continuing_subword_prefix"`
	MaxInputCharsPerWord    int            `json:"max_input_chars_per_word"`
}

// Tokenizer implements api.Tokenizer with WordPiece splitting and BERT special tokens.
type Tokenizer struct {
	tokenizer *TokenizerJSON
	idToToken map[int]string

	// Added tokens lookup (content -> id)
	addedTokens map[string]int

	// Special token IDs, -1 if not present.
	unkID  int
	padID  int
	clsID  int
	sepID  int
	maskID int

	padToMaxSeqLen bool
}

// Compile time assert that Tokenizer implements api.Tokenizer interface.
var _ api.Tokenizer = &Tokenizer{}

// Option configures a Tokenizer.
type Option func(t *Tokenizer)

// WithPadding makes Encode and EncodePieces pad every encoding with [PAD] up to maxSeqLen.
// By default encodings are not padded.
func WithPadding(pad bool) Option {
	return func(t *Tokenizer) {
		t.padToMaxSeqLen = pad
	}
}

// NewFromFile creates a tokenizer from a local tokenizer.json file path.
func NewFromFile(filePath string, options ...Option) (*Tokenizer, error) {
	if !files.Exists(filePath) {
		return nil, errors.Errorf("tokenizer file %q not found", filePath)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer.json file %q", filePath)
	}
	return NewFromContent(content, options...)
}

// NewFromContent creates a tokenizer from tokenizer.json content.
func NewFromContent(content []byte, options ...Option) (*Tokenizer, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}
	return newTokenizer(&tj, options)
}

// NewFromVocabFile creates a tokenizer from a BERT vocab.txt file: one token per line, the line
// number being the token id. It uses the BERT normalizer (lowercasing if lowercase is set) and
// the BERT pre-tokenizer.
func NewFromVocabFile(vocabPath string, lowercase bool, options ...Option) (*Tokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocab file %q", vocabPath)
	}
	defer f.Close()

	vocab := make(map[string]int)
	scanner := bufio.NewScanner(f)
	for id := 0; scanner.Scan(); id++ {
		vocab[strings.TrimRight(scanner.Text(), "\r\n")] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read vocab file %q", vocabPath)
	}

	tj := &TokenizerJSON{
		Normalizer:   &Normalizer{Type: "BertNormalizer", Lowercase: lowercase},
		PreTokenizer: &PreTokenizer{Type: "BertPreTokenizer"},
		Model: Model{
			Type:                    "WordPiece",
			Vocab:                   vocab,
			UnkToken:                "[UNK]",
			ContinuingSubwordPrefix: "##",
		},
	}
	return newTokenizer(tj, options)
}

func newTokenizer(tj *TokenizerJSON, options []Option) (*Tokenizer, error) {
	if tj.Model.Type != "WordPiece" {
		return nil, errors.Errorf("unsupported tokenizer model type %q, only WordPiece is supported", tj.Model.Type)
	}
	t := &Tokenizer{
		tokenizer:   tj,
		idToToken:   make(map[int]string),
		addedTokens: make(map[string]int),
	}
	for token, id := range tj.Model.Vocab {
		t.idToToken[id] = token
	}
	for _, at := range tj.AddedTokens {
		t.addedTokens[at.Content] = at.ID
		t.idToToken[at.ID] = at.Content
	}
	t.resolveSpecialTokens()
	if t.clsID < 0 || t.sepID < 0 {
		return nil, errors.Errorf("tokenizer is missing the [CLS] or [SEP] special token")
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// resolveSpecialTokens maps the BERT special tokens to their IDs.
func (t *Tokenizer) resolveSpecialTokens() {
	lookup := func(contents ...string) int {
		for _, content := range contents {
			if id, found := t.TokenToID(content); found {
				return id
			}
		}
		return -1
	}
	t.unkID = lookup(t.tokenizer.Model.UnkToken, "[UNK]")
	t.padID = lookup("[PAD]")
	t.clsID = lookup("[CLS]")
	t.sepID = lookup("[SEP]")
	t.maskID = lookup("[MASK]")
}

// Tokenize implements api.Tokenizer: it normalizes, pre-tokenizes and splits the unit
// into WordPiece subtokens.
func (t *Tokenizer) Tokenize(unit string) []string {
	var pieces []string
	for _, word := range t.preTokenize(t.normalize(unit)) {
		pieces = append(pieces, t.wordPieces(word)...)
	}
	return pieces
}

// Number of special tokens added to single texts ("[CLS] a [SEP]") and to text pairs
// ("[CLS] a [SEP] b [SEP]").
const (
	reservedSingle = 2
	reservedPair   = 3
)

// fitsSpecialTokens reports whether maxSeqLen leaves room for the reserved special tokens.
func fitsSpecialTokens(maxSeqLen, reserved int) bool {
	return maxSeqLen <= 0 || maxSeqLen >= reserved
}

// Encode implements api.Tokenizer. The special tokens count towards maxSeqLen, and text pairs
// are truncated longest first.
//
// It declines (returns false) if maxSeqLen is positive but too small to hold the special tokens.
func (t *Tokenizer) Encode(text, textPair string, maxSeqLen int) (api.Encoding, bool) {
	reserved := reservedSingle
	if textPair != "" {
		reserved = reservedPair
	}
	if !fitsSpecialTokens(maxSeqLen, reserved) {
		return nil, false
	}
	pieces := t.Tokenize(text)
	var pairPieces []string
	if textPair != "" {
		pairPieces = t.Tokenize(textPair)
	}
	if len(pieces) == 0 && len(pairPieces) == 0 {
		return nil, false
	}
	if textPair == "" {
		pieces = sequence.Truncate(pieces, sequence.Budget(maxSeqLen, reservedSingle))
	} else {
		pieces, pairPieces = sequence.TruncatePair(pieces, pairPieces, sequence.Budget(maxSeqLen, reservedPair))
	}
	return t.assemble(pieces, pairPieces, textPair != "", maxSeqLen), true
}

// EncodePieces implements api.Tokenizer. Like Encode, it declines if maxSeqLen can't hold
// "[CLS]" and "[SEP]".
func (t *Tokenizer) EncodePieces(pieces []string, maxSeqLen int) (api.Encoding, bool) {
	if len(pieces) == 0 || !fitsSpecialTokens(maxSeqLen, reservedSingle) {
		return nil, false
	}
	pieces = sequence.Truncate(pieces, sequence.Budget(maxSeqLen, reservedSingle))
	return t.assemble(pieces, nil, false, maxSeqLen), true
}

// assemble builds "[CLS] a [SEP]" or "[CLS] a [SEP] b [SEP]", with the segment ids.
func (t *Tokenizer) assemble(a, b []string, isPair bool, maxSeqLen int) *api.BertEncoding {
	enc := &api.BertEncoding{}
	appendSegment := func(pieces []string, segment int) {
		for _, id := range t.piecesToIDs(pieces) {
			enc.InputIDs = append(enc.InputIDs, id)
			enc.SegmentIDs = append(enc.SegmentIDs, segment)
		}
		enc.InputIDs = append(enc.InputIDs, t.sepID)
		enc.SegmentIDs = append(enc.SegmentIDs, segment)
	}
	enc.InputIDs = append(enc.InputIDs, t.clsID)
	enc.SegmentIDs = append(enc.SegmentIDs, 0)
	appendSegment(a, 0)
	if isPair {
		appendSegment(b, 1)
	}
	if t.padToMaxSeqLen && maxSeqLen > 0 {
		padID := max(t.padID, 0)
		enc.InputIDs = sequence.Pad(enc.InputIDs, maxSeqLen, padID)
		enc.SegmentIDs = sequence.Pad(enc.SegmentIDs, maxSeqLen, 0)
	}
	return enc
}

// piecesToIDs looks up the pieces in the vocabulary. Unknown pieces map to [UNK], or are
// skipped if there is no [UNK] token.
func (t *Tokenizer) piecesToIDs(pieces []string) []int {
	ids := make([]int, 0, len(pieces))
	for _, piece := range pieces {
		if id, found := t.TokenToID(piece); found {
			ids = append(ids, id)
		} else if t.unkID >= 0 {
			ids = append(ids, t.unkID)
		}
	}
	return ids
}

// Decode implements api.Tokenizer: one token per position, special tokens included.
// Ids not in the vocabulary decode to the unknown token.
func (t *Tokenizer) Decode(enc api.Encoding) []string {
	ids := enc.IDs()
	tokens := make([]string, len(ids))
	for i, id := range ids {
		token, found := t.idToToken[id]
		if !found && t.unkID >= 0 {
			token = t.idToToken[t.unkID]
		}
		tokens[i] = token
	}
	return tokens
}

// wordPieces splits one pre-tokenized word with greedy longest-match-first WordPiece.
// A word that can't be fully matched becomes [UNK], or nothing if there is no [UNK] token.
func (t *Tokenizer) wordPieces(word string) []string {
	if word == "" {
		return nil
	}
	if _, found := t.addedTokens[word]; found {
		return []string{word}
	}
	unknown := func() []string {
		if t.unkID < 0 {
			return nil
		}
		return []string{t.idToToken[t.unkID]}
	}

	maxChars := t.tokenizer.Model.MaxInputCharsPerWord
	if maxChars == 0 {
		maxChars = 100
	}
	if len([]rune(word)) > maxChars {
		return unknown()
	}
	prefix := t.tokenizer.Model.ContinuingSubwordPrefix
	if prefix == "" {
		prefix = "##"
	}

	runes := []rune(word)
	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		var piece string
		for ; start < end; end-- {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = prefix + candidate
			}
			if _, found := t.tokenizer.Model.Vocab[candidate]; found {
				piece = candidate
				break
			}
		}
		if piece == "" {
			return unknown()
		}
		pieces = append(pieces, piece)
		start = end
	}
	return pieces
}

// SpecialTokenID returns the ID for a given special token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	var id int
	switch token {
	case api.TokUnknown:
		id = t.unkID
	case api.TokPad:
		id = t.padID
	case api.TokBeginningOfSentence, api.TokClassification:
		id = t.clsID
	case api.TokEndOfSentence:
		id = t.sepID
	case api.TokMask:
		id = t.maskID
	default:
		id = -1
	}
	if id < 0 {
		return 0, errors.Errorf("special token %s not found", token)
	}
	return id, nil
}

// VocabSize returns the number of distinct token ids.
func (t *Tokenizer) VocabSize() int {
	return len(t.idToToken)
}

// TokenToID converts a token string to its ID.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedTokens[token]; ok {
		return id, true
	}
	id, ok := t.tokenizer.Model.Vocab[token]
	return id, ok
}

// IDToToken converts a token ID to its string.
func (t *Tokenizer) IDToToken(id int) (string, bool) {
	token, ok := t.idToToken[id]
	return token, ok
}
