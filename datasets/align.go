package datasets

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	spanBeginPrefix  = "B-"
	spanInsidePrefix = "I-"
)

// WordSplitter splits one word into subtokens. Every api.Tokenizer is a WordSplitter.
type WordSplitter interface {
	Tokenize(unit string) []string
}

// AlignedSequence holds subtokens and, for labeled data, one label per subtoken.
// Labels is nil for unlabeled data.
type AlignedSequence struct {
	Subtokens []string
	Labels    []string
}

// Aligner re-segments word level (token, label) pairs into subtoken level pairs.
type Aligner struct {
	splitter WordSplitter
}

// NewAligner creates an Aligner that splits words with splitter.
func NewAligner(splitter WordSplitter) *Aligner {
	return &Aligner{splitter: splitter}
}

// ContinuationLabel is the label of the second and following subtokens of a word labeled label:
// a span begin tag "B-X" becomes the span inside tag "I-X", any other label is kept.
func ContinuationLabel(label string) string {
	if suffix, found := strings.CutPrefix(label, spanBeginPrefix); found {
		return spanInsidePrefix + suffix
	}
	return label
}

// Realign splits every token into subtokens, and spreads its label over them: the first
// subtoken keeps the label, the following ones get ContinuationLabel(label). Tokens that
// split into nothing are dropped along with their label.
//
// If labels is nil, only the subtokens are returned. Otherwise it must have the same length
// as tokens, or ErrAlignment is returned.
func (a *Aligner) Realign(tokens, labels []string) (AlignedSequence, error) {
	if labels == nil {
		var seq AlignedSequence
		for _, token := range tokens {
			seq.Subtokens = append(seq.Subtokens, a.splitter.Tokenize(token)...)
		}
		return seq, nil
	}

	if len(tokens) != len(labels) {
		return AlignedSequence{}, errors.Wrapf(ErrAlignment,
			"%d tokens but %d labels", len(tokens), len(labels))
	}
	seq := AlignedSequence{Labels: []string{}}
	for i, token := range tokens {
		subtokens := a.splitter.Tokenize(token)
		if len(subtokens) == 0 {
			continue
		}
		seq.Subtokens = append(seq.Subtokens, subtokens...)
		seq.Labels = append(seq.Labels, labels[i])
		if len(subtokens) > 1 {
			continuation := ContinuationLabel(labels[i])
			for range subtokens[1:] {
				seq.Labels = append(seq.Labels, continuation)
			}
		}
	}
	if len(seq.Subtokens) != len(seq.Labels) {
		return AlignedSequence{}, errors.Wrapf(ErrAlignment,
			"%d subtokens but %d subtoken labels", len(seq.Subtokens), len(seq.Labels))
	}
	return seq, nil
}
