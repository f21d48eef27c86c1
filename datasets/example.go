// Package datasets converts labeled text into model-ready records for text classification and
// sequence labeling (e.g. named-entity tagging).
//
// The interesting part is the sequence labeling alignment: labels are given per word, while the
// tokenizer splits words into subtokens and injects special tokens. The Aligner spreads the word
// labels over the subtokens, and AlignLabels maps them onto the exact positions of the encoding.
//
// Tokenizers are consumed through the api.Tokenizer capability, see the tokenizers packages.
package datasets

import "fmt"

// Task is the supervised task a Dataset is built for.
type Task int

const (
	// TaskClassification labels whole sequences (or sequence pairs).
	TaskClassification Task = iota

	// TaskSequenceLabeling labels every token of a sequence.
	TaskSequenceLabeling
)

// String implements fmt.Stringer.
func (t Task) String() string {
	switch t {
	case TaskClassification:
		return "classification"
	case TaskSequenceLabeling:
		return "sequence_labeling"
	default:
		return fmt.Sprintf("Task(%d)", int(t))
	}
}

// Example is one raw input record.
//
// An empty TextPair or Label means it is absent. For sequence labeling, Text and Label
// are delimiter-joined sequences with the same number of elements.
type Example struct {
	ID       int
	Text     string
	TextPair string
	Label    string
}

// String implements fmt.Stringer.
func (e Example) String() string {
	if e.TextPair == "" {
		return fmt.Sprintf("text=%s\tlabel=%s", e.Text, e.Label)
	}
	return fmt.Sprintf("text_a=%s\ttext_b=%s\tlabel=%s", e.Text, e.TextPair, e.Label)
}
