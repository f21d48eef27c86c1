package datasets

import (
	"slices"
	"strings"

	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/pkg/errors"
)

// Record is one model-ready example: the tokenizer's encoding plus, for labeled data, the label.
type Record struct {
	Encoding api.Encoding

	// HasLabel is true if the example was labeled. Then ClassID (classification) or TagIDs
	// (sequence labeling, one id per encoded position) is set.
	HasLabel bool
	ClassID  int
	TagIDs   []int
}

// Fields returns a copy of the record's numeric fields in model-input order, with the "label"
// field last if the record is labeled.
func (r *Record) Fields() []api.Field {
	fields := r.Encoding.Fields()
	for i := range fields {
		fields[i].Values = slices.Clone(fields[i].Values)
	}
	if r.HasLabel {
		if r.TagIDs != nil {
			fields = append(fields, api.Field{Name: "label", Values: slices.Clone(r.TagIDs)})
		} else {
			fields = append(fields, api.Field{Name: "label", Values: []int{r.ClassID}, Scalar: true})
		}
	}
	return fields
}

// RecordBuilder drives the tokenizer to convert Examples to Records.
type RecordBuilder struct {
	tokenizer     api.Tokenizer
	aligner       *Aligner
	labels        *LabelIndex
	maxSeqLen     int
	splitChar     string
	noEntityLabel string
}

// NewRecordBuilder creates a RecordBuilder. opts.Labels may be nil for unlabeled data.
func NewRecordBuilder(tokenizer api.Tokenizer, opts Options) *RecordBuilder {
	return &RecordBuilder{
		tokenizer:     tokenizer,
		aligner:       NewAligner(tokenizer),
		labels:        opts.Labels,
		maxSeqLen:     opts.MaxSeqLen,
		splitChar:     opts.SplitChar,
		noEntityLabel: opts.NoEntityLabel,
	}
}

// BuildClassification encodes the example text (and text pair) and attaches the label id.
//
// It returns ok=false, with no error, if the tokenizer declines the text: the caller is expected
// to drop the example.
func (b *RecordBuilder) BuildClassification(ex Example) (rec *Record, ok bool, err error) {
	enc, ok := b.tokenizer.Encode(ex.Text, ex.TextPair, b.maxSeqLen)
	if !ok {
		return nil, false, nil
	}
	rec = &Record{Encoding: enc}
	if ex.Label != "" {
		if b.labels == nil {
			return nil, false, errors.Wrapf(ErrUnknownLabel, "example %d has label %q but no labels were given", ex.ID, ex.Label)
		}
		rec.ClassID, err = b.labels.ID(ex.Label)
		if err != nil {
			return nil, false, errors.WithMessagef(err, "example %d", ex.ID)
		}
		rec.HasLabel = true
	}
	return rec, true, nil
}

// BuildLabeling splits the example text and labels on the delimiter, realigns them to subtokens,
// encodes the subtokens and maps the labels onto every encoded position with AlignLabels.
//
// It returns ok=false, with no error, if the tokenizer declines the subtokens.
func (b *RecordBuilder) BuildLabeling(ex Example) (rec *Record, ok bool, err error) {
	tokens := strings.Split(ex.Text, b.splitChar)
	var labels []string
	if ex.Label != "" {
		labels = strings.Split(ex.Label, b.splitChar)
	}
	seq, err := b.aligner.Realign(tokens, labels)
	if err != nil {
		return nil, false, errors.WithMessagef(err, "example %d", ex.ID)
	}
	enc, ok := b.tokenizer.EncodePieces(seq.Subtokens, b.maxSeqLen)
	if !ok {
		return nil, false, nil
	}
	rec = &Record{Encoding: enc}
	if seq.Labels != nil {
		if b.labels == nil {
			return nil, false, errors.Wrapf(ErrUnknownLabel, "example %d is labeled but no labels were given", ex.ID)
		}
		tags := AlignLabels(b.tokenizer.Decode(enc), seq.Subtokens, seq.Labels, b.noEntityLabel)
		rec.TagIDs, err = b.labels.IDs(tags)
		if err != nil {
			return nil, false, errors.WithMessagef(err, "example %d", ex.ID)
		}
		rec.HasLabel = true
	}
	return rec, true, nil
}

// AlignLabels returns one label per decoded token. It walks the decoded tokens (special and
// padding tokens included) and the subtokens together: a decoded token equal to the next
// subtoken takes its label, any other decoded token takes noEntityLabel.
//
// labels must have the same length as subtokens. Matching is by surface form only, first match
// wins: a subtoken spelled like a special token may be matched against it.
func AlignLabels(decoded, subtokens, labels []string, noEntityLabel string) []string {
	aligned := make([]string, len(decoded))
	next := 0
	for i, token := range decoded {
		if next < len(subtokens) && token == subtokens[next] {
			aligned[i] = labels[next]
			next++
		} else {
			aligned[i] = noEntityLabel
		}
	}
	return aligned
}
