package datasets

import (
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DefaultMaxSeqLen is the default limit of encoded positions per record.
	DefaultMaxSeqLen = 128

	// DefaultSplitChar separates the tokens and labels of sequence labeling examples.
	DefaultSplitChar = "\x02"

	// DefaultNoEntityLabel is the label given to special tokens in sequence labeling.
	DefaultNoEntityLabel = "O"
)

// Options for building a Dataset.
type Options struct {
	// MaxSeqLen is passed to the tokenizer, which enforces it. <= 0 means no limit.
	MaxSeqLen int

	// SplitChar separates tokens (and labels) in sequence labeling examples.
	SplitChar string

	// NoEntityLabel is the sequence labeling label for positions that are not subtokens of the
	// text (special and padding tokens). It must be in Labels.
	NoEntityLabel string

	// Labels for labeled data, nil for unlabeled data.
	Labels *LabelIndex
}

// DefaultOptions returns the default Options, with no labels.
func DefaultOptions() Options {
	return Options{
		MaxSeqLen:     DefaultMaxSeqLen,
		SplitChar:     DefaultSplitChar,
		NoEntityLabel: DefaultNoEntityLabel,
	}
}

// Dataset is an ordered collection of Records, built once and read-only afterwards.
// It is safe for concurrent reads.
type Dataset struct {
	task    Task
	records []Record
	labels  *LabelIndex
}

// New converts the examples to Records for the given task, in order.
//
// Examples the tokenizer can't represent are logged and dropped, so the Dataset may be shorter
// than examples. Any other failure (ErrAlignment, ErrUnknownLabel) aborts the construction.
func New(tokenizer api.Tokenizer, task Task, examples []Example, opts Options) (*Dataset, error) {
	if task == TaskSequenceLabeling && opts.Labels != nil {
		if _, err := opts.Labels.ID(opts.NoEntityLabel); err != nil {
			return nil, errors.WithMessagef(err, "no entity label")
		}
	}
	builder := NewRecordBuilder(tokenizer, opts)
	var build func(Example) (*Record, bool, error)
	switch task {
	case TaskClassification:
		build = builder.BuildClassification
	case TaskSequenceLabeling:
		build = builder.BuildLabeling
	default:
		return nil, errors.Errorf("unknown task %s", task)
	}

	d := &Dataset{task: task, labels: opts.Labels}
	for _, example := range examples {
		rec, ok, err := build(example)
		if err != nil {
			return nil, err
		}
		if !ok {
			klog.Infof("The text %q has been dropped as it has no words in the vocab after tokenization.", example.Text)
			continue
		}
		d.records = append(d.records, *rec)
	}
	klog.V(1).Infof("Built %s dataset with %d records from %d examples", task, len(d.records), len(examples))
	return d, nil
}

// FromReader reads the examples with ReadExamples and builds the Dataset with New.
func FromReader(tokenizer api.Tokenizer, task Task, r io.Reader, hasHeader bool, opts Options) (*Dataset, error) {
	examples, err := ReadExamples(r, task, hasHeader)
	if err != nil {
		return nil, err
	}
	return New(tokenizer, task, examples, opts)
}

// Task returns the task the Dataset was built for.
func (d *Dataset) Task() Task {
	return d.task
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Labels returns the labels, in id order, or nil for unlabeled datasets.
func (d *Dataset) Labels() []string {
	if d.labels == nil {
		return nil
	}
	return d.labels.Labels()
}

// LabelIndex returns the LabelIndex shared by the records, or nil for unlabeled datasets.
func (d *Dataset) LabelIndex() *LabelIndex {
	return d.labels
}

// Record returns the i-th record. It must not be modified.
func (d *Dataset) Record(i int) (*Record, error) {
	if i < 0 || i >= len(d.records) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "record %d of a dataset with %d records", i, len(d.records))
	}
	return &d.records[i], nil
}

// Get returns the fields of the i-th record: the encoding fields followed by the label, if any.
// The returned values are copies.
func (d *Dataset) Get(i int) ([]api.Field, error) {
	rec, err := d.Record(i)
	if err != nil {
		return nil, err
	}
	return rec.Fields(), nil
}

// Tensors returns the fields of the i-th record (see Get) as int32 tensors. Scalar fields
// (seq_len and the classification label) become scalar tensors.
func (d *Dataset) Tensors(i int) ([]*tensors.Tensor, error) {
	fields, err := d.Get(i)
	if err != nil {
		return nil, err
	}
	result := make([]*tensors.Tensor, len(fields))
	for j, field := range fields {
		values := make([]int32, len(field.Values))
		for k, v := range field.Values {
			values[k] = int32(v)
		}
		if field.Scalar {
			result[j] = tensors.FromFlatDataAndDimensions(values)
		} else {
			result[j] = tensors.FromFlatDataAndDimensions(values, len(values))
		}
	}
	return result, nil
}
