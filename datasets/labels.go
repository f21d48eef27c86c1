package datasets

import (
	"os"
	"slices"
	"strings"

	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LabelIndex maps label strings to integer ids and back. The id of a label is its position
// in the label list.
//
// It is immutable once built, and safe for concurrent use.
type LabelIndex struct {
	labels []string
	index  map[string]int
}

// NewLabelIndex creates a LabelIndex from the given labels, in order.
//
// Labels must be non-empty, single line and without surrounding spaces, so they can be written
// to and read back from a label file. Duplicated labels are not checked: the last occurrence
// wins in the label->id mapping.
func NewLabelIndex(labels []string) (*LabelIndex, error) {
	if len(labels) == 0 {
		return nil, errors.New("empty label list")
	}
	for id, label := range labels {
		if label == "" || label != strings.TrimSpace(label) || strings.ContainsAny(label, "\r\n") {
			return nil, errors.Errorf("invalid label %q (id %d): labels can't be empty, span lines or have surrounding spaces", label, id)
		}
	}
	li := &LabelIndex{
		labels: slices.Clone(labels),
		index:  make(map[string]int, len(labels)),
	}
	for id, label := range li.labels {
		li.index[label] = id
	}
	return li, nil
}

// LoadLabelIndex reads a label file, with one label per line.
// It returns ErrMissingResource if the file doesn't exist.
func LoadLabelIndex(labelFile string) (*LabelIndex, error) {
	if !files.Exists(labelFile) {
		return nil, errors.Wrapf(ErrMissingResource, "label file %q not found", labelFile)
	}
	content, err := os.ReadFile(labelFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read label file %q", labelFile)
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, errors.Errorf("label file %q is empty", labelFile)
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	li, err := NewLabelIndex(lines)
	if err != nil {
		return nil, errors.WithMessagef(err, "label file %q", labelFile)
	}
	return li, nil
}

// BuildLabelIndex builds the LabelIndex from an explicit list of labels or, if not given, from a
// label file. If both are given the explicit list is used, and a warning is logged.
//
// It returns nil (and no error) if neither is given: the data is not labeled.
func BuildLabelIndex(labels []string, labelFile string) (*LabelIndex, error) {
	if len(labels) > 0 {
		if labelFile != "" {
			klog.Warningf("As a label list has been given, the label file %q is ignored", labelFile)
		}
		return NewLabelIndex(labels)
	}
	if labelFile != "" {
		return LoadLabelIndex(labelFile)
	}
	return nil, nil
}

// ID returns the id of the label, or ErrUnknownLabel if it is not in the index.
func (li *LabelIndex) ID(label string) (int, error) {
	id, found := li.index[label]
	if !found {
		return 0, errors.Wrapf(ErrUnknownLabel, "label %q is not one of %q", label, li.labels)
	}
	return id, nil
}

// IDs maps every label to its id, failing on the first unknown label.
func (li *LabelIndex) IDs(labels []string) ([]int, error) {
	ids := make([]int, len(labels))
	for i, label := range labels {
		id, err := li.ID(label)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Label returns the label with the given id.
func (li *LabelIndex) Label(id int) (string, bool) {
	if id < 0 || id >= len(li.labels) {
		return "", false
	}
	return li.labels[id], true
}

// Labels returns a copy of the labels, in id order.
func (li *LabelIndex) Labels() []string {
	return slices.Clone(li.labels)
}

// Len returns the number of labels.
func (li *LabelIndex) Len() int {
	return len(li.labels)
}

// WriteLabelFile writes the labels in the label file format read by LoadLabelIndex.
func (li *LabelIndex) WriteLabelFile(labelFile string) error {
	content := strings.Join(li.labels, "\n") + "\n"
	if err := os.WriteFile(labelFile, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to write label file %q", labelFile)
	}
	return nil
}
