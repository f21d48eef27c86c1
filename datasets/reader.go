package datasets

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/pkg/errors"
)

// maxLineSize is the longest input line accepted by ReadExamples.
const maxLineSize = 16 << 20

// ReadExamples reads tab separated lines into Examples, with sequential ids starting at 0.
//
//   - TaskClassification: "label<TAB>text", with an optional third "text_pair" column.
//   - TaskSequenceLabeling: "text<TAB>labels", where the labels column may be omitted
//     for unlabeled data.
//
// Quote characters have no special meaning. If hasHeader is set, the first line is skipped.
// Empty lines are ignored.
func ReadExamples(r io.Reader, task Task, hasHeader bool) ([]Example, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var examples []Example
	for lineNum := 1; scanner.Scan(); lineNum++ {
		if hasHeader && lineNum == 1 {
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		columns := strings.Split(line, "\t")
		example := Example{ID: len(examples)}
		switch task {
		case TaskClassification:
			if len(columns) < 2 {
				return nil, errors.Wrapf(ErrMalformedInput, "line %d: expected \"label<TAB>text\", got %d column(s)", lineNum, len(columns))
			}
			example.Label, example.Text = columns[0], columns[1]
			if len(columns) > 2 {
				example.TextPair = columns[2]
			}
		case TaskSequenceLabeling:
			example.Text = columns[0]
			if len(columns) > 1 {
				example.Label = columns[1]
			}
		default:
			return nil, errors.Errorf("unknown task %s", task)
		}
		examples = append(examples, example)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read examples")
	}
	return examples, nil
}

// ReadExamplesFile is like ReadExamples, reading from dataFile. It returns ErrMissingResource
// if the file doesn't exist.
func ReadExamplesFile(dataFile string, task Task, hasHeader bool) ([]Example, error) {
	if !files.Exists(dataFile) {
		return nil, errors.Wrapf(ErrMissingResource, "data file %q not found", dataFile)
	}
	f, err := os.Open(dataFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open data file %q", dataFile)
	}
	defer f.Close()
	examples, err := ReadExamples(f, task, hasHeader)
	if err != nil {
		return nil, errors.WithMessagef(err, "data file %q", dataFile)
	}
	return examples, nil
}
