package datasets

import "github.com/pkg/errors"

// Errors returned by the package. They are wrapped with context, use errors.Is to check for them.
var (
	// ErrMissingResource is returned when a required file (data, label, config or cache file) doesn't exist.
	ErrMissingResource = errors.New("missing resource")

	// ErrAlignment is returned when tokens and labels of a sequence labeling example don't line up.
	ErrAlignment = errors.New("token/label alignment error")

	// ErrUnknownLabel is returned when a label is not in the LabelIndex.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrMalformedInput is returned for input lines that don't have the expected columns.
	ErrMalformedInput = errors.New("malformed input")

	// ErrIndexOutOfRange is returned when accessing a record outside of the Dataset.
	ErrIndexOutOfRange = errors.New("index out of range")
)
