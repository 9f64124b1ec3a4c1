package images

import (
	"context"

	"github.com/pkg/errors"
)

// Errors returned by raster validation and by the preprocessing stages.
// Callers match them with errors.Is; the returned error carries the offending
// dimensions as context.
var (
	// ErrInvalidDimension is returned when a requested target size is not positive.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrEmptyInput is returned when a source raster holds no elements or uses
	// a channel count the resizer cannot sample.
	ErrEmptyInput = errors.New("empty input")
	// ErrShapeMismatch is returned when the declared width*height*channels does
	// not match the length of the backing buffer.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnsupportedChannelCount is returned when the channel count is outside
	// the supported set {1, 3, 4}.
	ErrUnsupportedChannelCount = errors.New("unsupported channel count")
)

// ErrorCategory returns a short label for err suitable for metric labels.
//
// Arguments:
// - err: The error to classify.
//
// Returns:
// - One of "invalid_dimension", "empty_input", "shape_mismatch",
// "unsupported_channels", "canceled" or "other". An empty string for nil.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDimension):
		return "invalid_dimension"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrUnsupportedChannelCount):
		return "unsupported_channels"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
