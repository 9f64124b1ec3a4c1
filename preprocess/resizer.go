package preprocess

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tensorprep/images"
)

// Resampler is the geometric resampling primitive a Resizer delegates to.
// Implementations may assume src has passed validation and that width and
// height are positive; they must not modify src.
type Resampler interface {
	// Resample scales src to width x height, keeping its channel count and
	// interleaved layout.
	Resample(src images.Raster, width, height int) (images.Raster, error)
}

// Backend names a Resampler implementation.
type Backend string

const (
	// BackendNfnt resamples with github.com/nfnt/resize.
	BackendNfnt Backend = "nfnt"
	// BackendGocv resamples with OpenCV's resize through gocv.
	BackendGocv Backend = "gocv"
	// BackendKernel resamples with the in-module separable kernels.
	BackendKernel Backend = "kernel"
)

// ParseBackend converts a configuration string into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendNfnt, "":
		return BackendNfnt, nil
	case BackendGocv, "opencv":
		return BackendGocv, nil
	case BackendKernel, "native":
		return BackendKernel, nil
	default:
		return "", errors.Errorf("unknown resize backend %q", s)
	}
}

// NewResampler builds the Resampler for a backend and filter.
//
// Arguments:
// - backend: The resampling implementation.
// - filter: The interpolation filter.
//
// Returns:
// - The resampler, or an error for an unknown backend.
//
// @example
// resampler, err := NewResampler(BackendNfnt, images.BilinearFilter)
func NewResampler(backend Backend, filter images.ResampleFilter) (Resampler, error) {
	switch backend {
	case BackendNfnt:
		return NewNfntResampler(filter), nil
	case BackendGocv:
		return NewGocvResampler(filter), nil
	case BackendKernel:
		return NewKernelResampler(filter), nil
	default:
		return nil, errors.Errorf("unknown resize backend %q", backend)
	}
}

// Resizer scales rasters to a requested resolution. It validates the shape
// preconditions and postconditions around a Resampler; the resampling math
// itself belongs to the Resampler.
//
// A Resizer holds no per-call state and is safe for concurrent use as long as
// its Resampler is.
type Resizer struct {
	resampler Resampler
}

// NewResizer returns a Resizer delegating to resampler.
//
// @example
// resizer := NewResizer(NewNfntResampler(images.BilinearFilter))
// resized, err := resizer.Resize(raster, 640, 640)
func NewResizer(resampler Resampler) *Resizer {
	return &Resizer{resampler: resampler}
}

// Resize scales img to width x height.
//
// Arguments:
// - img: The source raster. It is not modified.
// - width: The target width in pixels.
// - height: The target height in pixels.
//
// Returns:
// - A new raster of width x height with img's channel count.
// - ErrInvalidDimension if width or height is not positive, or the target
// element count overflows int.
// - ErrEmptyInput if img holds no elements or has a channel count other than
// 1, 3 or 4.
// - ErrShapeMismatch if img's data length does not match its shape.
func (r *Resizer) Resize(img images.Raster, width, height int) (images.Raster, error) {
	if width <= 0 || height <= 0 {
		return images.Raster{}, errors.Wrapf(images.ErrInvalidDimension, "target %dx%d", width, height)
	}
	if _, ok := images.ElementCount(width, height, img.Channels); !ok {
		return images.Raster{}, errors.Wrapf(images.ErrInvalidDimension, "target %dx%d is too large", width, height)
	}
	if img.Empty() {
		return images.Raster{}, errors.Wrapf(images.ErrEmptyInput, "source %s with %d bytes", img, len(img.Data))
	}
	if !images.SupportedChannels(img.Channels) {
		return images.Raster{}, errors.Wrapf(images.ErrEmptyInput, "source has %d channels", img.Channels)
	}
	if err := img.Validate(); err != nil {
		return images.Raster{}, errors.Wrap(err, "resize source")
	}

	// Matching size: hand back a copy so the caller never aliases its input.
	if img.Width == width && img.Height == height {
		return img.Clone(), nil
	}

	out, err := r.resampler.Resample(img, width, height)
	if err != nil {
		return images.Raster{}, errors.Wrap(err, "resample")
	}

	if out.Width != width || out.Height != height || out.Channels != img.Channels {
		return images.Raster{}, errors.Wrapf(images.ErrShapeMismatch,
			"resampler produced %s, want %dx%dx%d", out, width, height, img.Channels)
	}
	if err := out.Validate(); err != nil {
		return images.Raster{}, errors.Wrap(err, "resize result")
	}

	return out, nil
}
