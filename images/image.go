// Package images - Raster definition and the conversions between rasters and
// the image types produced by decoders and OpenCV.
package images

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Raster is a decoded image stored as interleaved (HWC), row-major bytes.
//
// The element for (row, col, channel) lives at
// Data[row*Width*Channels + col*Channels + channel].
type Raster struct {
	// The width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the image in pixels.
	Height int `json:"height" yaml:"height"`
	// The number of interleaved channels per pixel (1, 3 or 4).
	Channels int `json:"channels" yaml:"channels"`
	// The interleaved pixel data.
	Data []byte `json:"data" yaml:"data"`
}

// NewRaster allocates a zeroed raster of the given shape.
//
// Arguments:
// - width: The width in pixels.
// - height: The height in pixels.
// - channels: The number of interleaved channels.
//
// Returns:
// - The raster, or an error if any dimension is not positive.
//
// @example
// r, err := NewRaster(640, 640, 3)
func NewRaster(width, height, channels int) (Raster, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return Raster{}, errors.Wrapf(ErrInvalidDimension, "raster %dx%dx%d", width, height, channels)
	}
	n, ok := ElementCount(width, height, channels)
	if !ok {
		return Raster{}, errors.Wrapf(ErrInvalidDimension, "raster %dx%dx%d is too large", width, height, channels)
	}
	return Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]byte, n),
	}, nil
}

// ElementCount returns width*height*channels and whether the product is
// representable. Non-positive dimensions count as zero elements.
func ElementCount(width, height, channels int) (int, bool) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return 0, true
	}
	if width > math.MaxInt/height {
		return 0, false
	}
	plane := width * height
	if plane > math.MaxInt/channels {
		return 0, false
	}
	return plane * channels, true
}

// Len returns the element count declared by the raster's shape, or 0 when a
// dimension is not positive or the product overflows int.
func (r Raster) Len() int {
	n, _ := ElementCount(r.Width, r.Height, r.Channels)
	return n
}

// Empty reports whether the raster holds no elements.
func (r Raster) Empty() bool {
	return len(r.Data) == 0 || r.Width <= 0 || r.Height <= 0 || r.Channels <= 0
}

// Offset returns the index into Data of the given element.
func (r Raster) Offset(row, col, channel int) int {
	return row*r.Width*r.Channels + col*r.Channels + channel
}

// Clone returns a deep copy of the raster.
func (r Raster) Clone() Raster {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	r.Data = data
	return r
}

// String returns a short shape description, e.g. "640x480x3".
func (r Raster) String() string {
	return fmt.Sprintf("%dx%dx%d", r.Width, r.Height, r.Channels)
}

// SupportedChannels reports whether c is one of the channel counts the
// pipeline accepts: grayscale, three-channel color, or color with alpha.
func SupportedChannels(c int) bool {
	switch c {
	case 1, 3, 4:
		return true
	default:
		return false
	}
}

// Validate checks the raster's layout contract.
//
// Returns:
// - ErrShapeMismatch if a dimension is not positive, Width*Height*Channels
// overflows int, or the data length does not equal that product.
// - ErrUnsupportedChannelCount if Channels is not 1, 3 or 4.
//
// @example
//
//	if err := r.Validate(); err != nil {
//	    return err
//	}
func (r Raster) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Wrapf(ErrShapeMismatch, "non-positive raster size %dx%d", r.Width, r.Height)
	}
	if !SupportedChannels(r.Channels) {
		return errors.Wrapf(ErrUnsupportedChannelCount, "%d channels", r.Channels)
	}
	want, ok := ElementCount(r.Width, r.Height, r.Channels)
	if !ok {
		return errors.Wrapf(ErrShapeMismatch, "raster %s overflows the addressable element count", r)
	}
	if len(r.Data) != want {
		return errors.Wrapf(ErrShapeMismatch, "raster %s declares %d elements, buffer holds %d",
			r, want, len(r.Data))
	}
	return nil
}
