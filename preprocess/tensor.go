package preprocess

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tensorprep/images"
)

// Tensor is a planar (CHW) float32 image tensor.
//
// The element for (channel, row, col) lives at
// Data[channel*Height*Width + row*Width + col].
type Tensor struct {
	// Channels is the number of planes.
	Channels int `json:"channels" yaml:"channels"`
	// Height is the number of rows per plane.
	Height int `json:"height" yaml:"height"`
	// Width is the number of columns per plane.
	Width int `json:"width" yaml:"width"`
	// Data is the planar float32 data.
	Data []float32 `json:"-" yaml:"-"`
}

// Len returns the element count declared by the tensor's shape, or 0 when a
// dimension is not positive or the product overflows int.
func (t Tensor) Len() int {
	n, _ := images.ElementCount(t.Width, t.Height, t.Channels)
	return n
}

// Shape returns the tensor shape as [C, H, W].
func (t Tensor) Shape() []int {
	return []int{t.Channels, t.Height, t.Width}
}

// BatchShape returns the shape with a leading batch dimension, [1, C, H, W],
// the layout inference engines expect for a single image.
func (t Tensor) BatchShape() []int64 {
	return []int64{1, int64(t.Channels), int64(t.Height), int64(t.Width)}
}

// Plane returns the contiguous slice holding channel c, or nil when c is out
// of range or the tensor fails validation.
func (t Tensor) Plane(c int) []float32 {
	if c < 0 || c >= t.Channels || t.Validate() != nil {
		return nil
	}
	size := t.Height * t.Width
	return t.Data[c*size : (c+1)*size]
}

// String returns a short shape description, e.g. "3x640x640".
func (t Tensor) String() string {
	return fmt.Sprintf("%dx%dx%d", t.Channels, t.Height, t.Width)
}

// Validate checks that the shape is positive, the channel count is supported,
// and the data length matches the shape.
func (t Tensor) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return errors.Wrapf(images.ErrShapeMismatch, "non-positive tensor size %dx%d", t.Width, t.Height)
	}
	if !images.SupportedChannels(t.Channels) {
		return errors.Wrapf(images.ErrUnsupportedChannelCount, "%d channels", t.Channels)
	}
	if _, ok := images.ElementCount(t.Width, t.Height, t.Channels); !ok {
		return errors.Wrapf(images.ErrShapeMismatch, "tensor %s overflows the addressable element count", t)
	}
	if len(t.Data) != t.Len() {
		return errors.Wrapf(images.ErrShapeMismatch, "tensor %s declares %d elements, buffer holds %d",
			t, t.Len(), len(t.Data))
	}
	return nil
}

// unitScale maps every byte value to its [0, 1] float32 equivalent, v / 255.
var unitScale = func() (lut [256]float32) {
	for i := range lut {
		lut[i] = float32(i) / 255.0
	}
	return lut
}()

// ToPlanarFloat converts an interleaved raster into a freshly allocated planar
// tensor with every element scaled from [0, 255] to [0, 1].
//
// Channel order is preserved as-is: a BGR raster yields B, G, R planes.
//
// Arguments:
// - img: The interleaved raster. It is not modified.
//
// Returns:
// - The planar tensor, of length Channels*Height*Width.
// - ErrShapeMismatch if the raster's data length does not match its shape.
// - ErrUnsupportedChannelCount if the channel count is not 1, 3 or 4.
//
// @example
// tensor, err := ToPlanarFloat(resized)
//
//	if err != nil {
//	    return err
//	}
func ToPlanarFloat(img images.Raster) (Tensor, error) {
	if err := img.Validate(); err != nil {
		return Tensor{}, errors.Wrap(err, "planarize")
	}

	t := Tensor{
		Channels: img.Channels,
		Height:   img.Height,
		Width:    img.Width,
		Data:     make([]float32, img.Len()),
	}
	planarize(t.Data, img)
	return t, nil
}

// FillPlanar writes the planar, [0, 1]-scaled form of img into dst, typically
// the backing slice of an inference engine's input tensor.
//
// Arguments:
// - dst: The destination; must hold at least Channels*Height*Width floats.
// - img: The interleaved raster. It is not modified.
//
// Returns:
// - ErrShapeMismatch if dst is too small or the raster's data length does not
// match its shape.
// - ErrUnsupportedChannelCount if the channel count is not 1, 3 or 4.
func FillPlanar(dst []float32, img images.Raster) error {
	if err := img.Validate(); err != nil {
		return errors.Wrap(err, "planarize")
	}
	if len(dst) < img.Len() {
		return errors.Wrapf(images.ErrShapeMismatch,
			"destination tensor only holds %d floats, needs %d", len(dst), img.Len())
	}
	planarize(dst[:img.Len()], img)
	return nil
}

// planarize performs the HWC to CHW transpose and scaling. The raster is read
// once in storage order; each byte lands in exactly one destination float.
func planarize(dst []float32, img images.Raster) {
	c := img.Channels
	plane := img.Width * img.Height
	src := img.Data

	switch c {
	case 1:
		for i, v := range src {
			dst[i] = unitScale[v]
		}
	case 3:
		p0, p1, p2 := dst[0:plane], dst[plane:2*plane], dst[2*plane:3*plane]
		for i, s := 0, 0; i < plane; i, s = i+1, s+3 {
			p0[i] = unitScale[src[s]]
			p1[i] = unitScale[src[s+1]]
			p2[i] = unitScale[src[s+2]]
		}
	default:
		for i, s := 0, 0; i < plane; i, s = i+1, s+c {
			for k := 0; k < c; k++ {
				dst[k*plane+i] = unitScale[src[s+k]]
			}
		}
	}
}

// FromPlanarFloat inverts ToPlanarFloat: it interleaves the planes back into a
// raster, scaling each element by 255 and rounding to the nearest byte. Values
// outside [0, 1] are clamped and NaN maps to 0.
//
// Arguments:
// - t: The planar tensor. It is not modified.
//
// Returns:
// - The interleaved raster.
// - error if the tensor fails validation.
//
// @example
// restored, err := FromPlanarFloat(tensor)
func FromPlanarFloat(t Tensor) (images.Raster, error) {
	if err := t.Validate(); err != nil {
		return images.Raster{}, errors.Wrap(err, "interleave")
	}

	c := t.Channels
	plane := t.Width * t.Height
	out := images.Raster{
		Width:    t.Width,
		Height:   t.Height,
		Channels: c,
		Data:     make([]byte, t.Len()),
	}

	for k := 0; k < c; k++ {
		src := t.Data[k*plane : (k+1)*plane]
		for i, v := range src {
			out.Data[i*c+k] = toByte(v)
		}
	}

	return out, nil
}

// toByte rescales a [0, 1] value to the nearest byte.
func toByte(v float32) byte {
	if math32.IsNaN(v) {
		return 0
	}
	scaled := math32.Round(v * 255)
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return byte(scaled)
	}
}
