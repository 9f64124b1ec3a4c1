package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// FromImage copies a Go image into an interleaved raster.
//
// Three-channel rasters hold R, G, B in that order; four-channel rasters add
// non-premultiplied alpha; single-channel rasters hold luma.
//
// Arguments:
// - img: The source image.
// - channels: The channel count of the raster to produce (1, 3 or 4).
//
// Returns:
// - The raster.
// - error if channels is unsupported or the image is empty.
//
// @example
// r, err := FromImage(decoded, 3)
func FromImage(img image.Image, channels int) (Raster, error) {
	if img == nil {
		return Raster{}, errors.Wrap(ErrEmptyInput, "nil image")
	}
	if !SupportedChannels(channels) {
		return Raster{}, errors.Wrapf(ErrUnsupportedChannelCount, "%d channels", channels)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return Raster{}, errors.Wrapf(ErrEmptyInput, "image bounds %v", bounds)
	}

	r := Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]byte, width*height*channels),
	}

	switch src := img.(type) {
	case *image.Gray:
		if channels == 1 {
			for y := 0; y < height; y++ {
				start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				copy(r.Data[y*width:(y+1)*width], src.Pix[start:start+width])
			}
			return r, nil
		}
	case *image.NRGBA:
		if channels != 1 {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					s := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
					d := r.Offset(y, x, 0)
					copy(r.Data[d:d+channels], src.Pix[s:s+channels])
				}
			}
			return r, nil
		}
	case *image.RGBA:
		// Premultiplied equals straight alpha only when every pixel is opaque.
		if channels != 1 && src.Opaque() {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					s := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
					d := r.Offset(y, x, 0)
					copy(r.Data[d:d+channels], src.Pix[s:s+channels])
				}
			}
			return r, nil
		}
	}

	// Generic path through the color models.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			d := r.Offset(y, x, 0)
			if channels == 1 {
				r.Data[d] = color.GrayModel.Convert(c).(color.Gray).Y
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			r.Data[d] = n.R
			r.Data[d+1] = n.G
			r.Data[d+2] = n.B
			if channels == 4 {
				r.Data[d+3] = n.A
			}
		}
	}

	return r, nil
}

// ToImage wraps a copy of the raster in a Go image.
//
// Single-channel rasters become *image.Gray; three-channel rasters become
// opaque *image.NRGBA; four-channel rasters become *image.NRGBA with their
// alpha preserved.
//
// Returns:
// - The image.
// - error if the raster fails validation.
func (r Raster) ToImage() (image.Image, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		gray := image.NewGray(rect)
		copy(gray.Pix, r.Data)
		return gray, nil
	}

	dst := image.NewNRGBA(rect)
	for i, j := 0, 0; i < len(r.Data); i, j = i+r.Channels, j+4 {
		dst.Pix[j] = r.Data[i]
		dst.Pix[j+1] = r.Data[i+1]
		dst.Pix[j+2] = r.Data[i+2]
		if r.Channels == 4 {
			dst.Pix[j+3] = r.Data[i+3]
		} else {
			dst.Pix[j+3] = 0xff
		}
	}
	return dst, nil
}
