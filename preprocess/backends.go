package preprocess

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-tensorprep/images"
)

// NfntResampler resamples through github.com/nfnt/resize.
type NfntResampler struct {
	interp resize.InterpolationFunction
}

// nfntFilters maps resample filters to nfnt interpolation functions.
var nfntFilters = map[images.ResampleFilter]resize.InterpolationFunction{
	images.NearestNeighborFilter:   resize.NearestNeighbor,
	images.BilinearFilter:          resize.Bilinear,
	images.BicubicFilter:           resize.Bicubic,
	images.LanczosFilter:           resize.Lanczos3,
	images.MitchellNetravaliFilter: resize.MitchellNetravali,
}

// NewNfntResampler returns an nfnt-backed resampler. Unknown filters use bilinear.
func NewNfntResampler(filter images.ResampleFilter) *NfntResampler {
	interp, ok := nfntFilters[filter]
	if !ok {
		interp = resize.Bilinear
	}
	return &NfntResampler{interp: interp}
}

// Resample implements Resampler.
func (n *NfntResampler) Resample(src images.Raster, width, height int) (images.Raster, error) {
	img, err := src.ToImage()
	if err != nil {
		return images.Raster{}, err
	}

	resized := resize.Resize(uint(width), uint(height), img, n.interp)

	return images.FromImage(resized, src.Channels)
}

// GocvResampler resamples through OpenCV's resize.
type GocvResampler struct {
	interp gocv.InterpolationFlags
}

// gocvFilters maps resample filters to OpenCV interpolation flags. OpenCV has
// no Mitchell-Netravali filter; it falls back to bicubic.
var gocvFilters = map[images.ResampleFilter]gocv.InterpolationFlags{
	images.NearestNeighborFilter:   gocv.InterpolationNearestNeighbor,
	images.BilinearFilter:          gocv.InterpolationLinear,
	images.BicubicFilter:           gocv.InterpolationCubic,
	images.LanczosFilter:           gocv.InterpolationLanczos4,
	images.MitchellNetravaliFilter: gocv.InterpolationCubic,
}

// NewGocvResampler returns an OpenCV-backed resampler. Unknown filters use bilinear.
func NewGocvResampler(filter images.ResampleFilter) *GocvResampler {
	interp, ok := gocvFilters[filter]
	if !ok {
		interp = gocv.InterpolationLinear
	}
	return &GocvResampler{interp: interp}
}

// Resample implements Resampler.
func (g *GocvResampler) Resample(src images.Raster, width, height int) (images.Raster, error) {
	mat, err := src.ToMat()
	if err != nil {
		return images.Raster{}, err
	}
	defer mat.Close()

	resized := gocv.NewMat()
	defer resized.Close()

	gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, g.interp)
	if resized.Empty() {
		return images.Raster{}, errors.New("failed to resize mat")
	}

	return images.FromMat(resized)
}

// KernelResampler resamples with the separable kernels in package images.
type KernelResampler struct {
	filter images.ResampleFilter
}

// NewKernelResampler returns a resampler using the in-module kernels.
func NewKernelResampler(filter images.ResampleFilter) *KernelResampler {
	return &KernelResampler{filter: filter}
}

// Resample implements Resampler.
func (k *KernelResampler) Resample(src images.Raster, width, height int) (images.Raster, error) {
	return images.Resample(src, width, height, k.filter)
}
