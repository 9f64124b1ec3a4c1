// Package images - provides deterministic resampling of interleaved rasters
// for machine learning preprocessing pipelines.
package images

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = iota
	// BilinearFilter uses bilinear interpolation (fast, good quality).
	BilinearFilter
	// BicubicFilter uses bicubic interpolation (slower, better quality).
	BicubicFilter
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter
	// MitchellNetravaliFilter uses Mitchell-Netravali cubic filter (balanced).
	MitchellNetravaliFilter
)

var filterNames = map[ResampleFilter]string{
	NearestNeighborFilter:   "nearest",
	BilinearFilter:          "bilinear",
	BicubicFilter:           "bicubic",
	LanczosFilter:           "lanczos",
	MitchellNetravaliFilter: "mitchell",
}

// String returns the configuration name of the filter.
func (f ResampleFilter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (f ResampleFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ResampleFilter) UnmarshalText(text []byte) error {
	parsed, err := ParseFilter(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFilter converts a configuration string into a ResampleFilter.
//
// Arguments:
// - s: One of "nearest", "bilinear" ("linear"), "bicubic" ("cubic"),
// "lanczos" or "mitchell". Case-insensitive.
//
// Returns:
// - The filter, or an error for unknown names.
//
// @example
// filter, err := ParseFilter("bilinear")
func ParseFilter(s string) (ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest", "nearest-neighbor":
		return NearestNeighborFilter, nil
	case "bilinear", "linear", "":
		return BilinearFilter, nil
	case "bicubic", "cubic":
		return BicubicFilter, nil
	case "lanczos", "lanczos3":
		return LanczosFilter, nil
	case "mitchell", "mitchell-netravali":
		return MitchellNetravaliFilter, nil
	default:
		return 0, errors.Errorf("unknown resample filter %q", s)
	}
}

// kernel represents a resampling kernel function.
type kernel struct {
	// Support is the support radius which is the radius of the kernel in pixels.
	Support float64
	// At evaluates the kernel at distance x. This is the function that is used to
	// calculate the weight of the pixel at the given distance.
	At func(x float64) float64
}

// kernels maps each separable filter type to its kernel function.
var kernels = map[ResampleFilter]kernel{
	BilinearFilter: {
		Support: 1.0,
		At: func(x float64) float64 {
			// Triangle function.
			x = math.Abs(x)
			if x < 1.0 {
				return 1.0 - x
			}
			return 0.0
		},
	},
	BicubicFilter: {
		Support: 2.0,
		At: func(x float64) float64 {
			// Catmull-Rom (B=0, C=0.5).
			x = math.Abs(x)
			if x < 1.0 {
				return (1.5*x-2.5)*x*x + 1.0
			}
			if x < 2.0 {
				return ((-0.5*x+2.5)*x-4.0)*x + 2.0
			}
			return 0.0
		},
	},
	LanczosFilter: {
		Support: 3.0,
		At: func(x float64) float64 {
			if x == 0.0 {
				return 1.0
			}
			x = math.Abs(x)
			if x >= 3.0 {
				return 0.0
			}
			// sinc(x) * sinc(x/3)
			pix := math.Pi * x
			return (math.Sin(pix) / pix) * (math.Sin(pix/3.0) / (pix / 3.0))
		},
	},
	MitchellNetravaliFilter: {
		Support: 2.0,
		At: func(x float64) float64 {
			// B=1/3, C=1/3.
			x = math.Abs(x)
			if x < 1.0 {
				return ((1.16666666666667*x-2.0)*x)*x + 0.888888888888889
			}
			if x < 2.0 {
				return ((-0.388888888888889*x+2.0)*x-3.333333333333333)*x + 1.777777777777778
			}
			return 0.0
		},
	},
}

// contribution represents a single source pixel's share of an output pixel.
type contribution struct {
	// pixel is the source pixel index along the resampled axis.
	pixel int
	// weight is the normalized contribution weight.
	weight float32
}

// contributions pre-calculates, for each output position along one axis, the
// source positions and normalized weights that feed it.
//
// Arguments:
// - srcSize: The source length along the axis.
// - dstSize: The destination length along the axis.
// - k: The kernel to evaluate.
//
// Returns:
// - One weight list per destination position.
func contributions(srcSize, dstSize int, k kernel) [][]contribution {
	scale := float64(srcSize) / float64(dstSize)

	// When downsampling, the filter support widens with the scale.
	filterScale := math.Max(scale, 1.0)
	support := k.Support * filterScale

	out := make([][]contribution, dstSize)
	for d := 0; d < dstSize; d++ {
		center := (float64(d) + 0.5) * scale

		left := int(math.Floor(center - support))
		right := int(math.Ceil(center + support))
		if left < 0 {
			left = 0
		}
		if right >= srcSize {
			right = srcSize - 1
		}

		var weights []contribution
		var sum float64
		for s := left; s <= right; s++ {
			// Distance between the source pixel center and the sample point.
			distance := math.Abs(float64(s) + 0.5 - center)
			w := k.At(distance / filterScale)
			if w != 0 {
				weights = append(weights, contribution{pixel: s, weight: float32(w)})
				sum += w
			}
		}

		// Normalize so brightness is preserved.
		if sum != 0 {
			for i := range weights {
				weights[i].weight = float32(float64(weights[i].weight) / sum)
			}
		} else {
			// The kernel vanished at every tap; fall back to the nearest source pixel.
			nearest := int(center)
			if nearest >= srcSize {
				nearest = srcSize - 1
			}
			weights = []contribution{{pixel: nearest, weight: 1}}
		}

		out[d] = weights
	}

	return out
}

// Resample scales an interleaved raster to width x height with the given filter.
// The output is a new raster with the same channel count; src is not modified.
//
// This implementation uses separable filtering, processing the horizontal and
// vertical dimensions independently with a float32 intermediate so only the
// final pass rounds.
//
// Arguments:
// - src: The source raster.
// - width: The target width in pixels.
// - height: The target height in pixels.
// - filter: The resampling filter to use for interpolation.
//
// Returns:
// - The resized raster.
// - error if the target size is not positive or src fails validation.
//
// @example
// resized, err := Resample(src, 640, 640, BilinearFilter)
func Resample(src Raster, width, height int, filter ResampleFilter) (Raster, error) {
	if width <= 0 || height <= 0 {
		return Raster{}, errors.Wrapf(ErrInvalidDimension, "target %dx%d", width, height)
	}
	if err := src.Validate(); err != nil {
		return Raster{}, err
	}
	if _, ok := ElementCount(width, height, src.Channels); !ok {
		return Raster{}, errors.Wrapf(ErrInvalidDimension, "target %dx%d is too large", width, height)
	}

	if filter == NearestNeighborFilter {
		return resampleNearest(src, width, height), nil
	}

	k, ok := kernels[filter]
	if !ok {
		return Raster{}, errors.Errorf("unsupported resample filter %d", filter)
	}

	intermediate := resampleHorizontal(src, width, k)
	return resampleVertical(intermediate, src.Channels, width, src.Height, height, k), nil
}

// resampleNearest performs nearest-neighbor resizing by sampling the source
// pixel whose area contains each destination pixel center.
func resampleNearest(src Raster, width, height int) Raster {
	c := src.Channels
	dst := Raster{Width: width, Height: height, Channels: c, Data: make([]byte, width*height*c)}

	xRatio := float64(src.Width) / float64(width)
	yRatio := float64(src.Height) / float64(height)

	cols := make([]int, width)
	for x := range cols {
		sx := int((float64(x) + 0.5) * xRatio)
		if sx >= src.Width {
			sx = src.Width - 1
		}
		cols[x] = sx
	}

	for y := 0; y < height; y++ {
		sy := int((float64(y) + 0.5) * yRatio)
		if sy >= src.Height {
			sy = src.Height - 1
		}
		for x, sx := range cols {
			s := src.Offset(sy, sx, 0)
			d := dst.Offset(y, x, 0)
			copy(dst.Data[d:d+c], src.Data[s:s+c])
		}
	}

	return dst
}

// resampleHorizontal resizes every row of src to width columns. The result is
// an unrounded float32 buffer of width*src.Height*channels elements.
func resampleHorizontal(src Raster, width int, k kernel) []float32 {
	c := src.Channels
	weights := contributions(src.Width, width, k)
	out := make([]float32, width*src.Height*c)

	for y := 0; y < src.Height; y++ {
		row := src.Data[y*src.Width*c : (y+1)*src.Width*c]
		dstRow := out[y*width*c : (y+1)*width*c]
		for x := 0; x < width; x++ {
			for ch := 0; ch < c; ch++ {
				var acc float32
				for _, w := range weights[x] {
					acc += float32(row[w.pixel*c+ch]) * w.weight
				}
				dstRow[x*c+ch] = acc
			}
		}
	}

	return out
}

// resampleVertical resizes the columns of the horizontal pass output from
// srcHeight to height rows, then clamps and rounds into bytes.
func resampleVertical(src []float32, channels, width, srcHeight, height int, k kernel) Raster {
	weights := contributions(srcHeight, height, k)
	stride := width * channels
	dst := Raster{Width: width, Height: height, Channels: channels, Data: make([]byte, height*stride)}

	for y := 0; y < height; y++ {
		dstRow := dst.Data[y*stride : (y+1)*stride]
		for i := 0; i < stride; i++ {
			var acc float32
			for _, w := range weights[y] {
				acc += src[w.pixel*stride+i] * w.weight
			}
			dstRow[i] = uint8(Clamp(float64(acc), 0, 255) + 0.5)
		}
	}

	return dst
}

// Clamp restricts a value to the specified range [min, max].
// This is used to prevent overflow in color calculations.
//
// Arguments:
// - value: The value to Clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
