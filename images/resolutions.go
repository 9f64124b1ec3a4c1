package images

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// AspectRatio represents a camera aspect ratio by name (e.g., "16:9").
type AspectRatio string

const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio11  AspectRatio = "1:1"
)

// ResolutionType names a common camera frame or model input size.
type ResolutionType string

const (
	ResolutionTypeModel416 ResolutionType = "416x416"
	ResolutionTypeModel640 ResolutionType = "640x640"
	ResolutionTypeNHD      ResolutionType = "nHD"
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
)

// ResolutionPixels describes the exact dimensions of a resolution.
type ResolutionPixels struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Resolution is a named frame size. Benchmarks use it to size the synthetic
// source frames they resize down to model input.
type Resolution struct {
	Name        ResolutionType   `json:"name" yaml:"name"`
	AspectRatio AspectRatio      `json:"aspectRatio" yaml:"aspectRatio"`
	Pixels      ResolutionPixels `json:"pixels" yaml:"pixels"`
}

// GetMegaPixels returns the megapixel count rounded to two decimal places
// (e.g. 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

// Synthetic returns a deterministic gradient raster of this resolution. Each
// channel follows a different diagonal so channel mix-ups show up in checksums.
//
// Arguments:
// - channels: The channel count (1, 3 or 4).
//
// Returns:
// - The raster, or an error if the resolution or channel count is invalid.
func (r Resolution) Synthetic(channels int) (Raster, error) {
	if !SupportedChannels(channels) {
		return Raster{}, errors.Wrapf(ErrUnsupportedChannelCount, "%d channels", channels)
	}
	out, err := NewRaster(r.Pixels.Width, r.Pixels.Height, channels)
	if err != nil {
		return Raster{}, err
	}

	w, h := r.Pixels.Width, r.Pixels.Height
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			base := out.Offset(i, j, 0)
			for k := 0; k < channels; k++ {
				out.Data[base+k] = byte((i*(k+1) + j*(channels-k)) & 0xff)
			}
		}
	}
	return out, nil
}

var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeModel416: {
		Name:        ResolutionTypeModel416,
		AspectRatio: AspectRatio11,
		Pixels:      ResolutionPixels{Width: 416, Height: 416},
	},
	ResolutionTypeModel640: {
		Name:        ResolutionTypeModel640,
		AspectRatio: AspectRatio11,
		Pixels:      ResolutionPixels{Width: 640, Height: 640},
	},
	ResolutionTypeNHD: {
		Name:        ResolutionTypeNHD,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 640, Height: 360},
	},
	ResolutionTypeVGA: {
		Name:        ResolutionTypeVGA,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 640, Height: 480},
	},
	ResolutionTypeHD720p: {
		Name:        ResolutionTypeHD720p,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 1280, Height: 720},
	},
	ResolutionTypeFHD1080p: {
		Name:        ResolutionTypeFHD1080p,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 1920, Height: 1080},
	},
	ResolutionTypeQHD1440p: {
		Name:        ResolutionTypeQHD1440p,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 2560, Height: 1440},
	},
	ResolutionType4KUHD: {
		Name:        ResolutionType4KUHD,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 3840, Height: 2160},
	},
}

// GetAllResolutions returns every known resolution ordered by pixel count,
// smallest first.
func GetAllResolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		pi := all[i].Pixels.Width * all[i].Pixels.Height
		pj := all[j].Pixels.Width * all[j].Pixels.Height
		if pi != pj {
			return pi < pj
		}
		return all[i].Name < all[j].Name
	})
	return all
}

// GetResolutionByType retrieves a resolution by its type.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[t]
	return res, ok
}

// GetHighestResolutionUnderDimensions returns the largest known resolution
// that fits within width x height.
//
// Arguments:
//   - width: The maximum width.
//   - height: The maximum height.
//
// Returns:
//   - Resolution: The largest fitting resolution.
//   - bool: True if one was found.
func GetHighestResolutionUnderDimensions(width, height int) (Resolution, bool) {
	var highest Resolution
	var found bool

	for _, res := range GetAllResolutions() {
		if res.Pixels.Width <= width && res.Pixels.Height <= height {
			highest = res
			found = true
		}
	}
	return highest, found
}
