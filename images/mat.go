package images

import (
	"fmt"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// matTypes maps raster channel counts to 8-bit OpenCV Mat types.
var matTypes = map[int]gocv.MatType{
	1: gocv.MatTypeCV8UC1,
	3: gocv.MatTypeCV8UC3,
	4: gocv.MatTypeCV8UC4,
}

// FromMat copies an 8-bit OpenCV Mat into a raster.
//
// Channel order is whatever the Mat holds; Mats read by OpenCV are BGR and
// stay BGR. Non-continuous Mats (ROIs, strided views) are cloned into
// continuous memory before their bytes are copied out.
//
// Arguments:
// - mat: The source Mat. It is not modified and remains owned by the caller.
//
// Returns:
// - The raster.
// - error if the Mat is empty, not 8-bit, or has an unsupported channel count.
//
// @example
// mat := gocv.IMRead("horses.jpg", gocv.IMReadColor)
// defer mat.Close()
// r, err := FromMat(mat)
func FromMat(mat gocv.Mat) (Raster, error) {
	if mat.Empty() {
		return Raster{}, errors.Wrap(ErrEmptyInput, "empty mat")
	}
	if depth := int(mat.Type()) & 7; depth != int(gocv.MatTypeCV8U) {
		return Raster{}, errors.Errorf("unsupported mat type %s", MatTypeString(mat.Type()))
	}
	channels := mat.Channels()
	if !SupportedChannels(channels) {
		return Raster{}, errors.Wrapf(ErrUnsupportedChannelCount, "%d channels", channels)
	}

	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}

	r := Raster{
		Width:    src.Cols(),
		Height:   src.Rows(),
		Channels: channels,
		Data:     src.ToBytes(),
	}
	if err := r.Validate(); err != nil {
		return Raster{}, errors.Wrap(err, "mat bytes")
	}
	return r, nil
}

// ToMat copies the raster into a new 8-bit Mat. The caller must Close it.
//
// Returns:
// - The Mat.
// - error if the raster fails validation or OpenCV rejects the buffer.
func (r Raster) ToMat() (gocv.Mat, error) {
	if err := r.Validate(); err != nil {
		return gocv.NewMat(), err
	}
	mat, err := gocv.NewMatFromBytes(r.Height, r.Width, matTypes[r.Channels], r.Clone().Data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create mat")
	}
	return mat, nil
}

// MatTypeString renders an OpenCV Mat type as depth plus channel count,
// e.g. "8UC3" for an 8-bit three-channel Mat.
//
// Arguments:
// - t: The Mat type.
//
// Returns:
// - The label.
//
// @example
// MatTypeString(gocv.MatTypeCV32FC1) // "32FC1"
func MatTypeString(t gocv.MatType) string {
	depth := int(t) & 7
	channels := 1 + (int(t) >> 3)

	var name string
	switch depth {
	case 0:
		name = "8U"
	case 1:
		name = "8S"
	case 2:
		name = "16U"
	case 3:
		name = "16S"
	case 4:
		name = "32S"
	case 5:
		name = "32F"
	case 6:
		name = "64F"
	default:
		name = "User"
	}

	return fmt.Sprintf("%sC%d", name, channels)
}
