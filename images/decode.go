package images

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	_ "github.com/chai2010/webp"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Reader selects the decoder used to turn an image file into a raster.
type Reader string

const (
	// ReaderGo decodes with the registered Go image decoders. Color rasters
	// come out in RGB order.
	ReaderGo Reader = "go"
	// ReaderGocv decodes with OpenCV's imread. Color rasters come out in BGR
	// order, as OpenCV stores them.
	ReaderGocv Reader = "gocv"
)

// ParseReader converts a configuration string into a Reader.
func ParseReader(s string) (Reader, error) {
	switch Reader(strings.ToLower(strings.TrimSpace(s))) {
	case ReaderGo, "":
		return ReaderGo, nil
	case ReaderGocv, "opencv":
		return ReaderGocv, nil
	default:
		return "", errors.Errorf("unknown image reader %q", s)
	}
}

// Decode decodes an encoded image (JPEG, PNG, GIF, WebP, BMP, TIFF) into a raster.
//
// Arguments:
// - r: The encoded image stream.
// - channels: The channel count of the raster to produce (1, 3 or 4).
//
// Returns:
// - The raster.
// - The format name reported by the decoder.
// - error if decoding fails.
//
// @example
// f, _ := os.Open("horses.jpg")
// r, format, err := Decode(f, 3)
func Decode(r io.Reader, channels int) (Raster, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Raster{}, "", errors.Wrap(err, "failed to decode image")
	}
	raster, err := FromImage(img, channels)
	if err != nil {
		return Raster{}, format, err
	}
	return raster, format, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte, channels int) (Raster, string, error) {
	if len(data) == 0 {
		return Raster{}, "", errors.Wrap(ErrEmptyInput, "empty image data")
	}
	return Decode(bytes.NewReader(data), channels)
}

// ReadFile loads and decodes an image file with the selected reader.
//
// Arguments:
// - path: The image file path.
// - reader: The decoder to use.
// - channels: The channel count of the raster to produce (1, 3 or 4).
//
// Returns:
// - The raster.
// - A description of the decoded source: the Go format name, or the OpenCV
// Mat type (e.g. "8UC3") for the gocv reader.
// - error if the file cannot be read or decoded.
func ReadFile(path string, reader Reader, channels int) (Raster, string, error) {
	if !SupportedChannels(channels) {
		return Raster{}, "", errors.Wrapf(ErrUnsupportedChannelCount, "%d channels", channels)
	}

	switch reader {
	case ReaderGocv:
		return readMat(path, channels)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return Raster{}, "", errors.Wrapf(err, "failed to read %s", path)
		}
		return DecodeBytes(data, channels)
	}
}

// DecodeMat decodes an encoded image with OpenCV's imdecode. Color rasters
// come out in BGR order.
//
// Arguments:
// - data: The encoded image bytes.
// - channels: The channel count of the raster to produce (1, 3 or 4).
//
// Returns:
// - The raster.
// - The decoded Mat type, e.g. "8UC3".
// - error if decoding fails.
func DecodeMat(data []byte, channels int) (Raster, string, error) {
	if len(data) == 0 {
		return Raster{}, "", errors.Wrap(ErrEmptyInput, "empty image data")
	}
	if !SupportedChannels(channels) {
		return Raster{}, "", errors.Wrapf(ErrUnsupportedChannelCount, "%d channels", channels)
	}

	mat, err := gocv.IMDecode(data, readFlags(channels))
	if err != nil {
		return Raster{}, "", errors.Wrap(err, "failed to decode image")
	}
	defer mat.Close()
	if mat.Empty() {
		return Raster{}, "", errors.Wrap(ErrEmptyInput, "failed to decode image")
	}
	return convertMat(mat, channels)
}

// readMat reads an image with OpenCV and converts it to the requested channel count.
func readMat(path string, channels int) (Raster, string, error) {
	mat := gocv.IMRead(path, readFlags(channels))
	defer mat.Close()
	if mat.Empty() {
		return Raster{}, "", errors.Wrapf(ErrEmptyInput, "could not open or find the image %s", path)
	}
	return convertMat(mat, channels)
}

// readFlags picks the imread mode producing the requested channel count.
func readFlags(channels int) gocv.IMReadFlag {
	switch channels {
	case 1:
		return gocv.IMReadGrayScale
	case 4:
		return gocv.IMReadUnchanged
	default:
		return gocv.IMReadColor
	}
}

// convertMat copies mat into a raster with the requested channel count,
// converting color layouts where OpenCV returned a different one.
func convertMat(mat gocv.Mat, channels int) (Raster, string, error) {
	typ := MatTypeString(mat.Type())

	if mat.Channels() == channels {
		r, err := FromMat(mat)
		return r, typ, err
	}

	var code gocv.ColorConversionCode
	switch {
	case mat.Channels() == 3 && channels == 4:
		code = gocv.ColorBGRToBGRA
	case mat.Channels() == 4 && channels == 3:
		code = gocv.ColorBGRAToBGR
	case mat.Channels() == 1 && channels == 3:
		code = gocv.ColorGrayToBGR
	case mat.Channels() == 1 && channels == 4:
		code = gocv.ColorGrayToBGRA
	default:
		return Raster{}, typ, errors.Wrapf(ErrUnsupportedChannelCount,
			"cannot convert %d channels to %d", mat.Channels(), channels)
	}

	converted := gocv.NewMat()
	defer converted.Close()
	gocv.CvtColor(mat, &converted, code)
	if converted.Empty() {
		return Raster{}, typ, errors.New("failed to convert channels")
	}

	r, err := FromMat(converted)
	return r, typ, err
}
