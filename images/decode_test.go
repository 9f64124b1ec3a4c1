package images

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseReader(t *testing.T) {
	r, err := ParseReader("")
	require.NoError(t, err)
	assert.Equal(t, ReaderGo, r)

	r, err = ParseReader("OpenCV")
	require.NoError(t, err)
	assert.Equal(t, ReaderGocv, r)

	_, err = ParseReader("vips")
	assert.Error(t, err)
}

func TestDecodeBytes_PNG(t *testing.T) {
	src := testNRGBA()
	want, err := FromImage(src, 3)
	require.NoError(t, err)

	r, format, err := DecodeBytes(encodePNG(t, src), 3)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, want, r)
}

func TestDecodeBytes_WebPLossless(t *testing.T) {
	src := testNRGBA()
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, src, &webp.Options{Lossless: true}))

	r, format, err := DecodeBytes(buf.Bytes(), 3)
	require.NoError(t, err)
	assert.Equal(t, "webp", format)

	want, err := FromImage(src, 3)
	require.NoError(t, err)
	assert.Equal(t, want, r)
}

func TestDecodeBytes_Errors(t *testing.T) {
	_, _, err := DecodeBytes(nil, 3)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, _, err = DecodeBytes([]byte("not an image"), 3)
	assert.Error(t, err)

	_, _, err = DecodeBytes(encodePNG(t, testNRGBA()), 2)
	assert.ErrorIs(t, err, ErrUnsupportedChannelCount)
}

func TestDecodeMat_BGROrder(t *testing.T) {
	src := testNRGBA()
	rgb, err := FromImage(src, 3)
	require.NoError(t, err)

	bgr, typ, err := DecodeMat(encodePNG(t, src), 3)
	require.NoError(t, err)
	assert.Equal(t, "8UC3", typ)
	require.Equal(t, rgb.String(), bgr.String())

	for i := 0; i < len(rgb.Data); i += 3 {
		assert.Equal(t, rgb.Data[i], bgr.Data[i+2])
		assert.Equal(t, rgb.Data[i+1], bgr.Data[i+1])
		assert.Equal(t, rgb.Data[i+2], bgr.Data[i])
	}
}

func TestDecodeMat_ChannelConversion(t *testing.T) {
	data := encodePNG(t, testNRGBA())

	gray, _, err := DecodeMat(data, 1)
	require.NoError(t, err)
	assert.Equal(t, "3x2x1", gray.String())

	bgra, _, err := DecodeMat(data, 4)
	require.NoError(t, err)
	assert.Equal(t, "3x2x4", bgra.String())
	assert.Equal(t, byte(255), bgra.Data[3])

	_, _, err = DecodeMat(nil, 3)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, _, err = DecodeMat(data, 5)
	assert.ErrorIs(t, err, ErrUnsupportedChannelCount)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, testNRGBA()), 0o644))

	fromGo, format, err := ReadFile(path, ReaderGo, 3)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	fromCV, typ, err := ReadFile(path, ReaderGocv, 3)
	require.NoError(t, err)
	assert.Equal(t, "8UC3", typ)
	assert.Equal(t, fromGo.String(), fromCV.String())

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.png"), ReaderGo, 3)
	assert.Error(t, err)

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.png"), ReaderGocv, 3)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, _, err = ReadFile(path, ReaderGo, 0)
	assert.ErrorIs(t, err, ErrUnsupportedChannelCount)
}
