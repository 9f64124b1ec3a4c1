package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func testNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(20 * y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestFromImage_NRGBA(t *testing.T) {
	img := testNRGBA()

	r, err := FromImage(img, 3)
	require.NoError(t, err)
	assert.Equal(t, "3x2x3", r.String())
	// Pixel (row 1, col 2).
	d := r.Offset(1, 2, 0)
	assert.Equal(t, []byte{20, 20, 3}, r.Data[d:d+3])

	r4, err := FromImage(img, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(255), r4.Data[r4.Offset(0, 0, 3)])
}

func TestFromImage_SubImage(t *testing.T) {
	img := testNRGBA().SubImage(image.Rect(1, 1, 3, 2))

	r, err := FromImage(img, 3)
	require.NoError(t, err)
	assert.Equal(t, "2x1x3", r.String())
	assert.Equal(t, []byte{10, 20, 2, 20, 20, 3}, r.Data)
}

func TestFromImage_OpaqueRGBAMatchesGenericPath(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range rgba.Pix {
		rgba.Pix[i] = uint8(i * 7)
	}
	for i := 3; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i] = 255
	}

	fast, err := FromImage(rgba, 3)
	require.NoError(t, err)

	// Hide the concrete type to force the color model path.
	generic, err := FromImage(struct{ image.Image }{rgba}, 3)
	require.NoError(t, err)

	assert.Equal(t, generic, fast)
}

func TestFromImage_TranslucentRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	// Premultiplied half-transparent red.
	rgba.Pix = []uint8{128, 0, 0, 128}

	r, err := FromImage(rgba, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 128}, r.Data)
}

func TestFromImage_Gray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(gray.Pix, []uint8{0, 255, 128, 64})

	r, err := FromImage(gray, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 128, 64}, r.Data)

	// Gray expanded to color replicates luma.
	rgb, err := FromImage(gray, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{128, 128, 128}, rgb.Data[rgb.Offset(1, 0, 0):rgb.Offset(1, 0, 0)+3])

	// Color collapsed to gray.
	luma, err := FromImage(testNRGBA(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, luma.Len())
}

func TestFromImage_Errors(t *testing.T) {
	_, err := FromImage(nil, 3)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = FromImage(testNRGBA(), 2)
	assert.ErrorIs(t, err, ErrUnsupportedChannelCount)

	_, err = FromImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 3)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRaster_ToImageRoundTrip(t *testing.T) {
	for _, c := range []int{1, 3, 4} {
		r, err := NewRaster(5, 3, c)
		require.NoError(t, err)
		for i := range r.Data {
			r.Data[i] = uint8(i * 13)
		}
		if c == 4 {
			for i := 3; i < len(r.Data); i += 4 {
				r.Data[i] = 255
			}
		}

		img, err := r.ToImage()
		require.NoError(t, err)
		back, err := FromImage(img, c)
		require.NoError(t, err)
		assert.Equal(t, r, back, "channels %d", c)
	}

	_, err := Raster{Width: 1, Height: 1, Channels: 3}.ToImage()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRaster_MatRoundTrip(t *testing.T) {
	for _, c := range []int{1, 3, 4} {
		r, err := NewRaster(6, 4, c)
		require.NoError(t, err)
		for i := range r.Data {
			r.Data[i] = uint8(i)
		}

		mat, err := r.ToMat()
		require.NoError(t, err)
		assert.Equal(t, 6, mat.Cols())
		assert.Equal(t, 4, mat.Rows())
		assert.Equal(t, c, mat.Channels())

		back, err := FromMat(mat)
		mat.Close()
		require.NoError(t, err)
		assert.Equal(t, r, back)
	}
}

func TestFromMat_Region(t *testing.T) {
	r, err := NewRaster(4, 4, 1)
	require.NoError(t, err)
	for i := range r.Data {
		r.Data[i] = uint8(i)
	}
	mat, err := r.ToMat()
	require.NoError(t, err)
	defer mat.Close()

	region := mat.Region(image.Rect(1, 1, 3, 3))
	defer region.Close()

	sub, err := FromMat(region)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 9, 10}, sub.Data)
}

func TestFromMat_Errors(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := FromMat(empty)
	assert.ErrorIs(t, err, ErrEmptyInput)

	float := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV32FC1)
	defer float.Close()
	_, err = FromMat(float)
	assert.Error(t, err)
}

func TestMatTypeString(t *testing.T) {
	assert.Equal(t, "8UC1", MatTypeString(gocv.MatTypeCV8UC1))
	assert.Equal(t, "8UC3", MatTypeString(gocv.MatTypeCV8UC3))
	assert.Equal(t, "32FC1", MatTypeString(gocv.MatTypeCV32FC1))
}
