package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		in   string
		want ResampleFilter
	}{
		{"nearest", NearestNeighborFilter},
		{"Bilinear", BilinearFilter},
		{"linear", BilinearFilter},
		{"", BilinearFilter},
		{"cubic", BicubicFilter},
		{"lanczos3", LanczosFilter},
		{" mitchell ", MitchellNetravaliFilter},
	}
	for _, tc := range testCases {
		got, err := ParseFilter(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseFilter("box")
	assert.Error(t, err)
}

func TestResampleFilter_Text(t *testing.T) {
	for f := range filterNames {
		text, err := f.MarshalText()
		require.NoError(t, err)

		var parsed ResampleFilter
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, f, parsed)
	}

	assert.Equal(t, "unknown", ResampleFilter(42).String())

	var f ResampleFilter
	assert.Error(t, f.UnmarshalText([]byte("box")))
}

func TestResample_Uniform(t *testing.T) {
	src, err := NewRaster(9, 7, 3)
	require.NoError(t, err)
	for i := range src.Data {
		src.Data[i] = 200
	}

	for f := range filterNames {
		for _, size := range [][2]int{{3, 2}, {20, 15}, {9, 1}} {
			out, err := Resample(src, size[0], size[1], f)
			require.NoError(t, err)
			assert.Equal(t, size[0]*size[1]*3, len(out.Data))
			for i, v := range out.Data {
				require.Equal(t, byte(200), v, "%s %v element %d", f, size, i)
			}
		}
	}
}

func TestResample_Nearest(t *testing.T) {
	src := Raster{Width: 2, Height: 2, Channels: 1, Data: []byte{1, 2, 3, 4}}

	up, err := Resample(src, 4, 4, NearestNeighborFilter)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, up.Data)

	down, err := Resample(up, 2, 2, NearestNeighborFilter)
	require.NoError(t, err)
	assert.Equal(t, src, down)
}

func TestResample_BilinearMidpoint(t *testing.T) {
	src := Raster{Width: 2, Height: 1, Channels: 1, Data: []byte{0, 200}}

	out, err := Resample(src, 1, 1, BilinearFilter)
	require.NoError(t, err)
	assert.Equal(t, []byte{100}, out.Data)
}

func TestResample_Errors(t *testing.T) {
	src := Raster{Width: 1, Height: 1, Channels: 1, Data: []byte{1}}

	_, err := Resample(src, 0, 1, BilinearFilter)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = Resample(Raster{Width: 1, Height: 1, Channels: 3}, 2, 2, BilinearFilter)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	huge := Raster{Width: 1<<62 + 1, Height: 4, Channels: 1, Data: make([]byte, 4)}
	_, err = Resample(huge, 8, 8, BilinearFilter)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Resample(src, 1<<62, 1<<62, BilinearFilter)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = Resample(src, 2, 2, ResampleFilter(42))
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 255.0, Clamp(300.5, 0, 255))
	assert.Equal(t, 0.0, Clamp(-10, 0, 255))
	assert.Equal(t, 12.5, Clamp(12.5, 0, 255))
}

func BenchmarkResample(b *testing.B) {
	src, err := NewRaster(1920, 1080, 3)
	if err != nil {
		b.Fatal(err)
	}
	for i := range src.Data {
		src.Data[i] = uint8(i)
	}

	for f := range filterNames {
		b.Run(f.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Resample(src, 640, 640, f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
