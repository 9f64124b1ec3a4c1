package preprocess

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-tensorprep/images"
)

// stubResampler returns a fixed raster and counts calls.
type stubResampler struct {
	out   images.Raster
	err   error
	calls int
}

func (s *stubResampler) Resample(images.Raster, int, int) (images.Raster, error) {
	s.calls++
	return s.out, s.err
}

func TestParseBackend(t *testing.T) {
	testCases := []struct {
		in   string
		want Backend
	}{
		{"nfnt", BackendNfnt},
		{"", BackendNfnt},
		{"GOCV", BackendGocv},
		{"opencv", BackendGocv},
		{" kernel ", BackendKernel},
		{"native", BackendKernel},
	}
	for _, tc := range testCases {
		got, err := ParseBackend(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseBackend("vips")
	assert.Error(t, err)

	_, err = NewResampler(Backend("vips"), images.BilinearFilter)
	assert.Error(t, err)
}

func TestResizer_InvalidDimensions(t *testing.T) {
	stub := &stubResampler{}
	resizer := NewResizer(stub)
	img := randomRaster(t, 4, 4, 3, 1)

	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 10}, {0, 0}, {1 << 62, 1 << 62}} {
		_, err := resizer.Resize(img, dims[0], dims[1])
		assert.ErrorIs(t, err, images.ErrInvalidDimension, "%v", dims)
	}
	assert.Zero(t, stub.calls)
}

func TestResizer_InputErrors(t *testing.T) {
	stub := &stubResampler{}
	resizer := NewResizer(stub)

	testCases := []struct {
		name string
		img  images.Raster
		want error
	}{
		{
			name: "no data",
			img:  images.Raster{Width: 2, Height: 2, Channels: 3},
			want: images.ErrEmptyInput,
		},
		{
			name: "zero width",
			img:  images.Raster{Width: 0, Height: 2, Channels: 3, Data: []byte{1}},
			want: images.ErrEmptyInput,
		},
		{
			name: "two channels",
			img:  images.Raster{Width: 1, Height: 2, Channels: 2, Data: []byte{1, 2, 3, 4}},
			want: images.ErrEmptyInput,
		},
		{
			name: "element count overflows",
			img:  images.Raster{Width: 1<<62 + 1, Height: 4, Channels: 1, Data: make([]byte, 4)},
			want: images.ErrShapeMismatch,
		},
		{
			name: "short data",
			img:  images.Raster{Width: 2, Height: 2, Channels: 3, Data: make([]byte, 10)},
			want: images.ErrShapeMismatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resizer.Resize(tc.img, 8, 8)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, stub.calls)
}

func TestResizer_SameSizeReturnsCopy(t *testing.T) {
	stub := &stubResampler{}
	resizer := NewResizer(stub)
	img := randomRaster(t, 6, 4, 3, 5)

	out, err := resizer.Resize(img, 6, 4)
	require.NoError(t, err)

	assert.Equal(t, img, out)
	assert.Zero(t, stub.calls)

	out.Data[0]++
	assert.NotEqual(t, img.Data[0], out.Data[0])
}

func TestResizer_ChecksResamplerOutput(t *testing.T) {
	img := randomRaster(t, 4, 4, 3, 2)

	wrongShape := &stubResampler{out: randomRaster(t, 3, 3, 3, 3)}
	_, err := NewResizer(wrongShape).Resize(img, 8, 8)
	assert.ErrorIs(t, err, images.ErrShapeMismatch)

	wrongChannels := &stubResampler{out: randomRaster(t, 8, 8, 1, 3)}
	_, err = NewResizer(wrongChannels).Resize(img, 8, 8)
	assert.ErrorIs(t, err, images.ErrShapeMismatch)

	boom := errors.New("boom")
	failing := &stubResampler{err: boom}
	_, err = NewResizer(failing).Resize(img, 8, 8)
	assert.ErrorIs(t, err, boom)
}

func TestResizer_Backends(t *testing.T) {
	backends := []Backend{BackendNfnt, BackendGocv, BackendKernel}
	filters := []images.ResampleFilter{images.NearestNeighborFilter, images.BilinearFilter, images.BicubicFilter}
	sizes := [][2]int{{32, 16}, {5, 7}, {1, 1}}

	for _, backend := range backends {
		for _, filter := range filters {
			resampler, err := NewResampler(backend, filter)
			require.NoError(t, err)
			resizer := NewResizer(resampler)

			for _, c := range []int{1, 3, 4} {
				img := randomRaster(t, 12, 9, c, int64(c))
				before := images.Checksum(img)

				for _, size := range sizes {
					name := string(backend) + "/" + filter.String() + "/" + img.String()
					out, err := resizer.Resize(img, size[0], size[1])
					require.NoError(t, err, name)

					assert.Equal(t, size[0], out.Width, name)
					assert.Equal(t, size[1], out.Height, name)
					assert.Equal(t, c, out.Channels, name)
					assert.Len(t, out.Data, size[0]*size[1]*c, name)
				}
				assert.Equal(t, before, images.Checksum(img), "source modified")
			}
		}
	}
}

func TestResizer_UniformImageStaysUniform(t *testing.T) {
	img, err := images.NewRaster(10, 10, 3)
	require.NoError(t, err)
	for i := range img.Data {
		img.Data[i] = 77
	}

	for _, backend := range []Backend{BackendKernel, BackendGocv} {
		resampler, err := NewResampler(backend, images.BilinearFilter)
		require.NoError(t, err)

		out, err := NewResizer(resampler).Resize(img, 23, 4)
		require.NoError(t, err)
		for i, v := range out.Data {
			require.InDelta(t, 77, int(v), 1, "%s element %d", backend, i)
		}
	}
}

func TestResizer_Deterministic(t *testing.T) {
	img := randomRaster(t, 40, 30, 3, 11)
	resizer := NewResizer(NewKernelResampler(images.LanczosFilter))

	first, err := resizer.Resize(img, 17, 13)
	require.NoError(t, err)
	second, err := resizer.Resize(img, 17, 13)
	require.NoError(t, err)

	assert.Equal(t, images.Checksum(first), images.Checksum(second))
}

func BenchmarkResize(b *testing.B) {
	img := randomRaster(b, 1920, 1080, 3, 1)
	for _, backend := range []Backend{BackendNfnt, BackendGocv, BackendKernel} {
		resampler, err := NewResampler(backend, images.BilinearFilter)
		if err != nil {
			b.Fatal(err)
		}
		resizer := NewResizer(resampler)
		b.Run(string(backend), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := resizer.Resize(img, 640, 640); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
