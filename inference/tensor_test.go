package inference

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

func testRaster(t *testing.T) images.Raster {
	t.Helper()
	r, err := images.NewRaster(2, 2, 3)
	require.NoError(t, err)
	for i := range r.Data {
		r.Data[i] = uint8(i * 20)
	}
	return r
}

func TestCheckShape(t *testing.T) {
	img := testRaster(t)

	assert.NoError(t, checkShape(ort.NewShape(1, 3, 2, 2), img))
	assert.NoError(t, checkShape(ort.NewShape(3, 2, 2), img))

	for _, shape := range []ort.Shape{
		ort.NewShape(2, 3, 2, 2),
		ort.NewShape(1, 1, 2, 2),
		ort.NewShape(1, 3, 2, 4),
		ort.NewShape(12),
	} {
		assert.ErrorIs(t, checkShape(shape, img), images.ErrShapeMismatch, "%v", shape)
	}
}

func TestToDense(t *testing.T) {
	planar, err := preprocess.ToPlanarFloat(testRaster(t))
	require.NoError(t, err)

	dense, err := ToDense(planar)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 2, 2}, dense.Shape())
	assert.Equal(t, tensor.Float32, dense.Dtype())

	// Channel 1, row 0, col 1 of the source raster.
	v, err := dense.At(0, 1, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, float32(80)/255, v.(float32), 1e-6)

	_, err = ToDense(preprocess.Tensor{Channels: 3, Height: 2, Width: 2, Data: make([]float32, 3)})
	assert.ErrorIs(t, err, images.ErrShapeMismatch)
}

func TestFillInput_NilDestination(t *testing.T) {
	err := FillInput(nil, testRaster(t))
	assert.ErrorIs(t, err, images.ErrEmptyInput)
}

func TestOnnxRuntimeTensors(t *testing.T) {
	if !ort.IsInitialized() {
		t.Skip("ONNX Runtime environment is not initialized")
	}

	img := testRaster(t)
	planar, err := preprocess.ToPlanarFloat(img)
	require.NoError(t, err)

	input, err := NewInputTensor(planar)
	require.NoError(t, err)
	defer input.Destroy()
	assert.Equal(t, ort.NewShape(1, 3, 2, 2), input.GetShape())
	assert.Equal(t, planar.Data, input.GetData())

	reused, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, 2, 2))
	require.NoError(t, err)
	defer reused.Destroy()
	require.NoError(t, FillInput(reused, img))
	assert.Equal(t, planar.Data, reused.GetData())

	wrong, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, 4, 4))
	require.NoError(t, err)
	defer wrong.Destroy()
	assert.ErrorIs(t, FillInput(wrong, img), images.ErrShapeMismatch)
}

func TestInitRuntime_MissingLibrary(t *testing.T) {
	if ort.IsInitialized() {
		t.Skip("ONNX Runtime environment is already initialized")
	}
	err := InitRuntime(filepath.Join(t.TempDir(), "libonnxruntime.so"))
	assert.Error(t, err)
	assert.False(t, ort.IsInitialized())
	assert.NoError(t, ShutdownRuntime())
	assert.NotEmpty(t, DefaultLibraryPath())
}
