package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

func TestBindInput(t *testing.T) {
	planar, err := preprocess.ToPlanarFloat(testRaster(t))
	require.NoError(t, err)

	g := G.NewGraph()
	input := G.NewTensor(g, tensor.Float32, 4, G.WithShape(1, 3, 2, 2), G.WithName("input"))
	sum, err := G.Sum(input)
	require.NoError(t, err)

	require.NoError(t, BindInput(input, planar))

	tm := G.NewTapeMachine(g)
	defer tm.Close()
	require.NoError(t, tm.RunAll())

	var want float32
	for _, v := range planar.Data {
		want += v
	}
	got, ok := sum.Value().Data().(float32)
	require.True(t, ok)
	assert.InDelta(t, want, got, 1e-4)
}

func TestBindInput_Errors(t *testing.T) {
	planar, err := preprocess.ToPlanarFloat(testRaster(t))
	require.NoError(t, err)

	assert.ErrorIs(t, BindInput(nil, planar), images.ErrEmptyInput)

	g := G.NewGraph()
	wrongShape := G.NewTensor(g, tensor.Float32, 4, G.WithShape(1, 3, 4, 4), G.WithName("wide"))
	assert.ErrorIs(t, BindInput(wrongShape, planar), images.ErrShapeMismatch)

	wrongType := G.NewTensor(g, tensor.Float64, 4, G.WithShape(1, 3, 2, 2), G.WithName("f64"))
	assert.ErrorIs(t, BindInput(wrongType, planar), images.ErrShapeMismatch)

	input := G.NewTensor(g, tensor.Float32, 4, G.WithShape(1, 3, 2, 2), G.WithName("input"))
	short := preprocess.Tensor{Channels: 3, Height: 2, Width: 2, Data: make([]float32, 5)}
	assert.ErrorIs(t, BindInput(input, short), images.ErrShapeMismatch)
}
