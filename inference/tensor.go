// Package inference hands preprocessed tensors to inference runtimes.
package inference

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

// NewInputTensor wraps t as an ONNX Runtime input tensor of shape
// [1, C, H, W]. The tensor shares t's backing slice; the caller owns it and
// must Destroy it.
//
// Arguments:
// - t: The planar tensor.
//
// Returns:
// - The ONNX Runtime tensor.
// - error if t is invalid or the runtime rejects it (for example when the
// ONNX Runtime environment is not initialized).
//
// @example
// input, err := NewInputTensor(t)
//
//	if err != nil {
//	    return err
//	}
//
// defer input.Destroy()
func NewInputTensor(t preprocess.Tensor) (*ort.Tensor[float32], error) {
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "input tensor")
	}
	input, err := ort.NewTensor(ort.NewShape(t.BatchShape()...), t.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	return input, nil
}

// FillInput writes the planar, [0, 1]-scaled form of img straight into dst's
// backing data, so a session's preallocated input tensor can be reused frame
// after frame.
//
// Arguments:
// - dst: The input tensor, typically shaped [1, C, H, W].
// - img: The raster, already resized to the model's input resolution.
//
// Returns:
// - ErrShapeMismatch if dst's shape does not match img.
// - Any validation error of img.
func FillInput(dst *ort.Tensor[float32], img images.Raster) error {
	if dst == nil {
		return errors.Wrap(images.ErrEmptyInput, "nil destination tensor")
	}
	if err := checkShape(dst.GetShape(), img); err != nil {
		return err
	}
	return preprocess.FillPlanar(dst.GetData(), img)
}

// checkShape verifies a [1, C, H, W] or [C, H, W] shape against img.
func checkShape(shape ort.Shape, img images.Raster) error {
	dims := []int64(shape)
	if len(dims) == 4 {
		if dims[0] != 1 {
			return errors.Wrapf(images.ErrShapeMismatch, "batch size %d, want 1", dims[0])
		}
		dims = dims[1:]
	}
	if len(dims) != 3 ||
		dims[0] != int64(img.Channels) ||
		dims[1] != int64(img.Height) ||
		dims[2] != int64(img.Width) {
		return errors.Wrapf(images.ErrShapeMismatch, "tensor shape %v does not fit raster %s", shape, img)
	}
	return nil
}

// ToDense wraps t as a gorgonia dense tensor of shape [1, C, H, W] sharing
// t's backing slice.
//
// Arguments:
// - t: The planar tensor.
//
// Returns:
// - The dense tensor.
// - error if t is invalid.
func ToDense(t preprocess.Tensor) (*tensor.Dense, error) {
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "dense tensor")
	}
	return tensor.New(
		tensor.WithShape(1, t.Channels, t.Height, t.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(t.Data),
	), nil
}
