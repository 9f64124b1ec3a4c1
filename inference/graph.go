package inference

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

// BindInput binds t to a gorgonia graph input node, typically created with
// G.NewTensor(g, tensor.Float32, 4, G.WithShape(1, C, H, W)). The node reads
// t's backing slice directly.
//
// Arguments:
// - node: The float32 input node of shape [1, C, H, W].
// - t: The planar tensor.
//
// Returns:
// - ErrEmptyInput if node is nil.
// - ErrShapeMismatch if the node's dtype or shape does not fit t.
// - Any validation error of t.
//
// @example
// input := G.NewTensor(g, tensor.Float32, 4, G.WithShape(1, 3, 640, 640), G.WithName("input"))
//
//	if err := BindInput(input, res.Tensor); err != nil {
//	    return err
//	}
func BindInput(node *G.Node, t preprocess.Tensor) error {
	if node == nil {
		return errors.Wrap(images.ErrEmptyInput, "nil input node")
	}
	if node.Dtype() != tensor.Float32 {
		return errors.Wrapf(images.ErrShapeMismatch, "input node %s has dtype %v, want float32", node.Name(), node.Dtype())
	}
	want := tensor.Shape{1, t.Channels, t.Height, t.Width}
	if !node.Shape().Eq(want) {
		return errors.Wrapf(images.ErrShapeMismatch, "input node %s has shape %v, tensor is %v", node.Name(), node.Shape(), want)
	}

	dense, err := ToDense(t)
	if err != nil {
		return err
	}
	if err := G.Let(node, dense); err != nil {
		return errors.Wrapf(err, "failed to bind input node %s", node.Name())
	}
	return nil
}
