package preprocess

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tensorprep/images"
)

// Config describes the input a model expects and how to produce it.
type Config struct {
	// Name of the model for logs and metrics.
	Name string `json:"name" yaml:"name"`
	// InputWidth is the expected width of the model input.
	InputWidth int `json:"input_width" yaml:"input_width"`
	// InputHeight is the expected height of the model input.
	InputHeight int `json:"input_height" yaml:"input_height"`
	// InputChannels is the number of channels (1 for grayscale, 3 for color, 4 with alpha).
	InputChannels int `json:"input_channels" yaml:"input_channels"`
	// Backend selects the resampling implementation.
	Backend Backend `json:"backend" yaml:"backend"`
	// Filter selects the interpolation filter.
	Filter images.ResampleFilter `json:"filter" yaml:"filter"`
}

// Validate checks that the configuration describes a producible tensor.
func (c Config) Validate() error {
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return errors.Wrapf(images.ErrInvalidDimension, "model input %dx%d", c.InputWidth, c.InputHeight)
	}
	if !images.SupportedChannels(c.InputChannels) {
		return errors.Wrapf(images.ErrUnsupportedChannelCount, "model input has %d channels", c.InputChannels)
	}
	return nil
}

// YOLOv7Config returns the configuration for YOLOv7 models: a square 3-channel
// input resized bilinearly.
//
// Arguments:
// - inputSize: The input size (typically 640).
//
// Returns:
// - A Config for YOLOv7.
//
// @example
// pipeline, err := NewPipeline(YOLOv7Config(640))
func YOLOv7Config(inputSize int) Config {
	return Config{
		Name:          "yolov7",
		InputWidth:    inputSize,
		InputHeight:   inputSize,
		InputChannels: 3,
		Backend:       BackendNfnt,
		Filter:        images.BilinearFilter,
	}
}

// YOLOv4Config returns the configuration for YOLOv4 models.
//
// Arguments:
// - inputSize: The input size (typically 416, 512, or 608).
//
// Returns:
// - A Config for YOLOv4.
func YOLOv4Config(inputSize int) Config {
	return Config{
		Name:          "yolov4",
		InputWidth:    inputSize,
		InputHeight:   inputSize,
		InputChannels: 3,
		Backend:       BackendNfnt,
		Filter:        images.BilinearFilter,
	}
}

// DFineConfig returns the configuration for D-FINE models.
func DFineConfig(inputSize int) Config {
	return Config{
		Name:          "d-fine",
		InputWidth:    inputSize,
		InputHeight:   inputSize,
		InputChannels: 3,
		Backend:       BackendNfnt,
		Filter:        images.BicubicFilter,
	}
}

// Preset returns a named preset. Known names are yolov7, yolov4 and d-fine.
func Preset(name string, inputSize int) (Config, error) {
	switch name {
	case "yolov7":
		return YOLOv7Config(inputSize), nil
	case "yolov4":
		return YOLOv4Config(inputSize), nil
	case "d-fine", "dfine":
		return DFineConfig(inputSize), nil
	default:
		return Config{}, errors.Errorf("unknown preset %q", name)
	}
}
