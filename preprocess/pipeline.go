package preprocess

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/logging"
	"github.com/nvr-ai/go-tensorprep/profiler"
)

// Stage names reported to the Recorder.
const (
	StageResize    = "resize"
	StagePlanarize = "planarize"
	StageTotal     = "total"
)

// Pipeline resizes a raster to a model's input resolution and converts it to
// a normalized planar tensor.
type Pipeline struct {
	config   Config
	resizer  *Resizer
	recorder profiler.Recorder
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the diagnostics sink. The default discards everything.
func WithRecorder(r profiler.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithResizer overrides the resizer built from the config's backend and filter.
func WithResizer(r *Resizer) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.resizer = r
		}
	}
}

// WithLogger sets the logger. The default is the "preprocess" module logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline for cfg.
//
// Arguments:
// - cfg: The model input configuration.
// - opts: Optional recorder, resizer and logger overrides.
//
// Returns:
// - The pipeline, or an error if cfg is invalid or names an unknown backend.
//
// @example
// pipeline, err := NewPipeline(YOLOv7Config(640), WithRecorder(profiler.NewTimings(0)))
//
//	if err != nil {
//	    return err
//	}
//
// res, err := pipeline.Run(ctx, raster)
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", cfg.Name)
	}

	p := &Pipeline{
		config:   cfg,
		recorder: profiler.Nop{},
		logger:   logging.Module("preprocess"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.resizer == nil {
		resampler, err := NewResampler(cfg.Backend, cfg.Filter)
		if err != nil {
			return nil, err
		}
		p.resizer = NewResizer(resampler)
	}

	p.logger = p.logger.With(slog.String("model", cfg.Name))
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Result is a preprocessed frame together with the geometry needed to map
// model outputs back onto the source image.
type Result struct {
	// Tensor is the normalized planar model input.
	Tensor Tensor `json:"tensor" yaml:"tensor"`
	// SourceWidth is the width of the raster before resizing.
	SourceWidth int `json:"source_width" yaml:"source_width"`
	// SourceHeight is the height of the raster before resizing.
	SourceHeight int `json:"source_height" yaml:"source_height"`
	// ScaleX is InputWidth / SourceWidth.
	ScaleX float64 `json:"scale_x" yaml:"scale_x"`
	// ScaleY is InputHeight / SourceHeight.
	ScaleY float64 `json:"scale_y" yaml:"scale_y"`
}

// ToSource maps a point in tensor coordinates back to source coordinates.
func (r Result) ToSource(x, y float64) (float64, float64) {
	if r.ScaleX == 0 || r.ScaleY == 0 {
		return x, y
	}
	return x / r.ScaleX, y / r.ScaleY
}

// Run resizes img to the configured input size and normalizes it.
//
// Arguments:
// - ctx: Checked before each stage; cancellation aborts the run.
// - img: The source raster. It is not modified.
//
// Returns:
// - The result holding the planar tensor of shape InputChannels x InputHeight
// x InputWidth and the source-to-input scale factors.
// - ErrUnsupportedChannelCount if img's channel count differs from the
// configured one, or any error of Resizer.Resize and ToPlanarFloat.
func (p *Pipeline) Run(ctx context.Context, img images.Raster) (Result, error) {
	start := time.Now()

	t, err := p.run(ctx, img)
	total := time.Since(start)
	p.recorder.RecordDuration(StageTotal, total.Seconds())

	if err != nil {
		p.recorder.RecordOperation(StageTotal, "error")
		p.logger.Debug("preprocess failed",
			slog.String("source", img.String()),
			slog.String("category", images.ErrorCategory(err)),
			slog.Any("error", err))
		return Result{}, err
	}

	res := Result{
		Tensor:       t,
		SourceWidth:  img.Width,
		SourceHeight: img.Height,
		ScaleX:       float64(p.config.InputWidth) / float64(img.Width),
		ScaleY:       float64(p.config.InputHeight) / float64(img.Height),
	}

	p.recorder.RecordOperation(StageTotal, "success")
	p.logger.Debug("preprocess finished",
		slog.String("source", img.String()),
		slog.String("tensor", t.String()),
		slog.Float64("scale_x", res.ScaleX),
		slog.Float64("scale_y", res.ScaleY),
		slog.Duration("duration", total))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, img images.Raster) (Tensor, error) {
	if err := p.checkContext(ctx); err != nil {
		return Tensor{}, err
	}
	if img.Channels != p.config.InputChannels {
		err := errors.Wrapf(images.ErrUnsupportedChannelCount,
			"model %q expects %d channels, got %d", p.config.Name, p.config.InputChannels, img.Channels)
		p.recorder.RecordError(StageTotal, images.ErrorCategory(err))
		return Tensor{}, err
	}

	resized, err := p.stage(StageResize, func() (images.Raster, error) {
		return p.resizer.Resize(img, p.config.InputWidth, p.config.InputHeight)
	})
	if err != nil {
		return Tensor{}, err
	}

	if err := p.checkContext(ctx); err != nil {
		return Tensor{}, err
	}

	start := time.Now()
	t, err := ToPlanarFloat(resized)
	p.recorder.RecordDuration(StagePlanarize, time.Since(start).Seconds())
	if err != nil {
		p.recorder.RecordError(StagePlanarize, images.ErrorCategory(err))
		return Tensor{}, err
	}
	return t, nil
}

// checkContext reports a canceled or expired ctx as a total-stage error.
func (p *Pipeline) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		err = errors.Wrap(err, "preprocess")
		p.recorder.RecordError(StageTotal, images.ErrorCategory(err))
		return err
	}
	return nil
}

// stage runs fn, recording its duration and any error under name.
func (p *Pipeline) stage(name string, fn func() (images.Raster, error)) (images.Raster, error) {
	start := time.Now()
	out, err := fn()
	p.recorder.RecordDuration(name, time.Since(start).Seconds())
	if err != nil {
		p.recorder.RecordError(name, images.ErrorCategory(err))
	}
	return out, err
}
