package cmd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/inference"
	"github.com/nvr-ai/go-tensorprep/logging"
	"github.com/nvr-ai/go-tensorprep/preprocess"
	"github.com/nvr-ai/go-tensorprep/util"
)

// Stage names the run command reports besides the pipeline's own.
const (
	// StageLoad names the image read and decode stage.
	StageLoad = "load"
	// StageHandoff names the wrap into an ONNX Runtime input tensor.
	StageHandoff = "handoff"
)

func runCommand(app *App) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "run [image|dir...]",
		Short: "Preprocess image files into planar float32 tensors",
		Long: `Read each image, resize it to the model input and convert it to a
planar float32 tensor in [0, 1]. Directories expand to the images they
contain in frame order. With --out, each tensor is written as raw
little-endian float32 to <out>/<name>.f32. With --ort, each tensor is also
wrapped as an ONNX Runtime input tensor of shape [1, C, H, W].`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := app.pipeline()
			if err != nil {
				return err
			}

			paths, err := util.ExpandPaths(args)
			if err != nil {
				return err
			}

			if app.Settings.Inference.Enabled {
				if err := inference.InitRuntime(app.Settings.Inference.LibraryPath); err != nil {
					return err
				}
				defer func() {
					if err := inference.ShutdownRuntime(); err != nil {
						logging.Module("run").Warn("failed to shut down ONNX Runtime", "error", err)
					}
				}()
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return errors.Wrap(err, "failed to create output directory")
				}
			}

			out := cmd.OutOrStdout()
			written := make(map[string]string, len(paths))
			for _, path := range paths {
				res, err := processFile(cmd, app, pipeline, path)
				if err != nil {
					return errors.Wrapf(err, "%s", path)
				}
				t := res.Tensor
				fmt.Fprintf(out, "%s: tensor %s (%d floats) scale %.4fx%.4f\n",
					path, t, t.Len(), res.ScaleX, res.ScaleY)

				if app.Settings.Inference.Enabled {
					if err := handoff(app, t); err != nil {
						return errors.Wrapf(err, "%s", path)
					}
				}

				if outDir != "" {
					dst := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".f32")
					if prev, ok := written[dst]; ok {
						return errors.Errorf("%s and %s both write %s", prev, path, dst)
					}
					written[dst] = path
					if err := writeTensor(dst, t); err != nil {
						return err
					}
				}
			}

			if err := app.Timings.Report(out); err != nil {
				return err
			}
			return app.writeMetrics(out)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for raw float32 tensor dumps")
	return cmd
}

// processFile loads one image and runs it through the pipeline.
func processFile(cmd *cobra.Command, app *App, pipeline *preprocess.Pipeline, path string) (preprocess.Result, error) {
	logger := logging.Module("run")
	channels := pipeline.Config().InputChannels

	start := time.Now()
	raster, source, err := images.ReadFile(path, app.Settings.ImageReader(), channels)
	app.Recorder.RecordDuration(StageLoad, time.Since(start).Seconds())
	if err != nil {
		app.Recorder.RecordError(StageLoad, images.ErrorCategory(err))
		return preprocess.Result{}, err
	}
	logger.Info("loaded image",
		"path", path,
		"source", source,
		"raster", raster.String(),
		"checksum", images.Checksum(raster))

	return pipeline.Run(cmd.Context(), raster)
}

// handoff wraps t as an ONNX Runtime input tensor and releases it again.
func handoff(app *App, t preprocess.Tensor) error {
	start := time.Now()
	input, err := inference.NewInputTensor(t)
	app.Recorder.RecordDuration(StageHandoff, time.Since(start).Seconds())
	if err != nil {
		app.Recorder.RecordError(StageHandoff, images.ErrorCategory(err))
		return err
	}
	defer input.Destroy()

	logging.Module("run").Debug("input tensor ready", "shape", []int64(input.GetShape()))
	return nil
}

// writeTensor dumps t's data as raw little-endian float32.
func writeTensor(path string, t preprocess.Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create tensor file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, t.Data); err != nil {
		return errors.Wrap(err, "failed to write tensor")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "failed to write tensor")
	}
	return f.Close()
}
