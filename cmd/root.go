// Package cmd implements the tensorprep command line interface.
package cmd

import (
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvr-ai/go-tensorprep/config"
	"github.com/nvr-ai/go-tensorprep/logging"
	"github.com/nvr-ai/go-tensorprep/preprocess"
	"github.com/nvr-ai/go-tensorprep/profiler"
)

// App carries the state shared by every subcommand.
type App struct {
	Viper      *viper.Viper
	ConfigFile string
	Settings   *config.Settings
	Timings    *profiler.Timings
	Registry   *prometheus.Registry
	Recorder   profiler.Recorder
}

// NewApp returns an App with defaults loaded and nothing read yet.
func NewApp() *App {
	return &App{Viper: config.New()}
}

// RootCommand creates the tensorprep root command.
func RootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tensorprep",
		Short:         "Resize images and convert them to planar float32 tensors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, app)

	rootCmd.AddCommand(
		runCommand(app),
		benchCommand(app),
		configCommand(app),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(app)
	}

	return rootCmd
}

// setupFlags defines the global flags and binds them to viper keys.
func setupFlags(rootCmd *cobra.Command, app *App) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&app.ConfigFile, "config", "c", "", "Path to a YAML config file (default ./tensorprep.yaml)")
	flags.String("model", "", "Model preset (yolov7, yolov4, d-fine) or a custom name")
	flags.Int("width", 0, "Model input width")
	flags.Int("height", 0, "Model input height")
	flags.Int("channels", 0, "Model input channels (1, 3 or 4)")
	flags.String("backend", "", "Resize backend: nfnt, gocv or kernel")
	flags.String("filter", "", "Resample filter: nearest, bilinear, bicubic, lanczos or mitchell")
	flags.String("reader", "", "Image reader: go or gocv")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.Bool("metrics", false, "Collect Prometheus metrics and print them on exit")
	flags.Bool("ort", false, "Hand every tensor to ONNX Runtime as an input tensor")
	flags.String("ort-lib", "", "Path to the ONNX Runtime shared library")

	bindings := map[string]string{
		"preprocess.model":       "model",
		"preprocess.width":       "width",
		"preprocess.height":      "height",
		"preprocess.channels":    "channels",
		"preprocess.backend":     "backend",
		"preprocess.filter":      "filter",
		"reader":                 "reader",
		"log.level":              "log-level",
		"log.format":             "log-format",
		"metrics.enabled":        "metrics",
		"inference.enabled":      "ort",
		"inference.library_path": "ort-lib",
	}
	for key, name := range bindings {
		// Only Lookup can fail and every name above is defined.
		_ = app.Viper.BindPFlag(key, flags.Lookup(name))
	}
}

// initialize loads the settings, installs the logger and builds the recorders.
func initialize(app *App) error {
	settings, err := config.Load(app.Viper, app.ConfigFile)
	if err != nil {
		return err
	}
	app.Settings = settings

	if err := logging.Init(settings.Log.Level, settings.Log.Format); err != nil {
		return err
	}

	app.Timings = profiler.NewTimings(0)
	recorders := profiler.Multi{app.Timings, profiler.NewLogRecorder(logging.Module("profiler"))}

	if settings.Metrics.Enabled {
		app.Registry = prometheus.NewRegistry()
		prom, err := profiler.NewPrometheusRecorder(app.Registry)
		if err != nil {
			return err
		}
		recorders = append(recorders, prom)
	}
	app.Recorder = recorders
	return nil
}

// pipeline builds the preprocessing pipeline from the loaded settings.
func (app *App) pipeline() (*preprocess.Pipeline, error) {
	cfg, err := app.Settings.PipelineConfig()
	if err != nil {
		return nil, err
	}
	return preprocess.NewPipeline(cfg,
		preprocess.WithRecorder(app.Recorder),
		preprocess.WithLogger(logging.Module("preprocess")))
}

// writeMetrics prints the gathered Prometheus metrics in text exposition format.
func (app *App) writeMetrics(w io.Writer) error {
	if app.Registry == nil {
		return nil
	}
	families, err := app.Registry.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}
