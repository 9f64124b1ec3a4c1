// Package config loads tensorprep settings from defaults, an optional YAML
// file and TENSORPREP_* environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/logging"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

// EnvPrefix prefixes every environment override, e.g. TENSORPREP_PREPROCESS_WIDTH.
const EnvPrefix = "TENSORPREP"

// FileName is the config file name searched for when no path is given.
const FileName = "tensorprep"

// Settings is the effective configuration.
type Settings struct {
	Preprocess PreprocessSettings `mapstructure:"preprocess" yaml:"preprocess"`
	// Reader selects the image decoder: "go" or "gocv".
	Reader    string            `mapstructure:"reader" yaml:"reader"`
	Log       LogSettings       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsSettings   `mapstructure:"metrics" yaml:"metrics"`
	Inference InferenceSettings `mapstructure:"inference" yaml:"inference"`
}

// PreprocessSettings describes the model input.
type PreprocessSettings struct {
	// Model names the model. A known preset name (yolov7, yolov4, d-fine)
	// supplies the backend and filter; any other name falls back to nfnt and
	// bilinear. Width, Height and Channels always apply.
	Model    string `mapstructure:"model" yaml:"model"`
	Width    int    `mapstructure:"width" yaml:"width"`
	Height   int    `mapstructure:"height" yaml:"height"`
	Channels int    `mapstructure:"channels" yaml:"channels"`
	// Backend overrides the model's resize backend when set.
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Filter overrides the model's resample filter when set.
	Filter string `mapstructure:"filter" yaml:"filter"`
}

// LogSettings configures the root logger.
type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsSettings configures the Prometheus recorder.
type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// InferenceSettings configures the ONNX Runtime handoff of the run command.
type InferenceSettings struct {
	// Enabled wraps every produced tensor as an ONNX Runtime input tensor.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// LibraryPath is the ONNX Runtime shared library; empty uses the platform default.
	LibraryPath string `mapstructure:"library_path" yaml:"library_path"`
}

// setDefaults registers every default on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("preprocess.model", "yolov7")
	v.SetDefault("preprocess.width", 640)
	v.SetDefault("preprocess.height", 640)
	v.SetDefault("preprocess.channels", 3)
	v.SetDefault("preprocess.backend", "")
	v.SetDefault("preprocess.filter", "")

	v.SetDefault("reader", string(images.ReaderGo))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("inference.enabled", false)
	v.SetDefault("inference.library_path", "")
}

// New returns a viper instance carrying the defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration into v and decodes it.
//
// Arguments:
// - v: The viper instance, usually from New with CLI flags bound.
// - path: An explicit config file. When empty, tensorprep.yaml is searched
// for in the working directory and a missing file is not an error.
//
// Returns:
// - The validated settings.
// - error if the file cannot be read or the settings are invalid.
//
// @example
// settings, err := config.Load(config.New(), "")
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		logging.Module("config").Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks every enumerated setting parses.
func (s *Settings) Validate() error {
	if _, err := s.PipelineConfig(); err != nil {
		return err
	}
	if _, err := images.ParseReader(s.Reader); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return err
	}
	return nil
}

// PipelineConfig converts the preprocess settings to a preprocess.Config,
// starting from the model's preset and applying the explicit settings on top.
func (s *Settings) PipelineConfig() (preprocess.Config, error) {
	model := strings.ToLower(strings.TrimSpace(s.Preprocess.Model))
	cfg, err := preprocess.Preset(model, s.Preprocess.Width)
	if err != nil {
		cfg = preprocess.Config{
			Name:    s.Preprocess.Model,
			Backend: preprocess.BackendNfnt,
			Filter:  images.BilinearFilter,
		}
	}
	cfg.InputWidth = s.Preprocess.Width
	cfg.InputHeight = s.Preprocess.Height
	cfg.InputChannels = s.Preprocess.Channels

	if s.Preprocess.Backend != "" {
		if cfg.Backend, err = preprocess.ParseBackend(s.Preprocess.Backend); err != nil {
			return preprocess.Config{}, err
		}
	}
	if s.Preprocess.Filter != "" {
		if cfg.Filter, err = images.ParseFilter(s.Preprocess.Filter); err != nil {
			return preprocess.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return preprocess.Config{}, errors.Wrap(err, "invalid preprocess settings")
	}
	return cfg, nil
}

// ImageReader returns the configured image decoder.
func (s *Settings) ImageReader() images.Reader {
	r, err := images.ParseReader(s.Reader)
	if err != nil {
		return images.ReaderGo
	}
	return r
}

// YAML renders the effective settings.
func (s *Settings) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render config")
	}
	return out, nil
}
