package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "yolov7", settings.Preprocess.Model)
	assert.Equal(t, 640, settings.Preprocess.Width)
	assert.Equal(t, 640, settings.Preprocess.Height)
	assert.Equal(t, 3, settings.Preprocess.Channels)
	assert.Equal(t, "info", settings.Log.Level)
	assert.False(t, settings.Metrics.Enabled)
	assert.Equal(t, images.ReaderGo, settings.ImageReader())

	cfg, err := settings.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, preprocess.YOLOv7Config(640), cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TENSORPREP_PREPROCESS_WIDTH", "320")
	t.Setenv("TENSORPREP_PREPROCESS_BACKEND", "kernel")
	t.Setenv("TENSORPREP_READER", "gocv")
	t.Setenv("TENSORPREP_METRICS_ENABLED", "true")

	settings, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 320, settings.Preprocess.Width)
	assert.Equal(t, 640, settings.Preprocess.Height)
	assert.Equal(t, images.ReaderGocv, settings.ImageReader())
	assert.True(t, settings.Metrics.Enabled)

	cfg, err := settings.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, preprocess.BackendKernel, cfg.Backend)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tensorprep.yaml")
	contents := `
preprocess:
  model: d-fine
  width: 512
  height: 384
  channels: 1
  filter: lanczos
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	settings, err := Load(New(), path)
	require.NoError(t, err)

	cfg, err := settings.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, preprocess.Config{
		Name:          "d-fine",
		InputWidth:    512,
		InputHeight:   384,
		InputChannels: 1,
		Backend:       preprocess.BackendNfnt,
		Filter:        images.LanczosFilter,
	}, cfg)
	assert.Equal(t, "json", settings.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	badChannels := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(badChannels, []byte("preprocess:\n  channels: 2\n"), 0o600))
	_, err = Load(New(), badChannels)
	assert.ErrorIs(t, err, images.ErrUnsupportedChannelCount)

	t.Setenv("TENSORPREP_PREPROCESS_FILTER", "box")
	_, err = Load(New(), "")
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	settings, err := Load(New(), "")
	require.NoError(t, err)

	settings.Reader = "vips"
	assert.Error(t, settings.Validate())
	assert.Equal(t, images.ReaderGo, settings.ImageReader())

	settings.Reader = "go"
	settings.Log.Level = "loud"
	assert.Error(t, settings.Validate())
}

func TestSettings_YAML(t *testing.T) {
	settings, err := Load(New(), "")
	require.NoError(t, err)

	out, err := settings.YAML()
	require.NoError(t, err)

	var decoded Settings
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, *settings, decoded)
	assert.Contains(t, string(out), "model: yolov7")
}

func TestSettings_PipelineConfigPresets(t *testing.T) {
	settings, err := Load(New(), "")
	require.NoError(t, err)

	settings.Preprocess.Model = "D-FINE"
	cfg, err := settings.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, "d-fine", cfg.Name)
	assert.Equal(t, images.BicubicFilter, cfg.Filter)
	assert.Equal(t, preprocess.BackendNfnt, cfg.Backend)

	settings.Preprocess.Filter = "nearest"
	settings.Preprocess.Backend = "kernel"
	cfg, err = settings.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, images.NearestNeighborFilter, cfg.Filter)
	assert.Equal(t, preprocess.BackendKernel, cfg.Backend)

	settings.Preprocess = PreprocessSettings{Model: "resnet", Width: 224, Height: 224, Channels: 3}
	cfg, err = settings.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, preprocess.Config{
		Name:          "resnet",
		InputWidth:    224,
		InputHeight:   224,
		InputChannels: 3,
		Backend:       preprocess.BackendNfnt,
		Filter:        images.BilinearFilter,
	}, cfg)

	settings.Preprocess.Backend = "vips"
	_, err = settings.PipelineConfig()
	assert.Error(t, err)
}
