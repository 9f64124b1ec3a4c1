package benchmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/preprocess"
)

// Scenario defines one benchmark configuration: which frames go in, and which
// pipeline processes them.
type Scenario struct {
	Name string `json:"name" yaml:"name"`
	// Source sizes the synthetic frames used when the suite has no corpus.
	Source images.Resolution `json:"source" yaml:"source"`
	// Config is the pipeline configuration under test.
	Config     preprocess.Config `json:"config" yaml:"config"`
	Iterations int               `json:"iterations" yaml:"iterations"`
	WarmupRuns int               `json:"warmup_runs" yaml:"warmup_runs"`
}

// ScenarioBuilder helps build scenarios with a fluent API.
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a builder for a YOLOv7 640x640 scenario over
// 1080p frames, 100 iterations after 10 warmup runs.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	source, _ := images.GetResolutionByType(images.ResolutionTypeFHD1080p)
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Source:     source,
			Config:     preprocess.YOLOv7Config(640),
			Iterations: 100,
			WarmupRuns: 10,
		},
	}
}

// WithConfig sets the pipeline configuration.
func (sb *ScenarioBuilder) WithConfig(cfg preprocess.Config) *ScenarioBuilder {
	sb.scenario.Config = cfg
	return sb
}

// WithSource sets the source frame resolution.
func (sb *ScenarioBuilder) WithSource(res images.Resolution) *ScenarioBuilder {
	sb.scenario.Source = res
	return sb
}

// WithResolution sets the model input resolution.
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Config.InputWidth = width
	sb.scenario.Config.InputHeight = height
	return sb
}

// WithBackend sets the resampling backend and filter.
func (sb *ScenarioBuilder) WithBackend(backend preprocess.Backend, filter images.ResampleFilter) *ScenarioBuilder {
	sb.scenario.Config.Backend = backend
	sb.scenario.Config.Filter = filter
	return sb
}

// WithIterations sets the number of measured iterations.
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of unmeasured warmup runs.
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured scenario.
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet is a named collection of related scenarios.
type ScenarioSet struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Backends lists every resampling backend in a stable order.
var Backends = []preprocess.Backend{
	preprocess.BackendNfnt,
	preprocess.BackendGocv,
	preprocess.BackendKernel,
}

// QuickScenarios resizes 720p and 1080p frames to cfg's input with cfg's backend.
func QuickScenarios(cfg preprocess.Config) *ScenarioSet {
	scenarios := make([]Scenario, 0, 2)
	for _, t := range []images.ResolutionType{images.ResolutionTypeHD720p, images.ResolutionTypeFHD1080p} {
		source, _ := images.GetResolutionByType(t)
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("quick_%s_%s", cfg.Name, source.Name)).
			WithConfig(cfg).
			WithSource(source).
			WithIterations(50).
			WithWarmupRuns(5).
			Build())
	}

	return &ScenarioSet{
		Name:        "Quick Preprocessing Test",
		Description: "Common camera frames resized to the model input",
		Scenarios:   scenarios,
	}
}

// BackendComparisonScenarios runs the same frames and filter through every backend.
func BackendComparisonScenarios(cfg preprocess.Config, source images.Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0, len(Backends))
	for _, backend := range Backends {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("backend_%s_%s", backend, cfg.Filter)).
			WithConfig(cfg).
			WithSource(source).
			WithBackend(backend, cfg.Filter).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Backend Comparison @ %s", source.Name),
		Description: fmt.Sprintf("Compares resampling backends resizing %s to %dx%d", source.Name, cfg.InputWidth, cfg.InputHeight),
		Scenarios:   scenarios,
	}
}

// ResolutionComparisonScenarios runs every known source resolution through cfg.
func ResolutionComparisonScenarios(cfg preprocess.Config) *ScenarioSet {
	all := images.GetAllResolutions()
	scenarios := make([]Scenario, 0, len(all))
	for _, source := range all {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("resolution_%s_%s", cfg.Backend, source.Name)).
			WithConfig(cfg).
			WithSource(source).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Resolution Comparison - %s", cfg.Backend),
		Description: "Compares source frame resolutions with the same pipeline",
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a JSON file.
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON file.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}

	return &scenarioSet, nil
}
