package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/logging"
	"github.com/nvr-ai/go-tensorprep/preprocess"
	"github.com/nvr-ai/go-tensorprep/profiler"
)

// Suite manages and executes benchmark scenarios.
type Suite struct {
	scenarios []Scenario
	corpus    []images.Raster
	outputDir string
	recorder  profiler.Recorder
	logger    *slog.Logger
	mu        sync.RWMutex
	results   []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// OutputPath is where SaveResults writes. Empty disables saving.
	OutputPath string `json:"outputPath" yaml:"outputPath"`
	// Recorder additionally receives every pipeline record. Optional.
	Recorder profiler.Recorder `json:"-" yaml:"-"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	recorder := args.Recorder
	if recorder == nil {
		recorder = profiler.Nop{}
	}
	return &Suite{
		outputDir: args.OutputPath,
		recorder:  recorder,
		logger:    logging.Module("benchmark"),
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}
}

// AddScenario adds a scenario to the suite.
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarioSet adds every scenario of set.
func (bs *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, s := range set.Scenarios {
		bs.AddScenario(s)
	}
}

// Scenarios returns a copy of the configured scenarios.
func (bs *Suite) Scenarios() []Scenario {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	out := make([]Scenario, len(bs.scenarios))
	copy(out, bs.scenarios)
	return out
}

// AddFrame adds a raster to the corpus. With a non-empty corpus, scenarios
// cycle through it instead of generating synthetic frames.
func (bs *Suite) AddFrame(r images.Raster) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.corpus = append(bs.corpus, r)
}

// frames returns the rasters a scenario runs over.
func (bs *Suite) frames(scenario Scenario) ([]images.Raster, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	if len(bs.corpus) > 0 {
		out := make([]images.Raster, 0, len(bs.corpus))
		for _, r := range bs.corpus {
			if r.Channels == scenario.Config.InputChannels {
				out = append(out, r)
			}
		}
		if len(out) == 0 {
			return nil, errors.Wrapf(images.ErrUnsupportedChannelCount,
				"no corpus frame has %d channels", scenario.Config.InputChannels)
		}
		return out, nil
	}

	frame, err := scenario.Source.Synthetic(scenario.Config.InputChannels)
	if err != nil {
		return nil, errors.Wrapf(err, "synthetic %s frame", scenario.Source.Name)
	}
	return []images.Raster{frame}, nil
}

// RunScenario executes a single scenario.
//
// Arguments:
//   - ctx: Cancels the run between iterations.
//   - scenario: The scenario to run.
//
// Returns:
//   - The measured metrics.
//   - error if the pipeline cannot be built or ctx is canceled.
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if scenario.Iterations <= 0 {
		return nil, errors.Errorf("scenario %s: iterations must be positive", scenario.Name)
	}

	frames, err := bs.frames(scenario)
	if err != nil {
		return nil, err
	}

	warm, err := preprocess.NewPipeline(scenario.Config, preprocess.WithLogger(bs.logger))
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	for i := 0; i < scenario.WarmupRuns; i++ {
		// Warmup failures show up again in the measured runs.
		_, _ = warm.Run(ctx, frames[i%len(frames)])
	}

	timings := profiler.NewTimings(scenario.Iterations)
	pipeline, err := preprocess.NewPipeline(scenario.Config,
		preprocess.WithRecorder(profiler.Multi{timings, bs.recorder}),
		preprocess.WithLogger(bs.logger))
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: time.Now(),
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	startTime := time.Now()
	failures := 0

	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
		}

		res, err := pipeline.Run(ctx, frames[i%len(frames)])
		if err != nil {
			failures++
			continue
		}
		if metrics.Checksum == "" {
			restored, err := preprocess.FromPlanarFloat(res.Tensor)
			if err == nil {
				metrics.Checksum = images.Checksum(restored)
			}
		}
	}

	totalDuration := time.Since(startTime)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics.TotalDuration = totalDuration
	metrics.FramesPerSecond = float64(scenario.Iterations-failures) / totalDuration.Seconds()
	metrics.ErrorRate = float64(failures) / float64(scenario.Iterations)
	if s, ok := timings.Stats(preprocess.StageResize); ok {
		metrics.ResizeDuration = s.Avg
	}
	if s, ok := timings.Stats(preprocess.StagePlanarize); ok {
		metrics.PlanarizeDuration = s.Avg
	}

	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}

	metrics.CPUStats = CPUMetrics{
		NumCPU: runtime.NumCPU(),
	}

	return metrics, nil
}

// RunAllScenarios executes every configured scenario, then saves the results
// when an output path is set. A failing scenario is logged and skipped.
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	for _, scenario := range bs.Scenarios() {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			bs.logger.Warn("scenario failed", "scenario", scenario.Name, "error", err)
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		bs.logger.Info("scenario completed",
			"scenario", scenario.Name,
			"fps", fmt.Sprintf("%.2f", metrics.FramesPerSecond),
			"resize", metrics.ResizeDuration,
			"planarize", metrics.PlanarizeDuration)
	}

	if bs.outputDir == "" {
		return nil
	}
	return bs.SaveResults()
}

// SaveResults writes the results as JSON and a CSV summary to the output directory.
func (bs *Suite) SaveResults() error {
	results := bs.GetResults()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}

	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return errors.Wrap(err, "failed to save summary CSV")
	}

	bs.logger.Info("results saved", "results", resultsFile, "summary", summaryFile)
	return nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{
		"Scenario", "Model", "Source", "Target", "Backend", "Filter",
		"FPS", "Resize_us", "Planarize_us", "Total_Alloc_MB", "Error_Rate", "Checksum",
	}); err != nil {
		return err
	}

	for _, result := range results {
		cfg := result.Scenario.Config
		if err := w.Write([]string{
			result.Scenario.Name,
			cfg.Name,
			string(result.Scenario.Source.Name),
			fmt.Sprintf("%dx%dx%d", cfg.InputWidth, cfg.InputHeight, cfg.InputChannels),
			string(cfg.Backend),
			cfg.Filter.String(),
			strconv.FormatFloat(result.FramesPerSecond, 'f', 2, 64),
			strconv.FormatInt(result.ResizeDuration.Microseconds(), 10),
			strconv.FormatInt(result.PlanarizeDuration.Microseconds(), 10),
			strconv.FormatFloat(float64(result.MemoryStats.TotalAllocBytes)/(1024*1024), 'f', 2, 64),
			strconv.FormatFloat(result.ErrorRate, 'f', 4, 64),
			result.Checksum,
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// GetResults returns all benchmark results.
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
