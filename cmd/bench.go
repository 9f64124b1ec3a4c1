package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-tensorprep/benchmark"
	"github.com/nvr-ai/go-tensorprep/images"
	"github.com/nvr-ai/go-tensorprep/util"
)

func benchCommand(app *App) *cobra.Command {
	var (
		set        string
		source     string
		iterations int
		warmup     int
		outputDir  string
		scenarios  string
	)

	cmd := &cobra.Command{
		Use:   "bench [image|dir...]",
		Short: "Benchmark preprocessing backends and resolutions",
		Long: `Run benchmark scenarios against the configured pipeline. Image arguments
form the frame corpus; without them, synthetic frames of the --source
resolution are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Settings.PipelineConfig()
			if err != nil {
				return err
			}

			src, ok := images.GetResolutionByType(images.ResolutionType(source))
			if !ok {
				return errors.Errorf("unknown source resolution %q", source)
			}

			var scenarioSet *benchmark.ScenarioSet
			switch {
			case scenarios != "":
				scenarioSet, err = benchmark.LoadScenarioSet(scenarios)
				if err != nil {
					return err
				}
			case set == "quick":
				scenarioSet = benchmark.QuickScenarios(cfg)
			case set == "backends":
				scenarioSet = benchmark.BackendComparisonScenarios(cfg, src)
			case set == "resolutions":
				scenarioSet = benchmark.ResolutionComparisonScenarios(cfg)
			default:
				return errors.Errorf("unknown scenario set %q", set)
			}

			suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
				OutputPath: outputDir,
				Recorder:   app.Recorder,
			})
			for _, s := range scenarioSet.Scenarios {
				if cmd.Flags().Changed("iterations") {
					s.Iterations = iterations
				}
				if cmd.Flags().Changed("warmup") {
					s.WarmupRuns = warmup
				}
				suite.AddScenario(s)
			}

			paths, err := util.ExpandPaths(args)
			if err != nil {
				return err
			}
			for _, path := range paths {
				raster, _, err := images.ReadFile(path, app.Settings.ImageReader(), cfg.InputChannels)
				if err != nil {
					return errors.Wrapf(err, "%s", path)
				}
				suite.AddFrame(raster)
			}

			if err := suite.RunAllScenarios(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", scenarioSet.Name)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCENARIO\tBACKEND\tFILTER\tFPS\tRESIZE\tPLANARIZE\tERRORS")
			for _, r := range suite.GetResults() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%v\t%v\t%.2f%%\n",
					r.Scenario.Name,
					r.Scenario.Config.Backend,
					r.Scenario.Config.Filter,
					r.FramesPerSecond,
					r.ResizeDuration,
					r.PlanarizeDuration,
					r.ErrorRate*100)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return app.writeMetrics(out)
		},
	}

	cmd.Flags().StringVar(&set, "set", "backends", "Scenario set: quick, backends or resolutions")
	cmd.Flags().StringVar(&source, "source", string(images.ResolutionTypeFHD1080p), "Source frame resolution for synthetic frames")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 100, "Measured iterations per scenario")
	cmd.Flags().IntVar(&warmup, "warmup", 10, "Warmup runs per scenario")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for JSON and CSV results")
	cmd.Flags().StringVar(&scenarios, "scenarios", "", "Load scenarios from a JSON scenario set file")
	return cmd
}
