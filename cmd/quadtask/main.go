package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/quadtask/internal/config"
	"github.com/san-kum/quadtask/internal/experiment"
	"github.com/san-kum/quadtask/internal/storage"
	"github.com/san-kum/quadtask/internal/task"
	"github.com/san-kum/quadtask/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	seed       uint64
	action     float64
	episodes   int
	workers    int
	maxSteps   int
	runtime    float64
	integrator string
	dt         float64
	target     []float64
	initPose   []float64
	frameRate  int
	episodeIdx int

	logger *log.Logger
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))

func main() {
	rootCmd := &cobra.Command{
		Use:           "quadtask",
		Short:         "quadcopter hover task for reinforcement learning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				Prefix:          "quadtask",
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".quadtask", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run hover episodes with a constant action and save them",
		RunE:  runEpisodes,
	}
	addEpisodeFlags(runCmd)
	runCmd.Flags().IntVar(&episodes, "episodes", config.DefaultEpisodes, "number of episodes")
	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent episodes (0 = GOMAXPROCS)")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "step cap per episode")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step an episode live in the terminal",
		RunE:  runLive,
	}
	addEpisodeFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "steps per second")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one episode of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&episodeIdx, "episode", 0, "episode index")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file from the defaults or a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func addEpisodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().Float64Var(&action, "action", config.DefaultAction, "rotor speed command")
	cmd.Flags().Float64Var(&runtime, "runtime", 5, "episode time limit")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().Float64Var(&dt, "dt", 0, "simulation step (0 = 1/50)")
	cmd.Flags().Float64SliceVar(&target, "target", nil, "target position x,y,z")
	cmd.Flags().Float64SliceVar(&initPose, "init-pose", nil, "initial pose x,y,z,phi,theta,psi")
}

// loadConfig layers preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("action") {
		cfg.Action = action
	}
	if flags.Changed("runtime") {
		cfg.Task.Runtime = runtime
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("target") {
		cfg.Task.TargetPos = target
	}
	if flags.Changed("init-pose") {
		cfg.Task.InitPose = initPose
	}
	if flags.Lookup("episodes") != nil && flags.Changed("episodes") {
		cfg.Episodes = episodes
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Lookup("max-steps") != nil && flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFactory(cfg *config.Config) (func(task.Config) *task.Task, *experiment.Registry, error) {
	registry := experiment.NewRegistry()
	registry.SetLogger(logger.WithPrefix("task"))
	factory, err := registry.TaskFactory(cfg.Integrator, cfg.Physics, cfg.Dt)
	if err != nil {
		return nil, nil, err
	}
	return factory, registry, nil
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	factory, registry, err := newFactory(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ens := experiment.NewEnsemble(experiment.Config{
		Task:     cfg.ToTask(),
		Action:   cfg.Action,
		Episodes: cfg.Episodes,
		MaxSteps: cfg.MaxSteps,
		Workers:  cfg.Workers,
	}, registry, factory)

	logger.Info("running episodes",
		"episodes", cfg.Episodes,
		"action", cfg.Action,
		"seed", cfg.Seed,
		"sim", experiment.Describe(cfg.Integrator, cfg.Dt),
	)
	start := time.Now()

	eps, err := ens.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	tk := factory(cfg.ToTask())
	runID, err := st.Save(storage.RunMetadata{
		Seed:       cfg.Seed,
		Action:     cfg.Action,
		Runtime:    cfg.Task.Runtime,
		Target:     tk.TargetPos(),
		Integrator: cfg.Integrator,
	}, eps)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", runID, "elapsed", elapsed)

	sum := experiment.Summarize(eps)
	fmt.Println(titleStyle.Render("run " + runID))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EPISODE\tSEED\tSTEPS\tRETURN\tTERMINATED")
	for _, ep := range eps {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f\t%v\n", ep.Index, ep.Seed, ep.Len(), ep.Return, ep.Terminated)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nmean return: %.3f ± %.3f (min %.3f, max %.3f)\n", sum.MeanReturn, sum.StdReturn, sum.MinReturn, sum.MaxReturn)
	fmt.Printf("mean length: %.1f steps\n", sum.MeanLength)
	fmt.Println("\nmetrics:")
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	for _, name := range metricNames(meta.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
	}
	return nil
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	factory, _, err := newFactory(cfg)
	if err != nil {
		return err
	}
	return viz.Run(factory(cfg.ToTask()), cfg.Action, frameRate)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tEPISODES\tACTION\tRUNTIME\tINTEG\tMEAN RETURN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.2fs\t%s\t%.3f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Episodes,
			run.Action,
			run.Runtime,
			run.Integrator,
			run.Summary.MeanReturn,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	steps, err := st.LoadEpisode(runID, episodeIdx)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("episode: %d\n", episodeIdx)
	fmt.Printf("steps: %d\n\n", len(steps))

	series := []struct {
		caption string
		value   func(storage.Step) float64
	}{
		{"altitude (z)", func(s storage.Step) float64 { return s.Position[2] }},
		{"reward", func(s storage.Step) float64 { return s.Reward }},
		{"normalized altitude (obs0)", func(s storage.Step) float64 { return s.Observation[0] }},
		{"normalized climb rate (obs1)", func(s storage.Step) float64 { return s.Observation[1] }},
	}

	for _, sr := range series {
		data := make([]float64, len(steps))
		for i, s := range steps {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	logger.Info("config written", "path", args[0], "preset", strconv.Quote(preset))
	return nil
}
