package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/experiment"
	"github.com/san-kum/grabsim/internal/export"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/logging"
	"github.com/san-kum/grabsim/internal/sim"
	"github.com/san-kum/grabsim/internal/store"
	"github.com/san-kum/grabsim/internal/stream"
	"github.com/san-kum/grabsim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir  string
	logLevel string
	jsonLogs bool

	configFile string
	preset     string
	dt         float64
	fixedDt    float64
	duration   float64
	movement   string
	integrator string
	seed       int64
	jitter     float64
	noSave     bool

	series  []string
	outPath string
	svgView string

	sweepParam  string
	sweepFrom   float64
	sweepTo     float64
	sweepSteps  int
	sweepMetric string

	addr string
	loop bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "grabsim",
		Short: "grab, hold and throw simulation lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(zap.NewNop())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".grabsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as json")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without saving the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot series of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"y", "z", "speed"},
		"series to plot ("+strings.Join(sim.SeriesNames, ", ")+")")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "draw a saved run's trajectory as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	svgCmd.Flags().StringVar(&svgView, "view", "side", "projection (side, front, top)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios and the names configs accept",
		Args:  cobra.NoArgs,
		RunE:  listScenarios,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "play a scenario in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run a scenario across a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "throw_velocity_scale", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 2, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "release_speed", "metric to plot against the parameter")

	serveCmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "stream a scenario to websocket clients in real time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScenario,
	}
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&loop, "loop", true, "restart the scenario when it ends")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, svgCmd, presetsCmd, scenariosCmd, liveCmd, sweepCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset of the scenario")
	cmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "host frame time")
	cmd.Flags().Float64Var(&fixedDt, "fixed-dt", sim.DefaultFixedDt, "physics step")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration, 0 runs until the scenario settles")
	cmd.Flags().StringVar(&movement, "movement", "", "movement type (instantaneous, kinematic, velocity_tracking)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "body integrator")
	cmd.Flags().Int64Var(&seed, "seed", 0, "tracking noise seed")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "tracking noise amplitude in metres")
}

// loadConfig layers defaults, the preset, the config file and finally any
// flag set on the command line.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	name := cfg.Scenario
	if len(args) > 0 {
		name = args[0]
	}

	if preset != "" {
		cfg = config.GetPreset(name, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(name))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("fixed-dt") {
		cfg.Sim.FixedDt = fixedDt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("movement") {
		mt, err := grab.ParseMovementType(movement)
		if err != nil {
			return nil, err
		}
		cfg.Grab.MovementType = mt
	}
	if flags.Changed("integrator") {
		cfg.Body.Integrator = integrator
	}
	if flags.Changed("seed") {
		cfg.Options.Seed = seed
	}
	if flags.Changed("jitter") {
		cfg.Options.Jitter = jitter
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := logLevel
	if cfg != nil {
		level = cfg.LogLevel
	}
	return logging.New(level, jsonLogs)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("running %s (%s)...\n", cfg.Scenario, cfg.Grab.MovementType)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printResult(result)
	return nil
}

func printResult(result *sim.Result) {
	fmt.Printf("frames: %d (fixed steps: %d)\n", result.Frames, result.FixedSteps)
	for _, err := range result.Errors {
		fmt.Printf("error: %v\n", err)
	}

	fmt.Println("\nevents:")
	for _, ev := range result.Events {
		who := ""
		if ev.Interactor != nil {
			who = string(ev.Interactor.ID())
		}
		fmt.Printf("  %7.3fs  %-15s %s\n", ev.Time, ev.Kind, who)
	}

	if r := result.Release; r != nil {
		fmt.Printf("\nrelease at %.3fs: velocity (%.3f, %.3f, %.3f) |v|=%.3f, angular |w|=%.3f\n",
			r.Time, r.Velocity.X(), r.Velocity.Y(), r.Velocity.Z(), r.Velocity.Len(), r.AngularVelocity.Len())
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tMOVEMENT\tFRAMES\tRELEASE")

	for _, run := range runs {
		release := "-"
		if run.Release != nil {
			v := run.Release.Velocity
			release = fmt.Sprintf("%.3f m/s", math.Sqrt(v[0]*v[0]+v[1]*v[1]+v[2]*v[2]))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Movement,
			run.Frames,
			release,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n", meta.Scenario, meta.Movement)
	fmt.Printf("samples: %d\n\n", len(samples))

	result := &sim.Result{Samples: samples}
	for _, name := range series {
		data, err := result.Series(name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if err := store.ExportJSON(outPath, meta, samples); err != nil {
		return err
	}
	if outPath != "-" && outPath != "" {
		fmt.Printf("exported %d frames to %s\n", len(samples), outPath)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	samples, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if outPath != "-" && outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.Trajectory(w, samples, svgView, 800, 600)
}

func listScenarios(cmd *cobra.Command, args []string) error {
	r := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tPRESETS")
	for _, name := range r.ListScenarios() {
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(config.ListPresets(name), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nmovements:   %s\n", strings.Join(r.ListMovements(), ", "))
	fmt.Printf("curves:      %s\n", strings.Join(r.ListCurves(), ", "))
	fmt.Printf("integrators: %s\n", strings.Join(r.ListIntegrators(), ", "))
	fmt.Printf("metrics:     %s\n", strings.Join(r.ListMetrics(), ", "))
	fmt.Printf("params:      %s\n", strings.Join(r.ListParams(), ", "))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	title := cfg.Scenario
	if preset != "" {
		title += "/" + preset
	}
	return viz.RunLive(title, cfg.Sim, viz.LiveFactory(cfg, zap.NewNop()))
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	values := experiment.Range(sweepFrom, sweepTo, sweepSteps)
	fmt.Printf("sweeping %s over %d values on %s...\n", sweepParam, len(values), cfg.Scenario)

	points, err := experiment.Sweep(cmd.Context(), cfg, sweepParam, values, logger)
	if err != nil {
		return err
	}

	names := append([]string(nil), cfg.Metrics...)
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(strings.Join(names, "\t")))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		row := []string{fmt.Sprintf("%.4g", p.Value)}
		for _, name := range names {
			row = append(row, fmt.Sprintf("%.4f", p.Result.Metrics[name]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
		if v, ok := p.Result.Metrics[sweepMetric]; ok {
			ys = append(ys, v)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(ys) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(ys,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", sweepMetric, sweepParam)),
		))
	}
	return nil
}

func serveScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	hub := stream.NewHub(logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	r := experiment.NewRegistry()
	go func() {
		err := hub.Play(ctx, cfg.Sim, func() (*sim.Simulator, error) {
			return experiment.Build(cfg, r, logger)
		}, loop)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("playback stopped", zap.Error(err))
		}
		stop()
	}()
	go func() {
		<-ctx.Done()
		hub.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("serving", zap.String("addr", addr), zap.String("scenario", cfg.Scenario))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
