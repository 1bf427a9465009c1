package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ringsim/internal/config"
	"github.com/san-kum/ringsim/internal/experiment"
	"github.com/san-kum/ringsim/internal/storage"
	"github.com/san-kum/ringsim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	dt         float64
	steps      int
	integrator string
	noSave     bool
	plotWidth  int
	plotHeight int
	plotRing   string
	frameRate  int

	logger = zap.NewNop()
)

const comparePreset = "pendulum"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ringsim",
		Short:         "energy-conserving ring simulation kernel",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ringsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and entropy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")
	plotCmd.Flags().StringVar(&plotRing, "ring", "", "plot one ring's energy instead")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [integrator...]",
		Short: "run one scenario under several integrators",
		Args:  cobra.ArbitraryArgs,
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	compareCmd.Flags().IntVar(&steps, "steps", 0, "spin count override")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	watchCmd := &cobra.Command{
		Use:   "watch [preset]",
		Short: "spin a scenario live in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchScenario,
	}
	addScenarioFlags(watchCmd)
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "frames per second")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, compareCmd, presetsCmd, watchCmd)
	return rootCmd
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	cmd.Flags().IntVar(&steps, "steps", 0, "spin count override")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")
}

// loadScenario resolves a scenario from --config or a preset name and applies
// overrides. A non-empty integ replaces the scenario's integrator.
func loadScenario(args []string, integ string) (*config.Scenario, error) {
	var (
		sc  *config.Scenario
		err error
	)
	switch {
	case configFile != "":
		sc, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	case len(args) > 0:
		var ok bool
		sc, ok = config.Preset(args[0])
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", args[0], config.PresetNames())
		}
	default:
		sc, _ = config.Preset("friction")
	}
	if dt > 0 {
		sc.Dt = dt
	}
	if steps > 0 {
		sc.Steps = steps
	}
	if integ != "" {
		sc.Integrator = integ
	}
	return sc, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args, integrator)
	if err != nil {
		return err
	}
	exp, err := experiment.New(sc, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, runErr := exp.Run(ctx)
	if res != nil {
		fmt.Fprintln(cmd.OutOrStdout(), viz.RenderSummary(sc.Name, res.Spins, res.Metrics))
		fmt.Fprintln(cmd.OutOrStdout(), viz.RingTable(res.Final))
	}
	if runErr != nil {
		return runErr
	}
	if noSave {
		return nil
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	id, err := store.Save(sc, res.Spins, res.Metrics)
	if err != nil {
		return err
	}
	logger.Debug("run saved", zap.String("id", id))
	fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", id)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tINTEGRATOR\tSTEPS\tENTROPY\tCONSERVED\tTIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6g\t%t\t%s\n",
			r.ID, r.Scenario, r.Integrator, r.Steps, r.Entropy, r.Conserved,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	spins, err := storage.New(dataDir).LoadSpins(args[0])
	if err != nil {
		return err
	}
	if len(spins) == 0 {
		return fmt.Errorf("run %s has no spins", args[0])
	}
	if plotRing == "" {
		fmt.Fprintln(cmd.OutOrStdout(), viz.PlotSpins(spins, plotWidth, plotHeight))
		return nil
	}
	if _, ok := spins[0].Rings[plotRing]; !ok {
		return fmt.Errorf("run %s has no ring %q", args[0], plotRing)
	}
	series := make([]float64, len(spins))
	for i, sp := range spins {
		series[i] = sp.Rings[plotRing]
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.PlotSeries(plotRing+" energy", series, plotWidth, plotHeight))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], cmd.OutOrStdout())
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{comparePreset}
	}
	names := args[1:]
	if len(names) == 0 {
		names = experiment.NewRegistry().ListIntegrators()
	}

	exps := make([]*experiment.Experiment, 0, len(names))
	for _, name := range names {
		sc, err := loadScenario(args[:1], name)
		if err != nil {
			return err
		}
		if !sc.UsesIntegrator() {
			return fmt.Errorf("scenario %q has no integrated rings, every integrator would give the same run", sc.Name)
		}
		sc.Name = sc.Name + "/" + name
		exp, err := experiment.New(sc, experiment.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		exps = append(exps, exp)
	}

	results, err := experiment.Sweep(cmd.Context(), exps)
	if err != nil {
		return err
	}
	return writeComparison(cmd.OutOrStdout(), names, results)
}

func writeComparison(out io.Writer, names []string, results []*experiment.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tMAX DRIFT\tENTROPY\tTRANSFER\tCONSERVED")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%.3e\t%.6g\t%.6g\t%s\n",
			names[i], r.Metrics["max_drift"], r.Metrics["entropy_produced"],
			r.Metrics["transfer_volume"], viz.Conservation(r.Conserved()))
	}
	return w.Flush()
}

func showPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		sc, ok := config.Preset(args[0])
		if !ok {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		data, err := yaml.Marshal(sc)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range config.PresetNames() {
		sc, _ := config.Preset(name)
		fmt.Fprintf(w, "%s\t%d rings\t%s\n", name, len(sc.Rings), sc.Description)
	}
	return w.Flush()
}

func watchScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args, integrator)
	if err != nil {
		return err
	}
	// log lines would tear the alt screen
	exp, err := experiment.New(sc)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = tea.NewProgram(viz.NewWatch(exp, frameRate), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
