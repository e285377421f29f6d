package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sroyc/windtrace/internal/batch"
	"github.com/sroyc/windtrace/internal/config"
	"github.com/sroyc/windtrace/internal/flux"
	"github.com/sroyc/windtrace/internal/persistence"
	"github.com/sroyc/windtrace/internal/radiation"
	"github.com/sroyc/windtrace/internal/storage"
	"github.com/sroyc/windtrace/internal/streamline"
	"github.com/sroyc/windtrace/internal/wind"
)

var (
	dataDir    string
	configFile string
	dbPath     string

	r0         float64
	z0         float64
	rho0       float64
	vz0        float64
	forceModel string
	backend    string
	maxSteps   int
	tolerance  float64

	batchRLo     float64
	batchRHi     float64
	batchLines   int
	batchWorkers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "windtrace",
		Short: "line-driven accretion-disc wind streamline integrator",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".windtrace", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "optional sqlite checkpoint database")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate one streamline",
		RunE:  runLine,
	}
	registerRunFlags(runCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "integrate a batch of streamlines over a span of launch radii",
		RunE:  runBatch,
	}
	registerBatchFlags(batchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "dump run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, batchCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&r0, "r0", 375, "launch radius [Rg]")
	cmd.Flags().Float64Var(&z0, "z0", 10, "launch height [Rg]")
	cmd.Flags().Float64Var(&rho0, "rho0", 2e8, "launch density [1/cm^3]")
	cmd.Flags().Float64Var(&vz0, "vz0", 1e7, "initial vertical velocity [cm/s]")
	cmd.Flags().StringVar(&forceModel, "force-model", "full", "full | gravityonly | debug")
	cmd.Flags().StringVar(&backend, "backend", "adaptive", "flux backend: adaptive | fixed")
	cmd.Flags().IntVar(&maxSteps, "steps", 5000, "step ceiling")
	cmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "integrator tolerance")
}

func registerBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&batchRLo, "rlo", 60, "lowest launch radius [Rg]")
	cmd.Flags().Float64Var(&batchRHi, "rhi", 1500, "highest launch radius [Rg]")
	cmd.Flags().IntVar(&batchLines, "lines", 30, "number of streamlines")
	cmd.Flags().IntVar(&batchWorkers, "workers", 0, "worker pool size (0 = NumCPU)")
	cmd.Flags().StringVar(&forceModel, "force-model", "full", "full | gravityonly | debug")
	cmd.Flags().StringVar(&backend, "backend", "adaptive", "flux backend: adaptive | fixed")
	cmd.Flags().IntVar(&maxSteps, "steps", 5000, "step ceiling per line")
}

// applyLineOverrides copies flag values into the config, but only for flags
// the user actually passed, so a --config file is not clobbered by flag
// defaults.
func applyLineOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("r0") {
		cfg.Line.R0 = r0
	}
	if f.Changed("z0") {
		cfg.Line.Z0 = z0
	}
	if f.Changed("rho0") {
		cfg.Line.Rho0 = rho0
	}
	if f.Changed("vz0") {
		cfg.Line.VZ0 = vz0
	}
	if f.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if f.Changed("steps") {
		cfg.MaxSteps = maxSteps
	}
}

func applyBatchOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("rlo") {
		cfg.Batch.RLo = batchRLo
	}
	if f.Changed("rhi") {
		cfg.Batch.RHi = batchRHi
	}
	if f.Changed("lines") {
		cfg.Batch.Lines = batchLines
	}
	if f.Changed("workers") {
		cfg.Batch.Workers = batchWorkers
	}
	if f.Changed("steps") {
		cfg.MaxSteps = maxSteps
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.Default(), nil
}

// setup builds the shared simulation environment from config plus CLI
// overrides.
func setup(cmd *cobra.Command) (*config.Config, wind.Context, *radiation.Field, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if cmd.Flags().Changed("force-model") {
		cfg.ForceModel = forceModel
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = backend
	}

	be, err := cfg.FluxBackend()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := wind.NewDisc(cfg.DiscParams())
	field, err := radiation.New(ctx, flux.New(be))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("radiation field: %w", err)
	}
	return cfg, ctx, field, nil
}

func runLine(cmd *cobra.Command, args []string) error {
	cfg, wctx, field, err := setup(cmd)
	if err != nil {
		return err
	}
	applyLineOverrides(cmd, cfg)

	lineCfg, err := cfg.StreamlineConfig()
	if err != nil {
		return err
	}

	slog.Info("starting streamline",
		"r0", lineCfg.R0, "z0", lineCfg.Z0,
		"force_model", lineCfg.ForceModel.String(),
		"ionization_radius", field.IonizationRadius())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	line := streamline.New(wctx, field, lineCfg)
	status, err := line.Iterate(ctx, cfg.MaxSteps)
	if err != nil {
		return err
	}

	slog.Info("streamline finished",
		"status", status.String(),
		"escaped", line.Escaped(),
		"steps", line.History().Len())

	return saveRun(lineCfg, status, line.Escaped(), line.History())
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, wctx, field, err := setup(cmd)
	if err != nil {
		return err
	}
	applyBatchOverrides(cmd, cfg)
	base, err := cfg.StreamlineConfig()
	if err != nil {
		return err
	}

	cfgs := batch.LaunchConfigs(base, cfg.Batch.RLo, cfg.Batch.RHi, cfg.Batch.Lines)
	runner := batch.NewRunner(wctx, field, cfg.Batch.Workers, cfg.MaxSteps)

	slog.Info("starting batch", "lines", len(cfgs), "r_lo", cfg.Batch.RLo, "r_hi", cfg.Batch.RHi)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := runner.Run(ctx, cfgs)
	if err != nil {
		return err
	}

	escaped := 0
	for _, res := range results {
		if res.Escaped {
			escaped++
		}
		if err := saveRun(res.Config, res.Status, res.Escaped, res.History); err != nil {
			return err
		}
	}
	slog.Info("batch finished", "lines", len(results), "escaped", escaped)
	return nil
}

func saveRun(cfg streamline.Config, status streamline.Status, escaped bool, hist *streamline.History) error {
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(cfg, status, escaped, hist)
	if err != nil {
		return err
	}
	slog.Info("saved run", "id", runID)

	if dbPath != "" {
		db, err := persistence.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveRun(runID, cfg, status, escaped, hist); err != nil {
			return err
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tR0\tSTATUS\tESCAPED\tSTEPS\tWHEN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%v\t%d\t%s\n",
			run.ID, run.R0, run.Status, run.Escaped, run.Steps,
			humanize.Time(run.Timestamp))
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
