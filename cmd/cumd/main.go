package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/san-kum/cumd/internal/config"
	"github.com/san-kum/cumd/internal/energy"
	"github.com/san-kum/cumd/internal/md"
	"github.com/san-kum/cumd/internal/storage"
	"github.com/san-kum/cumd/internal/trajectory"
	"github.com/san-kum/cumd/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	noStore    bool
	writePath  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cumd",
		Short:        "constant-energy molecular dynamics of an fcc crystal",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cumd", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation and print an energy report per burst",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the data directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	dumpCmd := &cobra.Command{
		Use:   "config-dump",
		Short: "print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  dumpConfig,
	}
	addConfigFlags(dumpCmd)
	dumpCmd.Flags().StringVarP(&writePath, "output", "o", "", "also write the configuration to this file")

	reportCmd := &cobra.Command{
		Use:   "report [atoms] [epot] [ekin]",
		Short: "print one energy report from total energies in eV",
		Args:  cobra.ExactArgs(3),
		RunE:  printReport,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energies of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	trajCmd := &cobra.Command{
		Use:   "traj [path]",
		Short: "summarise a trajectory file",
		Args:  cobra.ExactArgs(1),
		RunE:  showTrajectory,
	}

	rootCmd.AddCommand(runCmd, liveCmd, dumpCmd, reportCmd, presetsCmd, listCmd, plotCmd, trajCmd)
	return rootCmd
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	config.RegisterFlags(cmd.Flags())
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		Path:   configFile,
		Preset: preset,
		Flags:  cmd.Flags(),
	})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr())
	d := &md.Driver{Out: cmd.OutOrStdout(), Logger: logger}
	if !noStore {
		d.Store = storage.New(dataDir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sum, err := d.Run(ctx, cfg)
	if sum != nil && sum.RunID != "" {
		logger.Info("run recorded", "id", sum.RunID, "trajectory", sum.Trajectory)
	}
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	d := &md.Driver{Store: storage.New(dataDir)}
	sum, err := viz.Run(cmd.Context(), cfg, d, tea.WithAltScreen())
	if sum != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "run id: %s\n", sum.RunID)
		fmt.Fprintf(cmd.OutOrStdout(), "steps: %d  energy drift: %.3e eV/atom\n", sum.Steps, sum.EnergyDrift)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if writePath != "" {
		if err := config.Save(writePath, cfg); err != nil {
			return err
		}
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func printReport(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("atoms: %w", err)
	}
	epot, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("epot: %w", err)
	}
	ekin, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("ekin: %w", err)
	}

	r, err := energy.Compute(n, epot, ekin)
	if err != nil {
		return err
	}
	if !r.Finite() {
		return md.ErrNonFinite
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.String())
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Preset", "Atoms", "Potential", "Integrator", "Steps", "Timestep (fs)"})
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		t.AppendRow(table.Row{name, 4 * p.Size * p.Size * p.Size, p.Potential, p.Integrator, p.TotalSteps(), p.TimestepFs})
	}
	t.Render()
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Status", "Time", "Atoms", "Potential", "Steps", "Drift (eV)", "Elapsed"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.Status,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Atoms,
			run.Potential,
			run.Steps,
			fmt.Sprintf("%.2e", run.EnergyDrift),
			run.Elapsed,
		})
	}
	t.Render()
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadReports(runID)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("run %s has %d reports, need at least 2 to plot", runID, len(rows))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "atoms: %d  potential: %s  integrator: %s\n", meta.Atoms, meta.Potential, meta.Integrator)
	fmt.Fprintf(out, "reports: %d\n\n", len(rows))

	series := []struct {
		caption string
		value   func(energy.Report) float64
	}{
		{"Etot per atom (eV)", func(r energy.Report) float64 { return r.Total }},
		{"Epot per atom (eV)", func(r energy.Report) float64 { return r.Potential }},
		{"temperature (K)", func(r energy.Report) float64 { return r.Temperature }},
	}
	for _, s := range series {
		data := make([]float64, len(rows))
		for i, row := range rows {
			data[i] = s.value(row.Report)
		}
		fmt.Fprintln(out, asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Fprintln(out)
	}
	return nil
}

func showTrajectory(cmd *cobra.Command, args []string) error {
	frames, err := trajectory.ReadAll(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%s: no frames", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frames: %d  atoms: %d  cell: %.3f x %.3f x %.3f Å\n",
		len(frames), frames[0].Len(), frames[0].Cell.X, frames[0].Cell.Y, frames[0].Cell.Z)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Time (fs)", "Epot (eV)", "Epot/atom (eV)"})
	for _, f := range frames {
		t.AppendRow(table.Row{f.Step, fmt.Sprintf("%.1f", f.Time), fmt.Sprintf("%.4f", f.Energy), fmt.Sprintf("%.4f", f.Energy/float64(f.Len()))})
	}
	t.Render()
	return nil
}
