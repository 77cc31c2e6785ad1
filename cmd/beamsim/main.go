package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/beam"
	"github.com/san-kum/beamsim/internal/config"
	"github.com/san-kum/beamsim/internal/lattice"
	"github.com/san-kum/beamsim/internal/metrics"
	"github.com/san-kum/beamsim/internal/storage"
	"github.com/san-kum/beamsim/internal/track"
	"github.com/san-kum/beamsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	turns       int
	particles   int
	seed        int64
	beta0       float64
	delta       float64
	sigmaX      float64
	sigmaPx     float64
	sigmaY      float64
	sigmaPy     float64
	sigmaZeta   float64
	sigmaDelta  float64
	checkFinite bool
	// Probe particle offsets for tune/phase commands
	probeX float64
	probeY float64
	// Config file and preset
	configFile string
	preset     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "beamsim",
		Short: "beamline particle tracking lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".beamsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [lattice]",
		Short: "track a bunch through a lattice",
		Args:  cobra.ExactArgs(1),
		RunE:  runTracking,
	}
	addBeamFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	liveCmd := &cobra.Command{
		Use:   "live [lattice]",
		Short: "track with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addBeamFlags(liveCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [lattice]",
		Short: "betatron tunes from turn-by-turn probe tracking",
		Args:  cobra.ExactArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().IntVar(&turns, "turns", 256, "number of turns")
	tuneCmd.Flags().Float64Var(&probeX, "x0", 1e-4, "probe horizontal offset")
	tuneCmd.Flags().Float64Var(&probeY, "y0", 1e-4, "probe vertical offset")
	tuneCmd.Flags().Float64Var(&delta, "delta", 0.0, "probe momentum deviation")
	tuneCmd.Flags().Float64Var(&beta0, "beta0", 1.0, "reference beta")

	phaseCmd := &cobra.Command{
		Use:   "phase [lattice]",
		Short: "phase space portrait of a probe particle",
		Args:  cobra.ExactArgs(1),
		RunE:  runPhase,
	}
	phaseCmd.Flags().IntVar(&turns, "turns", 512, "number of turns")
	phaseCmd.Flags().Float64Var(&probeX, "x0", 1e-3, "probe horizontal offset")
	phaseCmd.Flags().Float64Var(&probeY, "y0", 0.0, "probe vertical offset")
	phaseCmd.Flags().Float64Var(&delta, "delta", 0.0, "probe momentum deviation")
	phaseCmd.Flags().Float64Var(&beta0, "beta0", 1.0, "reference beta")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run records to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [lattice]",
		Short: "list available presets for a lattice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for lattice: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	latticesCmd := &cobra.Command{
		Use:   "lattices",
		Short: "list built-in lattices",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range lattice.ListBuiltin() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, tuneCmd, phaseCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd, latticesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addBeamFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&turns, "turns", config.DefaultTurns, "number of turns")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "bunch population")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&beta0, "beta0", config.DefaultBeta0, "reference beta")
	cmd.Flags().Float64Var(&delta, "delta", 0.0, "bunch momentum deviation")
	cmd.Flags().Float64Var(&sigmaX, "sigma-x", config.DefaultSigmaX, "rms horizontal size")
	cmd.Flags().Float64Var(&sigmaPx, "sigma-px", config.DefaultSigmaPx, "rms horizontal divergence")
	cmd.Flags().Float64Var(&sigmaY, "sigma-y", config.DefaultSigmaY, "rms vertical size")
	cmd.Flags().Float64Var(&sigmaPy, "sigma-py", config.DefaultSigmaPy, "rms vertical divergence")
	cmd.Flags().Float64Var(&sigmaZeta, "sigma-zeta", config.DefaultSigmaZeta, "rms bunch length")
	cmd.Flags().Float64Var(&sigmaDelta, "sigma-delta", 0.0, "rms momentum spread")
	cmd.Flags().BoolVar(&checkFinite, "check-finite", true, "kill non-finite particles between turns")
}

func loadLattice(name string) (*lattice.Lattice, error) {
	if strings.HasSuffix(name, ".toml") {
		return lattice.LoadTOML(name)
	}
	return lattice.Builtin(name)
}

func bunchConfig() beam.BunchConfig {
	return beam.BunchConfig{
		Particles:  particles,
		Beta0:      beta0,
		Delta:      delta,
		SigmaX:     sigmaX,
		SigmaPx:    sigmaPx,
		SigmaY:     sigmaY,
		SigmaPy:    sigmaPy,
		SigmaZeta:  sigmaZeta,
		SigmaDelta: sigmaDelta,
		Seed:       seed,
	}
}

func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("turns") {
		turns = cfg.Turns
	}
	if !cmd.Flags().Changed("particles") {
		particles = cfg.Beam.Particles
	}
	if !cmd.Flags().Changed("beta0") {
		beta0 = cfg.Beam.Beta0
	}
	if !cmd.Flags().Changed("delta") {
		delta = cfg.Beam.Delta
	}
	if !cmd.Flags().Changed("sigma-x") {
		sigmaX = cfg.Beam.SigmaX
	}
	if !cmd.Flags().Changed("sigma-px") {
		sigmaPx = cfg.Beam.SigmaPx
	}
	if !cmd.Flags().Changed("sigma-y") {
		sigmaY = cfg.Beam.SigmaY
	}
	if !cmd.Flags().Changed("sigma-py") {
		sigmaPy = cfg.Beam.SigmaPy
	}
	if !cmd.Flags().Changed("sigma-zeta") {
		sigmaZeta = cfg.Beam.SigmaZeta
	}
	if !cmd.Flags().Changed("sigma-delta") {
		sigmaDelta = cfg.Beam.SigmaDelta
	}
	if !cmd.Flags().Changed("check-finite") {
		checkFinite = cfg.CheckFinite
	}
	if cfg.Seed != 0 && !cmd.Flags().Changed("seed") {
		seed = cfg.Seed
	}
}

func runTracking(cmd *cobra.Command, args []string) error {
	latticeName := args[0]

	if preset != "" {
		cfg := config.GetPreset(latticeName, preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(latticeName))
		}
		applyConfig(cmd, cfg)
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Lattice != "" {
			latticeName = cfg.Lattice
		}
		applyConfig(cmd, cfg)
	}

	lat, err := loadLattice(latticeName)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ens, err := beam.GaussianBunch(bunchConfig())
	if err != nil {
		return err
	}

	tracker := track.New(lat.Elements())
	tracker.AddMetric(metrics.NewCentroid(false))
	tracker.AddMetric(metrics.NewCentroid(true))
	tracker.AddMetric(metrics.NewRMSSize(false))
	tracker.AddMetric(metrics.NewRMSSize(true))
	tracker.AddMetric(metrics.NewSurvival())

	fmt.Printf("tracking %d particles for %d turns through %s (%.1f m)...\n",
		ens.Len(), turns, lat.Name, lat.Length())
	start := time.Now()

	result, err := tracker.Run(context.Background(), ens, track.Config{
		Turns:       turns,
		CheckFinite: checkFinite,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(lat.Name, turns, ens.Len(), seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("turns: %d, alive: %d/%d\n", result.TurnsDone, ens.AliveCount(), ens.Len())
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6e\n", name, val)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	lat, err := loadLattice(args[0])
	if err != nil {
		return err
	}

	m, err := viz.NewModel(lat, bunchConfig())
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// trackProbe follows a single on-momentum-or-not probe particle and
// returns its turn-by-turn horizontal and vertical positions.
func trackProbe(lat *lattice.Lattice, nTurns int) ([]float64, []float64, error) {
	p, err := beam.NewParticle(probeX, 0, probeY, 0, delta, beta0)
	if err != nil {
		return nil, nil, err
	}
	ens := beam.NewEnsemble([]beam.Particle{*p})

	tracker := track.New(lat.Elements())
	xs := make([]float64, 0, nTurns)
	ys := make([]float64, 0, nTurns)
	for turn := 0; turn < nTurns; turn++ {
		tracker.TrackTurn(ens)
		probe := ens.At(0)
		if !probe.Alive() || !probe.Finite() {
			return xs, ys, fmt.Errorf("probe lost at turn %d", turn)
		}
		xs = append(xs, probe.X)
		ys = append(ys, probe.Y)
	}
	return xs, ys, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	lat, err := loadLattice(args[0])
	if err != nil {
		return err
	}

	xs, ys, err := trackProbe(lat, turns)
	if err != nil {
		return err
	}

	qx := analysis.Tune(xs)
	qy := analysis.Tune(ys)

	fmt.Printf("lattice: %s (%.1f m per turn)\n", lat.Name, lat.Length())
	fmt.Printf("turns: %d\n\n", turns)

	n := 1
	for n < len(xs) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, xs)
	ps := analysis.PowerSpectrum(padded)

	graph := asciigraph.Plot(ps, asciigraph.Height(12), asciigraph.Width(80), asciigraph.Caption("horizontal spectrum"))
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("fractional tunes: Qx = %.4f, Qy = %.4f\n", qx, qy)
	return nil
}

func runPhase(cmd *cobra.Command, args []string) error {
	lat, err := loadLattice(args[0])
	if err != nil {
		return err
	}

	p, err := beam.NewParticle(probeX, 0, probeY, 0, delta, beta0)
	if err != nil {
		return err
	}
	ens := beam.NewEnsemble([]beam.Particle{*p})
	tracker := track.New(lat.Elements())

	xs := make([]float64, 0, turns)
	pxs := make([]float64, 0, turns)
	for turn := 0; turn < turns; turn++ {
		tracker.TrackTurn(ens)
		probe := ens.At(0)
		if !probe.Finite() {
			fmt.Printf("probe diverged at turn %d\n", turn)
			break
		}
		xs = append(xs, probe.X)
		pxs = append(pxs, probe.Px)
	}
	if len(xs) == 0 {
		return fmt.Errorf("no data to plot")
	}

	xMin, xMax := bounds(xs)
	pMin, pMax := bounds(pxs)
	xRange := xMax - xMin
	pRange := pMax - pMin
	if xRange == 0 {
		xRange = 1
	}
	if pRange == 0 {
		pRange = 1
	}

	canvas := viz.NewCanvas(70, 20)
	cw, ch := 70*2, 20*4
	for i := range xs {
		px := int(float64(cw-1) * (xs[i] - xMin) / xRange)
		py := ch - 1 - int(float64(ch-1)*(pxs[i]-pMin)/pRange)
		canvas.Set(px, py)
	}

	fmt.Printf("phase space portrait: %s, %d turns\n", lat.Name, len(xs))
	fmt.Printf("x: [%.3e, %.3e] m, px: [%.3e, %.3e]\n\n", xMin, xMax, pMin, pMax)
	fmt.Print(canvas.String())

	return nil
}

func bounds(data []float64) (float64, float64) {
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
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
	fmt.Fprintln(w, "ID\tLATTICE\tTIME\tTURNS\tPARTICLES\tSURVIVAL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\n",
			run.ID,
			run.Lattice,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Turns,
			run.Particles,
			run.Metrics["survival"],
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

	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("lattice: %s\n", meta.Lattice)
	fmt.Printf("turns recorded: %d\n\n", len(records))

	series := []struct {
		caption string
		value   func(track.TurnRecord) float64
	}{
		{"x centroid [m]", func(r track.TurnRecord) float64 { return r.MeanX }},
		{"x rms [m]", func(r track.TurnRecord) float64 { return r.RMSX }},
		{"y centroid [m]", func(r track.TurnRecord) float64 { return r.MeanY }},
		{"y rms [m]", func(r track.TurnRecord) float64 { return r.RMSY }},
		{"zeta centroid [m]", func(r track.TurnRecord) float64 { return r.MeanZeta }},
		{"alive", func(r track.TurnRecord) float64 { return float64(r.Alive) }},
	}

	for _, sp := range series {
		data := make([]float64, len(records))
		for i, rec := range records {
			data[i] = sp.value(rec)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sp.caption),
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

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"turn", "alive", "mean_x", "rms_x", "mean_y", "rms_y", "mean_zeta", "mean_delta"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Turn),
			strconv.Itoa(rec.Alive),
			strconv.FormatFloat(rec.MeanX, 'e', 9, 64),
			strconv.FormatFloat(rec.RMSX, 'e', 9, 64),
			strconv.FormatFloat(rec.MeanY, 'e', 9, 64),
			strconv.FormatFloat(rec.RMSY, 'e', 9, 64),
			strconv.FormatFloat(rec.MeanZeta, 'e', 9, 64),
			strconv.FormatFloat(rec.MeanDelta, 'e', 9, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}
