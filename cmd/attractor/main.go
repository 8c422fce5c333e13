package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/analysis"
	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/storage"
	"github.com/san-kum/attractor/internal/studio"
	"github.com/san-kum/attractor/internal/tui"
)

var ErrConflict = errors.New("conflicting flags")

var (
	// render
	width     int
	height    int
	quality   int
	border    float64
	intensity float64
	downscale int
	light     bool
	stretch   bool
	colour    = palette.BW
	family    = kernel.Poly

	// search
	cutoff    int
	threshold float64
	attempts  int
	scanSteps int
	seed      int64
	threads   int

	// output
	outDir     string
	configFile string
	preset     string
	useTUI     bool
	verbose    bool

	// image
	preview       int
	colourPreview bool
	paramsFile    string

	// video
	coefficient attractor.Cell
	start       float64
	end         float64
	duration    float64
	fps         int
	lossless    bool
	encoder     string

	// scan
	from  float64
	to    float64
	steps int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	d := config.DefaultConfig()
	colour, family = d.Colour, d.Family
	coefficient = attractor.Cell{}

	rootCmd := &cobra.Command{
		Use:           "attractor",
		Short:         "strange attractor image and video generator",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%s: %w", c.CommandPath(), err)
	})

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&width, "width", d.Render.Width, "output width in pixels")
	pf.IntVar(&height, "height", d.Render.Height, "output height in pixels")
	pf.IntVar(&quality, "quality", d.Render.Quality, "iterations per pixel")
	pf.Float64Var(&border, "border", d.Render.Border, "fraction of the frame left empty")
	pf.Float64Var(&intensity, "intensity", d.Render.Intensity, "brightness of the density mapping")
	pf.IntVar(&downscale, "downscale", d.Render.Downscale, "render this many times larger and shrink")
	pf.BoolVar(&light, "light", false, "light theme")
	pf.BoolVar(&stretch, "stretch", false, "fill both axes independently")
	pf.Var(&colour, "colour", "colour policy: KIN | INF | BLA | VID | PLA | BW | HSV | HSL | RGB | MIX")
	pf.Var(&family, "type", "attractor type: POLY | TRIG | SAW | TRI")
	pf.IntVar(&cutoff, "cutoff", d.Render.Cutoff, "warm-up iterations")
	pf.Float64Var(&threshold, "threshold", 0, "lyapunov acceptance threshold (0 = type default)")
	pf.IntVar(&attempts, "attempts", 0, "random search attempts (0 = unbounded)")
	pf.IntVar(&scanSteps, "scan-steps", d.Search.ScanSteps, "perturbation scan steps per side (0 = unbounded)")
	pf.Int64Var(&seed, "seed", 0, "random seed (default: time based)")
	pf.IntVar(&threads, "threads", 0, "worker count (0 = CPU count - 1)")
	pf.StringVarP(&outDir, "out", "o", d.Out, "output directory")
	pf.StringVar(&configFile, "config", "", "settings file (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.BoolVar(&useTUI, "tui", false, "show a progress view")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	imageCmd := &cobra.Command{
		Use:   "image [params]",
		Short: "render a random or given attractor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImage,
	}
	imageCmd.Flags().IntVar(&preview, "preview", 0, "render a grid of this many random attractors")
	imageCmd.Flags().BoolVar(&colourPreview, "colour-preview", false, "render the attractor once per colour policy")
	imageCmd.Flags().StringVar(&paramsFile, "params", "", "file with one coefficient set per line")

	videoCmd := &cobra.Command{
		Use:   "video [params]",
		Short: "animate one coefficient of an attractor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVideo,
	}
	videoCmd.Flags().Var(&coefficient, "coefficient", "coefficient to animate, [xy]N (default: random)")
	videoCmd.Flags().Float64Var(&start, "start", 0, "start offset (default: scanned)")
	videoCmd.Flags().Float64Var(&end, "end", 0, "end offset (default: scanned)")
	videoCmd.Flags().Float64Var(&duration, "duration", d.Video.Duration, "length in seconds")
	videoCmd.Flags().IntVar(&fps, "fps", d.Video.FPS, "frames per second")
	videoCmd.Flags().BoolVar(&lossless, "lossless", false, "lossless encoding")
	videoCmd.Flags().StringVar(&encoder, "encoder", "ffmpeg", "encoder binary")
	videoCmd.Flags().IntVar(&preview, "preview", 0, "render this many frames as a grid instead")
	videoCmd.Flags().StringVar(&paramsFile, "params", "", "file whose first line is the base attractor")

	scanCmd := &cobra.Command{
		Use:   "scan [params]",
		Short: "plot the lyapunov estimate across one coefficient",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().Var(&coefficient, "coefficient", "coefficient to sweep, [xy]N")
	scanCmd.Flags().Float64Var(&from, "from", -0.5, "first offset")
	scanCmd.Flags().Float64Var(&to, "to", 0.5, "last offset")
	scanCmd.Flags().IntVar(&steps, "steps", 60, "number of offsets")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tQUALITY\tDOWNSCALE\tCOLOUR\tTHEME")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				theme := "dark"
				if p.Render.Light {
					theme = "light"
				}
				fmt.Fprintf(w, "%s\t%dx%d\t%d\t%d\t%s\t%s\n", name, p.Render.Width, p.Render.Height,
					p.Render.Quality, p.Render.Downscale, p.Colour, theme)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(imageCmd, videoCmd, scanCmd, listCmd, presetsCmd)
	return rootCmd
}

func setupLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// settings layers preset, settings file and changed flags, in that order.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	overrides := map[string]func(){
		"width":      func() { cfg.Render.Width = width },
		"height":     func() { cfg.Render.Height = height },
		"quality":    func() { cfg.Render.Quality = quality },
		"border":     func() { cfg.Render.Border = border },
		"intensity":  func() { cfg.Render.Intensity = intensity },
		"downscale":  func() { cfg.Render.Downscale = downscale },
		"light":      func() { cfg.Render.Light = light },
		"stretch":    func() { cfg.Render.Stretch = stretch },
		"cutoff":     func() { cfg.Render.Cutoff = cutoff },
		"colour":     func() { cfg.Colour = colour },
		"type":       func() { cfg.Family = family },
		"threshold":  func() { cfg.Search.Threshold = threshold },
		"attempts":   func() { cfg.Search.Attempts = attempts },
		"scan-steps": func() { cfg.Search.ScanSteps = scanSteps },
		"seed":       func() { cfg.Seed = seed },
		"threads":    func() { cfg.Threads = threads },
		"out":        func() { cfg.Out = outDir },
		"duration":   func() { cfg.Video.Duration = duration },
		"fps":        func() { cfg.Video.FPS = fps },
		"lossless":   func() { cfg.Video.Lossless = lossless },
	}
	for name, apply := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			apply()
		}
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newStudio(cfg *config.Config) (*studio.Studio, error) {
	st := storage.New(cfg.Out)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return &studio.Studio{
		Render:      cfg.Render,
		Search:      attractor.Params{Cutoff: cfg.Render.Cutoff, Threshold: cfg.Search.Threshold},
		Family:      cfg.Family,
		Colour:      cfg.Colour,
		Workers:     cfg.Threads,
		Seed:        cfg.Seed,
		MaxAttempts: cfg.Search.Attempts,
		ScanSteps:   cfg.Search.ScanSteps,
		Encoder:     encoder,
		Store:       st,
		Log:         setupLogger(),
	}, nil
}

func madeWith(cfg *config.Config, extra ...tui.Field) {
	fields := []tui.Field{
		{Label: "type", Value: cfg.Family.String()},
		{Label: "colour", Value: cfg.Colour.String()},
		{Label: "size", Value: fmt.Sprintf("%dx%d", cfg.Render.Width, cfg.Render.Height)},
		{Label: "quality", Value: strconv.Itoa(cfg.Render.Quality)},
		{Label: "intensity", Value: strconv.FormatFloat(cfg.Render.Intensity, 'g', -1, 64)},
		{Label: "seed", Value: strconv.FormatInt(cfg.Seed, 10)},
	}
	if cfg.Render.Downscale > 1 {
		fields = append(fields, tui.Field{Label: "downscale", Value: strconv.Itoa(cfg.Render.Downscale)})
	}
	fmt.Println(tui.Summary("made with", append(fields, extra...)...))
}

// execute runs op directly or under the progress view.
func execute(ctx context.Context, s *studio.Studio, title string, op func(context.Context) (studio.Result, error)) error {
	var res studio.Result
	run := func(ctx context.Context) error {
		var err error
		res, err = op(ctx)
		return err
	}

	var err error
	if useTUI {
		s.Log.SetOutput(io.Discard)
		err = tui.Run(ctx, title, func(ctx context.Context, r tui.Reporter) error {
			s.Progress = r.Progress
			s.Note = func(msg string) { r.Note("%s", msg) }
			return run(ctx)
		})
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}

	for _, a := range res.Artifacts {
		fmt.Println(a)
	}
	if res.Failed > 0 {
		fmt.Println(tui.WarnStyle.Render(fmt.Sprintf("%d item(s) failed", res.Failed)))
	}
	return nil
}

// readParams returns the coefficient lines of --params, or the positional
// argument.
func readParams(f kernel.Family, args []string) ([]string, error) {
	if paramsFile != "" && len(args) > 0 {
		return nil, fmt.Errorf("%w: --params and a params argument", ErrConflict)
	}
	if len(args) > 0 {
		return []string{args[0]}, nil
	}
	if paramsFile == "" {
		return nil, nil
	}

	in, err := os.Open(paramsFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	coefs, err := attractor.ReadParams(in, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", paramsFile, err)
	}
	if len(coefs) == 0 {
		return nil, fmt.Errorf("%s: no coefficient sets", paramsFile)
	}
	lines := make([]string, len(coefs))
	for i, c := range coefs {
		cfg := attractor.New(f)
		cfg.Coef = c
		lines[i] = attractor.Format(cfg)
	}
	return lines, nil
}

func runImage(cmd *cobra.Command, args []string) error {
	if preview > 0 && (paramsFile != "" || len(args) > 0) {
		return fmt.Errorf("%w: --preview with given params", ErrConflict)
	}
	if colourPreview && preview > 0 {
		return fmt.Errorf("%w: --colour-preview with --preview", ErrConflict)
	}

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	lines, err := readParams(cfg.Family, args)
	if err != nil {
		return err
	}
	s, err := newStudio(cfg)
	if err != nil {
		return err
	}

	params := ""
	if len(lines) > 0 {
		params = lines[0]
	}

	switch {
	case colourPreview:
		madeWith(cfg, tui.Field{Label: "mode", Value: "colour preview"})
		return execute(cmd.Context(), s, "colour preview", func(ctx context.Context) (studio.Result, error) {
			return s.ColourPreview(ctx, params)
		})
	case preview > 0:
		madeWith(cfg, tui.Field{Label: "samples", Value: strconv.Itoa(preview)})
		return execute(cmd.Context(), s, "samples", func(ctx context.Context) (studio.Result, error) {
			return s.Samples(ctx, preview)
		})
	case len(lines) > 1:
		coefs := make([]kernel.Coef, len(lines))
		for i, l := range lines {
			if coefs[i], err = attractor.ParseCoef(l, cfg.Family); err != nil {
				return err
			}
		}
		madeWith(cfg, tui.Field{Label: "batch", Value: strconv.Itoa(len(lines))})
		return execute(cmd.Context(), s, "batch", func(ctx context.Context) (studio.Result, error) {
			return s.Batch(ctx, coefs)
		})
	}

	madeWith(cfg)
	return execute(cmd.Context(), s, "image", func(ctx context.Context) (studio.Result, error) {
		return s.Image(ctx, params)
	})
}

func runVideo(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	lines, err := readParams(cfg.Family, args)
	if err != nil {
		return err
	}
	s, err := newStudio(cfg)
	if err != nil {
		return err
	}

	params := ""
	if len(lines) > 0 {
		params = lines[0]
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	base, err := s.Find(params, rng)
	if err != nil {
		return err
	}

	var lo, hi *float64
	if cmd.Flags().Changed("start") {
		lo = &start
	}
	if cmd.Flags().Changed("end") {
		hi = &end
	}

	var sw studio.Sweep
	if cmd.Flags().Changed("coefficient") {
		iv, err := s.Scan(base, coefficient, lo, hi)
		if err != nil {
			return err
		}
		sw = studio.Sweep{Base: base, Cell: coefficient, Interval: iv}
	} else if sw, err = s.ScanAny(base, rng, lo, hi); err != nil {
		return err
	}
	cell, iv := sw.Cell, sw.Interval

	extra := []tui.Field{
		{Label: "coefficient", Value: cell.String()},
		{Label: "start", Value: fmt.Sprintf("%.4f", iv.Start)},
		{Label: "end", Value: fmt.Sprintf("%.4f", iv.End)},
	}

	if preview > 0 {
		madeWith(cfg, append(extra, tui.Field{Label: "frames", Value: strconv.Itoa(preview)})...)
		return execute(cmd.Context(), s, "video preview", func(ctx context.Context) (studio.Result, error) {
			return s.VideoPreview(ctx, sw, preview)
		})
	}

	frames := cfg.Frames()
	madeWith(cfg, append(extra,
		tui.Field{Label: "frames", Value: strconv.Itoa(frames)},
		tui.Field{Label: "fps", Value: strconv.Itoa(cfg.Video.FPS)})...)
	return execute(cmd.Context(), s, "video", func(ctx context.Context) (studio.Result, error) {
		return s.Video(ctx, sw, frames, cfg.Video.FPS, cfg.Video.Lossless)
	})
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	lines, err := readParams(cfg.Family, args)
	if err != nil {
		return err
	}
	s, err := newStudio(cfg)
	if err != nil {
		return err
	}

	params := ""
	if len(lines) > 0 {
		params = lines[0]
	}
	base, err := s.Find(params, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}

	points, err := analysis.Sweep(cmd.Context(), base, coefficient, from, to, steps, s.Search, cfg.Seed, cfg.Threads)
	if err != nil {
		return err
	}

	fmt.Println(attractor.Format(base))
	fmt.Println(analysis.Sketch(&base, 72, 24, 200000, cfg.Render.Cutoff))

	th := cfg.Search.Threshold
	if th == 0 {
		th = kernel.Lookup(base.Family).Threshold
	}
	fmt.Println(analysis.Plot(points, th, 80, 15))
	fmt.Println()

	if iv, ok := analysis.Window(points); ok {
		fmt.Printf("%s chaotic over [%+.4f, %+.4f]\n", coefficient, iv.Start, iv.End)
	} else {
		fmt.Printf("%s: base value not chaotic at this resolution\n", coefficient)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(outDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTIME\tTYPE\tCOLOUR\tSIZE\tFAILED\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dx%d\t%d\t%s\n",
			run.ID,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Family,
			run.Colour,
			run.Width, run.Height,
			run.Failed,
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}
