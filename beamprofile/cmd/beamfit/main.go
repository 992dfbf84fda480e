// Command beamfit analyzes a beam image without the desktop shell and prints the fitted
// Gaussian parameters of its horizontal and vertical profiles.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bob-anderson-ok/BeamProfile/beamprofile"
)

type analyzeFlags struct {
	configPath string
	strategy   string
	padding    string
	margin     int
	sigma      float64
	plotPrefix string
	displayPNG string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "beamfit",
		Short:        "Fit Gaussian beam profiles to camera images",
		SilenceUsage: true,
	}
	root.AddCommand(newAnalyzeCommand())
	return root
}

func newAnalyzeCommand() *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Locate the beam, fit both profiles and print the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "JSON5 parameter file")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "smoothing strategy: blur|nlm (default: chosen from the file extension)")
	cmd.Flags().StringVar(&f.padding, "padding", "", "profile padding: symmetric|reflect|replicate|circular|zeros")
	cmd.Flags().IntVar(&f.margin, "margin", -1, "window margin in pixels (default: strategy default)")
	cmd.Flags().Float64Var(&f.sigma, "sigma", -1, "profile smoothing sigma in samples (default: strategy default)")
	cmd.Flags().StringVar(&f.plotPrefix, "plot-prefix", "", "write <prefix>_horizontal.png and <prefix>_vertical.png")
	cmd.Flags().StringVar(&f.displayPNG, "display", "", "write the analyzed image as an 8 bit PNG")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "trace|debug|info|warn|error (default: info)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, imagePath string, f analyzeFlags) error {
	programStart := time.Now()

	cfg, shell, err := loadConfig(imagePath, f)
	if err != nil {
		return err
	}

	levelName := shell.LogLevel
	if f.logLevel != "" {
		levelName = f.logLevel
	}
	log, err := newLogger(levelName)
	if err != nil {
		return err
	}

	start := time.Now()
	img, err := beamprofile.LoadImage(imagePath)
	if err != nil {
		return err
	}
	log.Info().Str("file", imagePath).Int("rows", len(img)).Dur("took", time.Since(start)).Msg("image loaded")

	analyzer, err := beamprofile.NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	start = time.Now()
	result, err := analyzer.WithLogger(log).AnalyzeContext(cmd.Context(), img)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", imagePath, err)
	}
	log.Info().Dur("took", time.Since(start)).Msg("analysis done")

	fmt.Fprint(cmd.OutOrStdout(), beamprofile.Report(result, cfg))

	if f.plotPrefix != "" {
		opts := beamprofile.PlotOptions{Scale: cfg.PixelScale, Units: cfg.Units}
		for _, axis := range []beamprofile.Axis{beamprofile.Horizontal, beamprofile.Vertical} {
			name := fmt.Sprintf("%s_%s.png", f.plotPrefix, axis)
			w, h := 800.0, 400.0
			if axis == beamprofile.Vertical {
				w, h = 400.0, 800.0
			}
			if err := beamprofile.SaveProfilePlot(name, result.Profile(axis), result.Result(axis), axis, opts, w, h); err != nil {
				return fmt.Errorf("writing of %q failed: %w", name, err)
			}
			log.Info().Str("file", name).Msg("plot written")
		}
	}

	if f.displayPNG != "" {
		view, err := beamprofile.MatrixToGrayViewPercentile(result.Image, 0, 100)
		if err != nil {
			return fmt.Errorf("creation of the display image failed: %w", err)
		}
		if err := beamprofile.SaveImageToFile(f.displayPNG, view); err != nil {
			return fmt.Errorf("writing of %q failed: %w", f.displayPNG, err)
		}
		log.Info().Str("file", f.displayPNG).Msg("display image written")
	}

	log.Debug().Dur("took", time.Since(programStart)).Msg("total run time")
	return nil
}

// loadConfig builds the configuration from, in increasing priority: the defaults of the
// strategy implied by the file extension, the parameter file, and the command line flags.
// A parameter file without "strategy" keeps the strategy the extension implies.
func loadConfig(imagePath string, f analyzeFlags) (beamprofile.Config, beamprofile.ShellOptions, error) {
	var (
		params *beamprofile.Params
		shell  beamprofile.ShellOptions
		err    error
	)
	if f.configPath != "" {
		params, err = beamprofile.LoadParamsFile(f.configPath)
		if err != nil {
			return beamprofile.Config{}, shell, err
		}
		shell = params.Shell
	}

	strategy := beamprofile.StrategyForPath(imagePath)
	if f.strategy != "" {
		strategy, err = beamprofile.ParseStrategy(f.strategy)
		if err != nil {
			return beamprofile.Config{}, shell, err
		}
	}
	cfg, err := params.Config(strategy)
	if err != nil {
		return cfg, shell, err
	}
	if f.strategy != "" && cfg.Strategy != strategy {
		// The flag overrides the file's strategy and brings that strategy's defaults with it.
		scale, units, padding := cfg.PixelScale, cfg.Units, cfg.ProfilePadding
		cfg = beamprofile.DefaultConfig(strategy)
		cfg.PixelScale, cfg.Units, cfg.ProfilePadding = scale, units, padding
	}

	if f.padding != "" {
		cfg.ProfilePadding, err = beamprofile.ParsePaddingMode(f.padding)
		if err != nil {
			return cfg, shell, err
		}
	}
	if f.margin >= 0 {
		cfg.WindowMargin = f.margin
	}
	if f.sigma >= 0 {
		cfg.SmoothingSigma = f.sigma
	}
	return cfg, shell, cfg.Validate()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("bad log level %q: %w", level, err)
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}
