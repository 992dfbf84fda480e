package beamprofile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Analysis is the outcome of one Analyze call. The profiles are the smoothed profiles that
// were fitted, so a plot of a profile and its fit line up.
type Analysis struct {
	Horizontal FitResult
	Vertical   FitResult

	Peak   Peak
	Window Window

	HorizontalProfile []float64
	VerticalProfile   []float64

	// Image is the image the peak was located in: the input itself for the blur path, the
	// normalized and denoised image for the non-local-means path.
	Image [][]float64
}

// Result returns the fit for the given axis.
func (a *Analysis) Result(axis Axis) FitResult {
	if axis == Vertical {
		return a.Vertical
	}
	return a.Horizontal
}

// Profile returns the fitted profile for the given axis.
func (a *Analysis) Profile(axis Axis) []float64 {
	if axis == Vertical {
		return a.VerticalProfile
	}
	return a.HorizontalProfile
}

// Analyze runs the whole pipeline on img. It returns an error only when the configuration is
// invalid or the image rows differ in length. A profile that cannot be fitted yields a
// FitFailed result for that axis and does not affect the other axis; an image with no rows
// or no columns fails both axes with ErrEmptyImage.
func Analyze(img [][]float64, cfg Config) (*Analysis, error) {
	return analyze(context.Background(), img, cfg, zerolog.Nop())
}

// Analyzer pairs a Config with a logger. Its zero value is not usable; use NewAnalyzer.
type Analyzer struct {
	cfg Config
	log zerolog.Logger
}

// NewAnalyzer validates cfg and returns an Analyzer that does not log.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, log: zerolog.Nop()}, nil
}

// WithLogger returns a copy of the Analyzer that logs to l.
func (a *Analyzer) WithLogger(l zerolog.Logger) *Analyzer {
	c := *a
	c.log = l.With().Str("component", "beamprofile").Logger()
	return &c
}

// Config returns the configuration the Analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze is the package-level Analyze with logging.
func (a *Analyzer) Analyze(img [][]float64) (*Analysis, error) {
	return analyze(context.Background(), img, a.cfg, a.log)
}

// AnalyzeContext is Analyze with a context that is checked before the pipeline starts and
// between the two axis fits. A running fit is never interrupted.
func (a *Analyzer) AnalyzeContext(ctx context.Context, img [][]float64) (*Analysis, error) {
	return analyze(ctx, img, a.cfg, a.log)
}

func analyze(ctx context.Context, img [][]float64, cfg Config, log zerolog.Logger) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, w, err := imageSize(img)
	if errors.Is(err, ErrEmptyImage) {
		log.Warn().Err(err).Msg("nothing to fit")
		return &Analysis{
			Horizontal:        failedFit(ErrEmptyImage),
			Vertical:          failedFit(ErrEmptyImage),
			HorizontalProfile: []float64{},
			VerticalProfile:   []float64{},
			Image:             img,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot analyze image: %w", err)
	}

	smoother := NewSmoother(cfg)
	prepared := smoother.PrepareImage(img)

	peak := LocatePeak(prepared)
	win := SelectWindow(h, w, peak, cfg.WindowMargin)
	log.Debug().
		Str("strategy", cfg.Strategy.String()).
		Int("peak_row", peak.Row).Int("peak_col", peak.Col).
		Ints("window", []int{win.RowStart, win.RowEnd, win.ColStart, win.ColEnd}).
		Msg("window selected")

	rawHor, rawVert := Project(prepared, win)

	out := &Analysis{
		Peak:              peak,
		Window:            win,
		HorizontalProfile: smoother.SmoothProfile(rawHor),
		VerticalProfile:   smoother.SmoothProfile(rawVert),
		Image:             prepared,
	}

	opts := FitOptions{}
	out.Horizontal = fitAxis(Horizontal, out.HorizontalProfile, cfg, opts, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.Vertical = fitAxis(Vertical, out.VerticalProfile, cfg, opts, log)
	return out, nil
}

func fitAxis(axis Axis, profile []float64, cfg Config, opts FitOptions, log zerolog.Logger) FitResult {
	if cfg.UseBounds {
		b := DefaultBounds(len(profile))
		opts.Bounds = &b
	}
	r := FitGaussian(profile, opts)
	if !r.OK() {
		log.Warn().Str("axis", axis.String()).Err(r.Err).Msg("gaussian fit failed")
		return r
	}
	log.Debug().
		Str("axis", axis.String()).
		Float64("amplitude", r.Amplitude).
		Float64("mean", r.Mean).
		Float64("sigma", r.Sigma).
		Float64("fwhm", r.FWHM).
		Msg("gaussian fit")
	return r
}
