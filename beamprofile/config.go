package beamprofile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Strategy selects how noise is suppressed before fitting.
type Strategy int

const (
	// GaussianBlurStrategy smooths each projected profile with a 1D Gaussian. It suits clean
	// instrument images.
	GaussianBlurStrategy Strategy = iota
	// NonLocalMeansStrategy normalizes and denoises the whole image before projection, then
	// lightly smooths the profiles. It suits noisy raw captures.
	NonLocalMeansStrategy
)

func (s Strategy) String() string {
	switch s {
	case GaussianBlurStrategy:
		return "gaussian_blur"
	case NonLocalMeansStrategy:
		return "non_local_means"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name as written in a parameter file or on the command
// line. Both the snake_case names and the short forms "blur" and "nlm" are accepted.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaussian_blur", "blur", "gaussian":
		return GaussianBlurStrategy, nil
	case "non_local_means", "nlm", "nl_means":
		return NonLocalMeansStrategy, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
}

// Config holds every tunable of the analysis pipeline.
type Config struct {
	Strategy          Strategy
	WindowMargin      int     // half-width of the window around the peak, in pixels
	SmoothingSigma    float64 // profile smoothing sigma in samples; 0 disables smoothing
	NLMPatchSize      int
	NLMPatchDistance  int
	NLMStrengthFactor float64 // NLM filter strength as a multiple of the estimated noise sigma
	UseBounds         bool    // constrain the fit to non-negative amplitude, sigma and offset
	PixelScale        float64 // physical units per pixel along a profile
	Units             string
	ProfilePadding    PaddingMode // how profile smoothing extends the profile past its ends
}

// DefaultConfig returns the defaults for the given strategy. Clean images get a wider window
// and stronger profile smoothing; denoised raw captures get a narrow window, light smoothing
// and a bounded fit.
func DefaultConfig(s Strategy) Config {
	cfg := Config{
		Strategy:          s,
		WindowMargin:      10,
		SmoothingSigma:    3,
		NLMPatchSize:      5,
		NLMPatchDistance:  6,
		NLMStrengthFactor: 1.15,
		PixelScale:        DefaultPixelScale,
		Units:             "ps",
		ProfilePadding:    PadSymmetric,
	}
	if s == NonLocalMeansStrategy {
		cfg.WindowMargin = 2
		cfg.SmoothingSigma = 2
		cfg.UseBounds = true
	}
	return cfg
}

// StrategyForPath picks the strategy for an image file: raw .npy arrays are noisy captures
// and get the non-local-means path, everything else the Gaussian blur path.
func StrategyForPath(path string) Strategy {
	if strings.EqualFold(filepath.Ext(path), ".npy") {
		return NonLocalMeansStrategy
	}
	return GaussianBlurStrategy
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	if c.Strategy != GaussianBlurStrategy && c.Strategy != NonLocalMeansStrategy {
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, int(c.Strategy))
	}
	if c.WindowMargin < 0 {
		return fmt.Errorf("%w: window margin %d is negative", ErrInvalidConfig, c.WindowMargin)
	}
	if c.SmoothingSigma < 0 {
		return fmt.Errorf("%w: smoothing sigma %g is negative", ErrInvalidConfig, c.SmoothingSigma)
	}
	if c.ProfilePadding < PadZeros || c.ProfilePadding > PadSymmetric {
		return fmt.Errorf("%w: unknown profile padding %d", ErrInvalidConfig, int(c.ProfilePadding))
	}
	if c.PixelScale <= 0 {
		return fmt.Errorf("%w: pixel scale %g must be positive", ErrInvalidConfig, c.PixelScale)
	}
	if c.Strategy == NonLocalMeansStrategy {
		if c.NLMPatchSize < 1 || c.NLMPatchSize%2 == 0 {
			return fmt.Errorf("%w: NLM patch size %d must be a positive odd number", ErrInvalidConfig, c.NLMPatchSize)
		}
		if c.NLMPatchDistance < 1 {
			return fmt.Errorf("%w: NLM patch distance %d must be at least 1", ErrInvalidConfig, c.NLMPatchDistance)
		}
		if c.NLMStrengthFactor <= 0 {
			return fmt.Errorf("%w: NLM strength factor %g must be positive", ErrInvalidConfig, c.NLMStrengthFactor)
		}
	}
	return nil
}
