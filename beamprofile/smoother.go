package beamprofile

// Smoother suppresses noise ahead of the fit. PrepareImage runs on the 2D image before the
// peak is located; SmoothProfile runs on each projected profile.
type Smoother interface {
	PrepareImage(img [][]float64) [][]float64
	SmoothProfile(profile []float64) []float64
}

// NewSmoother returns the smoother selected by cfg.Strategy.
func NewSmoother(cfg Config) Smoother {
	if cfg.Strategy == NonLocalMeansStrategy {
		return NLMSmoother{
			PatchSize:      cfg.NLMPatchSize,
			PatchDistance:  cfg.NLMPatchDistance,
			StrengthFactor: cfg.NLMStrengthFactor,
			Profile:        GaussianBlur{Sigma: cfg.SmoothingSigma, Padding: cfg.ProfilePadding},
		}
	}
	return GaussianBlur{Sigma: cfg.SmoothingSigma, Padding: cfg.ProfilePadding}
}

// GaussianBlur convolves profiles with a Gaussian kernel and leaves the image alone.
type GaussianBlur struct {
	Sigma   float64
	Padding PaddingMode
}

func (g GaussianBlur) PrepareImage(img [][]float64) [][]float64 { return img }

func (g GaussianBlur) SmoothProfile(profile []float64) []float64 {
	if g.Sigma <= 0 {
		out := make([]float64, len(profile))
		copy(out, profile)
		return out
	}
	return Convolve1D(profile, GaussianKernel1D(g.Sigma), g.Padding)
}

// NLMSmoother normalizes the image to 0..255, estimates its noise level and applies
// non-local-means with strength StrengthFactor times that level. Profiles then go through
// the Profile blur.
type NLMSmoother struct {
	PatchSize      int
	PatchDistance  int
	StrengthFactor float64
	Profile        GaussianBlur
}

func (n NLMSmoother) PrepareImage(img [][]float64) [][]float64 {
	normalized := NormalizeMinMax(img, 0, 255)
	sigma := EstimateNoise(normalized)
	if sigma == 0 {
		return normalized
	}
	return NonLocalMeans(normalized, n.PatchSize, n.PatchDistance, n.StrengthFactor*sigma)
}

func (n NLMSmoother) SmoothProfile(profile []float64) []float64 {
	return n.Profile.SmoothProfile(profile)
}
