package beamprofile

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Indexes of the model parameters.
const (
	ParamAmplitude = iota
	ParamMean
	ParamSigma
	ParamOffset
	numParams
)

// Reasons a fit can fail. They are carried in FitResult.Err rather than returned.
var (
	ErrFlatProfile        = errors.New("profile is flat")
	ErrTooFewSamples      = errors.New("profile has too few samples to fit")
	ErrNoConvergence      = errors.New("fit did not converge")
	ErrNonPositiveSigma   = errors.New("fitted sigma is not positive")
	ErrSingularCovariance = errors.New("parameter covariance is singular")
)

// FitStatus tells a genuine result apart from the zero-valued placeholder of a failed fit.
type FitStatus int

const (
	FitOK FitStatus = iota
	FitFailed
)

func (s FitStatus) String() string {
	if s == FitOK {
		return "ok"
	}
	return "failed"
}

// FitResult holds the fitted Gaussian parameters of one profile and their standard errors.
// Positions and widths are in samples. When Status is FitFailed every number is zero and
// Err says why.
type FitResult struct {
	Amplitude float64
	Mean      float64
	Sigma     float64
	Offset    float64

	AmplitudeErr float64
	MeanErr      float64
	SigmaErr     float64
	OffsetErr    float64

	FWHM    float64
	FWHMErr float64

	Status FitStatus
	Err    error
}

// OK reports whether the fit succeeded.
func (r FitResult) OK() bool { return r.Status == FitOK }

// Eval evaluates the fitted model at sample position x.
func (r FitResult) Eval(x float64) float64 {
	return Gaussian(x, r.Amplitude, r.Mean, r.Sigma, r.Offset)
}

// Scaled returns the result with positions and widths converted to physical units of k per
// sample. Amplitude and offset are unchanged.
func (r FitResult) Scaled(k float64) FitResult {
	r.Mean *= k
	r.MeanErr *= k
	r.Sigma *= k
	r.SigmaErr *= k
	r.FWHM *= k
	r.FWHMErr *= k
	return r
}

// Gaussian is the fit model: a*exp(-(x-mean)^2 / (2*sigma^2)) + c.
func Gaussian(x, a, mean, sigma, c float64) float64 {
	d := x - mean
	return a*math.Exp(-d*d/(2*sigma*sigma)) + c
}

// Bounds is a box constraint on the four parameters, ordered as the Param constants.
type Bounds struct {
	Lower [numParams]float64
	Upper [numParams]float64
}

// DefaultBounds keeps amplitude, sigma and offset non-negative and the mean inside a profile
// of n samples.
func DefaultBounds(n int) Bounds {
	inf := math.Inf(1)
	return Bounds{
		Lower: [numParams]float64{0, 0, 0, 0},
		Upper: [numParams]float64{inf, float64(n), inf, inf},
	}
}

func (b Bounds) clamp(p []float64) {
	for i := range p {
		p[i] = math.Max(b.Lower[i], math.Min(b.Upper[i], p[i]))
	}
}

// FitOptions adjusts FitGaussian. The zero value fits without bounds from the default
// initial guess.
type FitOptions struct {
	Bounds        *Bounds
	InitialGuess  []float64 // amplitude, mean, sigma, offset
	MaxIterations int
}

const defaultMaxIterations = 200

// DefaultInitialGuess is [max(profile), argmax(profile), 1, min(profile)].
func DefaultInitialGuess(profile []float64) []float64 {
	return []float64{
		floats.Max(profile),
		float64(floats.MaxIdx(profile)),
		1.0,
		floats.Min(profile),
	}
}

// FitGaussian fits a Gaussian plus constant to profile sampled at x = 0..len-1 by nonlinear
// least squares. Standard errors come from the covariance s^2 * (J^T J)^-1 with
// s^2 = RSS/(n-4).
//
// FitGaussian never panics on bad data: a flat profile, a solver that does not converge or a
// non-positive sigma all give a zero-valued result with Status FitFailed.
func FitGaussian(profile []float64, opts FitOptions) FitResult {
	n := len(profile)
	if n <= numParams {
		return failedFit(fmt.Errorf("%w: %d samples", ErrTooFewSamples, n))
	}
	for _, v := range profile {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return failedFit(fmt.Errorf("%w: profile contains non-finite values", ErrNoConvergence))
		}
	}
	if floats.Max(profile) == floats.Min(profile) {
		return failedFit(ErrFlatProfile)
	}

	p0 := DefaultInitialGuess(profile)
	if len(opts.InitialGuess) == numParams {
		copy(p0, opts.InitialGuess)
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	var (
		params []float64
		err    error
	)
	if opts.Bounds != nil {
		params, err = solveBounded(profile, p0, *opts.Bounds, maxIter)
	} else {
		params, err = solveUnbounded(profile, p0, maxIter)
	}
	if err != nil {
		return failedFit(err)
	}
	for _, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return failedFit(fmt.Errorf("%w: non-finite parameters", ErrNoConvergence))
		}
	}
	if params[ParamSigma] <= 0 {
		return failedFit(fmt.Errorf("%w: sigma = %g", ErrNonPositiveSigma, params[ParamSigma]))
	}

	stdErr, err := standardErrors(profile, params)
	if err != nil {
		return failedFit(err)
	}

	return FitResult{
		Amplitude:    params[ParamAmplitude],
		Mean:         params[ParamMean],
		Sigma:        params[ParamSigma],
		Offset:       params[ParamOffset],
		AmplitudeErr: stdErr[ParamAmplitude],
		MeanErr:      stdErr[ParamMean],
		SigmaErr:     stdErr[ParamSigma],
		OffsetErr:    stdErr[ParamOffset],
		FWHM:         FWHMFactor * params[ParamSigma],
		FWHMErr:      FWHMFactor * stdErr[ParamSigma],
		Status:       FitOK,
	}
}

func failedFit(err error) FitResult {
	return FitResult{Status: FitFailed, Err: err}
}

// standardErrors returns sqrt of the diagonal of the parameter covariance at params.
func standardErrors(profile, params []float64) ([]float64, error) {
	n := len(profile)
	jac := mat.NewDense(n, numParams, nil)
	gaussianJacobian(jac, params)

	res := make([]float64, n)
	gaussianResiduals(profile)(res, params)
	rss := floats.Dot(res, res)

	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok {
		return nil, ErrSingularCovariance
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}

	s2 := rss / float64(n-numParams)
	stdErr := make([]float64, numParams)
	for i := range stdErr {
		v := cov.At(i, i) * s2
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrSingularCovariance
		}
		stdErr[i] = math.Sqrt(v)
	}
	return stdErr, nil
}
