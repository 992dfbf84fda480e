package beamprofile

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	solverTolerance = 1e-10
	maxLambda       = 1e16
)

// gaussianResiduals returns the residual function model(x_i) - profile[i].
func gaussianResiduals(profile []float64) func(dst, p []float64) {
	return func(dst, p []float64) {
		for i, y := range profile {
			dst[i] = Gaussian(float64(i), p[ParamAmplitude], p[ParamMean], p[ParamSigma], p[ParamOffset]) - y
		}
	}
}

// gaussianJacobian fills dst (n x 4) with the partial derivatives of the model.
func gaussianJacobian(dst *mat.Dense, p []float64) {
	a, mean, sigma := p[ParamAmplitude], p[ParamMean], p[ParamSigma]
	n, _ := dst.Dims()
	s2 := sigma * sigma
	for i := 0; i < n; i++ {
		d := float64(i) - mean
		e := math.Exp(-d * d / (2 * s2))
		dst.Set(i, ParamAmplitude, e)
		dst.Set(i, ParamMean, a*e*d/s2)
		dst.Set(i, ParamSigma, a*e*d*d/(s2*sigma))
		dst.Set(i, ParamOffset, 1)
	}
}

// solveUnbounded runs the Levenberg-Marquardt solver from the lm package.
func solveUnbounded(profile, p0 []float64, maxIter int) ([]float64, error) {
	problem := lm.LMProblem{
		Dim:        numParams,
		Size:       len(profile),
		Func:       gaussianResiduals(profile),
		Jac:        gaussianJacobian,
		InitParams: p0,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}
	result, err := lm.LM(problem, &lm.Settings{Iterations: maxIter, ObjectiveTol: 1e-16})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConvergence, err)
	}
	if result == nil || len(result.X) != numParams {
		return nil, ErrNoConvergence
	}
	params := make([]float64, numParams)
	copy(params, result.X)
	return params, nil
}

// solveBounded is a projected Levenberg-Marquardt: parameters held at a bound by the
// gradient are frozen for the step, and every trial step is clamped into the box before its
// cost is evaluated. The damping is scaled by the diagonal of J^T J.
func solveBounded(profile, p0 []float64, bounds Bounds, maxIter int) ([]float64, error) {
	n := len(profile)
	residuals := gaussianResiduals(profile)

	x := make([]float64, numParams)
	copy(x, p0)
	bounds.clamp(x)

	fi := make([]float64, n)
	residuals(fi, x)
	cost := floats.Dot(fi, fi)

	jac := mat.NewDense(n, numParams, nil)
	var (
		jtj  mat.Dense
		grad mat.VecDense
		aug  mat.Dense
		step mat.VecDense
	)
	xNew := make([]float64, numParams)
	fiNew := make([]float64, n)

	lambda := 1e-3
	nu := 2.0

	for iter := 0; iter < maxIter; iter++ {
		if cost == 0 {
			return x, nil
		}
		gaussianJacobian(jac, x)
		jtj.Mul(jac.T(), jac)
		grad.MulVec(jac.T(), mat.NewVecDense(n, fi))

		active := activeBounds(x, &grad, bounds)
		if projectedGradientNorm(&grad, active) < solverTolerance*cost {
			return x, nil
		}

		for tries := 0; tries < 20; tries++ {
			aug.CloneFrom(&jtj)
			for i := 0; i < numParams; i++ {
				d := jtj.At(i, i)
				if d == 0 {
					d = 1
				}
				aug.Set(i, i, d+lambda*d)
			}

			rhs := mat.NewVecDense(numParams, nil)
			rhs.ScaleVec(-1, &grad)
			for i := 0; i < numParams; i++ {
				if !active[i] {
					continue
				}
				for j := 0; j < numParams; j++ {
					aug.Set(i, j, 0)
					aug.Set(j, i, 0)
				}
				aug.Set(i, i, 1)
				rhs.SetVec(i, 0)
			}
			if err := step.SolveVec(&aug, rhs); err != nil {
				lambda *= nu
				nu *= 2
				continue
			}

			for j := 0; j < numParams; j++ {
				xNew[j] = x[j] + step.AtVec(j)
			}
			bounds.clamp(xNew)
			residuals(fiNew, xNew)
			costNew := floats.Dot(fiNew, fiNew)

			if costNew < cost {
				improvement := (cost - costNew) / cost
				copy(x, xNew)
				copy(fi, fiNew)
				cost = costNew
				lambda = math.Max(lambda/3, 1e-15)
				nu = 2
				if improvement < solverTolerance {
					return x, nil
				}
				break
			}
			lambda *= nu
			nu *= 2
			if lambda > maxLambda {
				// No step within the box lowers the cost: x is a constrained minimum.
				return x, nil
			}
		}
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrNoConvergence, maxIter)
}

// activeBounds marks the parameters sitting on a bound that the descent direction -grad
// pushes further out of the box.
func activeBounds(x []float64, grad *mat.VecDense, bounds Bounds) [numParams]bool {
	var active [numParams]bool
	for i := range active {
		g := grad.AtVec(i)
		active[i] = (x[i] <= bounds.Lower[i] && g > 0) || (x[i] >= bounds.Upper[i] && g < 0)
	}
	return active
}

func projectedGradientNorm(grad *mat.VecDense, active [numParams]bool) float64 {
	norm := 0.0
	for i, a := range active {
		if !a {
			norm = math.Max(norm, math.Abs(grad.AtVec(i)))
		}
	}
	return norm
}
