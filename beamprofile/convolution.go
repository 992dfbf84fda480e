package beamprofile

import (
	"fmt"
	"math"
	"strings"
)

// PaddingMode selects how samples outside a signal are synthesized during convolution.
type PaddingMode int

const (
	PadZeros PaddingMode = iota
	PadReflect
	PadReplicate
	PadCircular
	PadSymmetric
)

var paddingNames = map[PaddingMode]string{
	PadZeros:     "zeros",
	PadReflect:   "reflect",
	PadReplicate: "replicate",
	PadCircular:  "circular",
	PadSymmetric: "symmetric",
}

func (m PaddingMode) String() string {
	if name, ok := paddingNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PaddingMode(%d)", int(m))
}

// ParsePaddingMode converts a padding name ("zeros", "reflect", "replicate", "circular" or
// "symmetric").
func ParsePaddingMode(s string) (PaddingMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range paddingNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown padding %q", ErrInvalidConfig, s)
}

// kernelTruncate is the kernel half-width in units of sigma.
const kernelTruncate = 4.0

// GaussianKernel1D returns a normalized Gaussian kernel of the given sigma with radius
// int(4*sigma + 0.5). A non-positive sigma yields the identity kernel [1].
func GaussianKernel1D(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(kernelTruncate*sigma + 0.5)
	kern := make([]float64, 2*radius+1)
	sfactor := -0.5 / (sigma * sigma)
	sum := 0.0
	for i := range kern {
		x := float64(i - radius)
		kern[i] = math.Exp(sfactor * x * x)
		sum += kern[i]
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern
}

// Convolve1D convolves signal with a centered, odd-length kernel and returns a result of
// the same length as signal. Out-of-range samples come from the padding mode.
func Convolve1D(signal, kernel []float64, pad PaddingMode) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	radius := len(kernel) / 2
	for i := 0; i < n; i++ {
		acc := 0.0
		for k, kv := range kernel {
			// Symmetric kernels make correlation and convolution identical; index as a
			// convolution anyway so asymmetric kernels behave.
			acc += kv * sample1D(signal, i+radius-k, pad)
		}
		out[i] = acc
	}
	return out
}

func sample1D(s []float64, i int, mode PaddingMode) float64 {
	n := len(s)
	if 0 <= i && i < n {
		return s[i]
	}
	switch mode {
	case PadZeros:
		return 0
	case PadReplicate:
		return s[clamp(i, 0, n-1)]
	case PadReflect:
		return s[reflectIndex(i, n)]
	case PadCircular:
		return s[mod(i, n)]
	case PadSymmetric:
		return s[symmetricIndex(i, n)]
	}
	return 0
}

// sample2D reads img[y][x], synthesizing out-of-range samples with the padding mode.
func sample2D(img [][]float64, y, x int, mode PaddingMode) float64 {
	h := len(img)
	w := len(img[0])

	if 0 <= y && y < h && 0 <= x && x < w {
		return img[y][x]
	}

	switch mode {
	case PadZeros:
		return 0
	case PadReplicate:
		return img[clamp(y, 0, h-1)][clamp(x, 0, w-1)]
	case PadReflect:
		return img[reflectIndex(y, h)][reflectIndex(x, w)]
	case PadCircular:
		return img[mod(y, h)][mod(x, w)]
	case PadSymmetric:
		return img[symmetricIndex(y, h)][symmetricIndex(x, w)]
	}
	return 0
}

// padImage returns a copy of img grown by border samples on every side.
func padImage(img [][]float64, border int, mode PaddingMode) [][]float64 {
	h := len(img)
	w := len(img[0])
	out := newMatrix(h+2*border, w+2*border)
	for y := range out {
		for x := range out[y] {
			out[y][x] = sample2D(img, y-border, x-border, mode)
		}
	}
	return out
}

// -------------------- utility --------------------

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mod(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// reflectIndex implements "reflect" padding without repeating edge pixels.
// Example for n=5 indices: ... 2 1 0 1 2 3 4 3 2 1 0 1 ...
func reflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2*n - 2
	i = mod(i, period)
	if i >= n {
		i = period - i
	}
	return i
}

// symmetricIndex implements half-sample symmetric padding, which repeats the edge pixel.
// Example for n=5 indices: ... 1 0 0 1 2 3 4 4 3 2 ...
func symmetricIndex(i, n int) int {
	period := 2 * n
	i = mod(i, period)
	if i >= n {
		i = period - 1 - i
	}
	return i
}
