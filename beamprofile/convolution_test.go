package beamprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestGaussianKernel1D(t *testing.T) {
	k := GaussianKernel1D(3)
	require.Len(t, k, 25) // radius int(4*3 + 0.5) = 12
	assert.InDelta(t, 1.0, floats.Sum(k), 1e-12)
	for i := range k {
		assert.InDelta(t, k[i], k[len(k)-1-i], 1e-15)
	}
	assert.Equal(t, 12, floats.MaxIdx(k))

	assert.Equal(t, []float64{1}, GaussianKernel1D(0))
}

func TestConvolve1DPreservesConstant(t *testing.T) {
	signal := []float64{4, 4, 4, 4, 4, 4}
	for _, pad := range []PaddingMode{PadReflect, PadReplicate, PadCircular, PadSymmetric} {
		out := Convolve1D(signal, GaussianKernel1D(2), pad)
		require.Len(t, out, len(signal))
		for _, v := range out {
			assert.InDelta(t, 4.0, v, 1e-12)
		}
	}
}

func TestConvolve1DKeepsMassOfInteriorPeak(t *testing.T) {
	signal := make([]float64, 101)
	signal[50] = 10
	out := Convolve1D(signal, GaussianKernel1D(2), PadSymmetric)
	assert.InDelta(t, 10.0, floats.Sum(out), 1e-9)
	assert.Equal(t, 50, floats.MaxIdx(out))
}

func TestPaddingIndexes(t *testing.T) {
	var reflect, symmetric []int
	for i := -3; i < 8; i++ {
		reflect = append(reflect, reflectIndex(i, 5))
		symmetric = append(symmetric, symmetricIndex(i, 5))
	}
	assert.Equal(t, []int{3, 2, 1, 0, 1, 2, 3, 4, 3, 2, 1}, reflect)
	assert.Equal(t, []int{2, 1, 0, 0, 1, 2, 3, 4, 4, 3, 2}, symmetric)
}

func TestPadImage(t *testing.T) {
	img := [][]float64{
		{1, 2},
		{3, 4},
	}
	padded := padImage(img, 1, PadReplicate)
	assert.Equal(t, [][]float64{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 4},
		{3, 3, 4, 4},
	}, padded)
}
