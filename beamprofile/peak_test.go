package beamprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocatePeak(t *testing.T) {
	img := createGaussianSpot(20, 30, 7, 22, 2, 100, 1)
	assert.Equal(t, Peak{Row: 7, Col: 22}, LocatePeak(img))
}

func TestLocatePeakFirstOccurrence(t *testing.T) {
	img := [][]float64{
		{0, 1, 0},
		{5, 0, 5},
		{0, 5, 0},
	}
	assert.Equal(t, Peak{Row: 1, Col: 0}, LocatePeak(img))

	zeros := newMatrix(4, 6)
	assert.Equal(t, Peak{Row: 0, Col: 0}, LocatePeak(zeros))
}

func TestLocatePeakNegativeValues(t *testing.T) {
	img := [][]float64{
		{-3, -2},
		{-1, -4},
	}
	assert.Equal(t, Peak{Row: 1, Col: 0}, LocatePeak(img))
}
