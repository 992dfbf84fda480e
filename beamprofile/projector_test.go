package beamprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectWindowsOnlyTheSummedAxis(t *testing.T) {
	img := [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}
	win := Window{RowStart: 1, RowEnd: 3, ColStart: 2, ColEnd: 4}

	hor, vert := Project(img, win)

	// rows 1..2 summed for every column
	assert.Equal(t, []float64{14, 16, 18, 20}, hor)
	// columns 2..3 summed for every row
	assert.Equal(t, []float64{7, 15, 23}, vert)
}

func TestProjectLengths(t *testing.T) {
	img := createGaussianSpot(13, 21, 6, 10, 2, 50, 0)
	hor, vert := Project(img, SelectWindow(13, 21, Peak{Row: 6, Col: 10}, 2))
	assert.Len(t, hor, 21)
	assert.Len(t, vert, 13)
}

func TestProjectEmptyWindow(t *testing.T) {
	img := [][]float64{{1, 2}, {3, 4}}
	hor, vert := Project(img, SelectWindow(2, 2, Peak{}, 0))
	assert.Equal(t, []float64{0, 0}, hor)
	assert.Equal(t, []float64{0, 0}, vert)
}
