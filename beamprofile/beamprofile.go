// Package beamprofile extracts horizontal and vertical intensity profiles from an image of a
// beam spot and fits each profile to a Gaussian plus a constant background.
//
// An image is a rectangular [][]float64 matrix indexed [row][col]. The pipeline is:
// locate the brightest pixel, pick a window around it, sum the image across the window to
// get one profile per axis, smooth the profiles, and fit them. Everything is recomputed on
// every call to Analyze; nothing is cached between calls.
package beamprofile

import "errors"

// FWHMFactor converts a Gaussian sigma to its full width at half maximum.
const FWHMFactor = 2.355

// DefaultPixelScale is the physical size of one pixel along a profile (picoseconds per pixel
// for the streak camera this tool was written for).
const DefaultPixelScale = 1.26

var (
	// ErrEmptyImage marks the fits of an image with no rows or no columns.
	ErrEmptyImage = errors.New("empty image")
	// ErrRaggedImage is returned when the image rows are not all the same length.
	ErrRaggedImage = errors.New("ragged image")
)

// Axis identifies which profile a value belongs to.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return "unknown"
}

// imageSize returns the height and width of a rectangular matrix.
func imageSize(img [][]float64) (h, w int, err error) {
	h = len(img)
	if h == 0 {
		return 0, 0, ErrEmptyImage
	}
	w = len(img[0])
	for i := 1; i < h; i++ {
		if len(img[i]) != w {
			return 0, 0, ErrRaggedImage
		}
	}
	if w == 0 {
		return 0, 0, ErrEmptyImage
	}
	return h, w, nil
}

func newMatrix(h, w int) [][]float64 {
	m := make([][]float64, h)
	for i := range m {
		m[i] = make([]float64, w)
	}
	return m
}
