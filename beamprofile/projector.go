package beamprofile

// Project sums the image across the window and returns one profile per axis.
//
// The horizontal profile sums rows [RowStart, RowEnd) for every column, so its length is the
// image width. The vertical profile sums columns [ColStart, ColEnd) for every row, so its
// length is the image height. Only the summed-over axis is windowed; the profile axis keeps
// its full extent.
func Project(img [][]float64, win Window) (horizontal, vertical []float64) {
	h := len(img)
	w := 0
	if h > 0 {
		w = len(img[0])
	}

	horizontal = make([]float64, w)
	for row := win.RowStart; row < win.RowEnd; row++ {
		for col := 0; col < w; col++ {
			horizontal[col] += img[row][col]
		}
	}

	vertical = make([]float64, h)
	for row := 0; row < h; row++ {
		sum := 0.0
		for col := win.ColStart; col < win.ColEnd; col++ {
			sum += img[row][col]
		}
		vertical[row] = sum
	}
	return horizontal, vertical
}
