package beamprofile

// Window is a half-open pixel region [RowStart, RowEnd) x [ColStart, ColEnd).
type Window struct {
	RowStart int
	RowEnd   int
	ColStart int
	ColEnd   int
}

// SelectWindow returns the region within margin pixels of the peak, clamped to the image.
// The end bounds are exclusive, so the window spans at most 2*margin pixels per axis.
func SelectWindow(height, width int, peak Peak, margin int) Window {
	return Window{
		RowStart: max(0, peak.Row-margin),
		RowEnd:   min(height, peak.Row+margin),
		ColStart: max(0, peak.Col-margin),
		ColEnd:   min(width, peak.Col+margin),
	}
}

// Rows is the number of rows covered by the window.
func (w Window) Rows() int { return w.RowEnd - w.RowStart }

// Cols is the number of columns covered by the window.
func (w Window) Cols() int { return w.ColEnd - w.ColStart }
