package beamprofile

// Peak is the (row, col) position of the brightest sample in an image.
type Peak struct {
	Row int
	Col int
}

// LocatePeak returns the position of the global maximum. Ties go to the first sample in
// row-major order, so a uniform image reports (0, 0).
func LocatePeak(img [][]float64) Peak {
	var p Peak
	found := false
	best := 0.0
	for row := range img {
		for col, v := range img[row] {
			if !found || v > best {
				best = v
				p = Peak{Row: row, Col: col}
				found = true
			}
		}
	}
	return p
}
