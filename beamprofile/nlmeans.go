package beamprofile

import "math"

// NonLocalMeans denoises an image by replacing every pixel with a weighted average of the
// pixels in a (2*patchDistance+1)^2 search window. The weight of a candidate is
// exp(-d2/h^2), where d2 is the mean squared difference between the patchSize x patchSize
// patches around the two pixels. Patch distances are box sums over an integral image of the
// per-offset squared differences, so the cost is independent of the patch size.
//
// A non-positive h returns an unmodified copy.
func NonLocalMeans(img [][]float64, patchSize, patchDistance int, h float64) [][]float64 {
	height, width, err := imageSize(img)
	if err != nil {
		return nil
	}
	out := newMatrix(height, width)
	if h <= 0 {
		for y := range img {
			copy(out[y], img[y])
		}
		return out
	}

	halfPatch := patchSize / 2
	border := halfPatch + patchDistance
	padded := padImage(img, border, PadReflect)

	// Squared differences live on the image grid grown by halfPatch on every side.
	dh := height + 2*halfPatch
	dw := width + 2*halfPatch
	integral := newMatrix(dh+1, dw+1)

	num := newMatrix(height, width)
	den := newMatrix(height, width)
	patchArea := float64((2*halfPatch + 1) * (2*halfPatch + 1))
	invH2 := 1 / (h * h)
	d := patchDistance

	for dy := -d; dy <= d; dy++ {
		for dx := -d; dx <= d; dx++ {
			for y := 0; y < dh; y++ {
				rowAcc := 0.0
				for x := 0; x < dw; x++ {
					diff := padded[y+d][x+d] - padded[y+d+dy][x+d+dx]
					rowAcc += diff * diff
					integral[y+1][x+1] = integral[y][x+1] + rowAcc
				}
			}

			for y := 0; y < height; y++ {
				y0, y1 := y, y+2*halfPatch+1
				for x := 0; x < width; x++ {
					x0, x1 := x, x+2*halfPatch+1
					ss := integral[y1][x1] - integral[y0][x1] - integral[y1][x0] + integral[y0][x0]
					weight := math.Exp(-math.Max(ss, 0) / patchArea * invH2)
					num[y][x] += weight * padded[y+border+dy][x+border+dx]
					den[y][x] += weight
				}
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y][x] = num[y][x] / den[y][x]
		}
	}
	return out
}
