package beamprofile

import "math"

// Weights of the Laplacian-difference mask used by EstimateNoise.
var noiseMask = [3][3]float64{
	{1, -2, 1},
	{-2, 4, -2},
	{1, -2, 1},
}

// NormalizeMinMax linearly maps the image range onto [lo, hi] and rounds to whole levels,
// the way an 8-bit conversion would. A uniform image maps to lo everywhere.
func NormalizeMinMax(img [][]float64, lo, hi float64) [][]float64 {
	h := len(img)
	out := make([][]float64, h)
	if h == 0 {
		return out
	}

	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, row := range img {
		for _, v := range row {
			vmin = math.Min(vmin, v)
			vmax = math.Max(vmax, v)
		}
	}

	scale := 0.0
	if vmax > vmin {
		scale = (hi - lo) / (vmax - vmin)
	}
	for y, row := range img {
		out[y] = make([]float64, len(row))
		for x, v := range row {
			t := math.Round(lo + (v-vmin)*scale)
			out[y][x] = math.Max(lo, math.Min(hi, t))
		}
	}
	return out
}

// EstimateNoise estimates the standard deviation of additive Gaussian noise in an image.
// From J. Immerkaer, "Fast Noise Variance Estimation", Computer Vision and Image
// Understanding, Vol. 64, No. 2, pp. 300-302, Sep. 1996.
// Images smaller than 3x3 report zero.
func EstimateNoise(img [][]float64) float64 {
	h, w, err := imageSize(img)
	if err != nil || h < 3 || w < 3 {
		return 0
	}

	sum := 0.0
	for y := 1; y < h-1; y++ {
		rowSum := 0.0
		for x := 1; x < w-1; x++ {
			conv := 0.0
			for j := -1; j <= 1; j++ {
				for i := -1; i <= 1; i++ {
					conv += img[y+j][x+i] * noiseMask[j+1][i+1]
				}
			}
			rowSum += math.Abs(conv)
		}
		sum += rowSum
	}
	factor := math.Sqrt(0.5*math.Pi) / (6 * float64(w-2) * float64(h-2))
	return sum * factor
}
