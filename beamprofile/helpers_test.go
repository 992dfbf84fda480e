package beamprofile

import (
	"math"
	"math/rand"
)

// createGaussianSpot returns an h x w image holding a circular Gaussian spot on a constant
// background.
func createGaussianSpot(h, w int, row, col, sigma, amp, offset float64) [][]float64 {
	img := newMatrix(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dy := float64(y) - row
			dx := float64(x) - col
			img[y][x] = offset + amp*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
		}
	}
	return img
}

// createGaussianProfile samples the fit model at 0..n-1.
func createGaussianProfile(n int, a, mean, sigma, c float64) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = Gaussian(float64(i), a, mean, sigma, c)
	}
	return p
}

// addNoise adds seeded zero-mean Gaussian noise in place.
func addNoise(img [][]float64, sigma float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for y := range img {
		for x := range img[y] {
			img[y][x] += rng.NormFloat64() * sigma
		}
	}
}

func stdDev(img [][]float64) float64 {
	n := 0.0
	sum, sum2 := 0.0, 0.0
	for _, row := range img {
		for _, v := range row {
			sum += v
			sum2 += v * v
			n++
		}
	}
	mean := sum / n
	return math.Sqrt(sum2/n - mean*mean)
}
