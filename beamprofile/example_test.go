package beamprofile_test

import (
	"fmt"
	"math"

	"github.com/bob-anderson-ok/BeamProfile/beamprofile"
)

func Example() {
	// A 50x50 frame with a round spot of sigma 3 at row 25, column 30.
	img := make([][]float64, 50)
	for y := range img {
		img[y] = make([]float64, 50)
		for x := range img[y] {
			dy, dx := float64(y-25), float64(x-30)
			img[y][x] = 5 + 200*math.Exp(-(dx*dx+dy*dy)/18)
		}
	}

	cfg := beamprofile.DefaultConfig(beamprofile.GaussianBlurStrategy)
	cfg.SmoothingSigma = 0

	a, err := beamprofile.Analyze(img, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("peak at row %d, col %d\n", a.Peak.Row, a.Peak.Col)
	fmt.Printf("horizontal: mean %.2f sigma %.2f FWHM %.1f\n", a.Horizontal.Mean, a.Horizontal.Sigma, a.Horizontal.FWHM)
	fmt.Printf("vertical:   mean %.2f sigma %.2f FWHM %.1f\n", a.Vertical.Mean, a.Vertical.Sigma, a.Vertical.FWHM)
	// Output:
	// peak at row 25, col 30
	// horizontal: mean 30.00 sigma 3.00 FWHM 7.1
	// vertical:   mean 25.00 sigma 3.00 FWHM 7.1
}
