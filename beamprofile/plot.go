package beamprofile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PlotOptions controls the look of a profile plot.
type PlotOptions struct {
	Scale float64 // physical units per sample; 0 means 1
	Units string  // axis label for the position axis; empty means "pixels"
}

// StepTicks places ticks at every multiple of Step.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	if t.Step <= 0 {
		return ticks
	}
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// niceStep returns a 1, 2 or 5 times a power of ten step giving about ten ticks over span.
func niceStep(span float64) float64 {
	if span <= 0 {
		return 1
	}
	raw := span / 10
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func setLiberationFonts(p *plot.Plot) {
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.X.Tick.Label.Font.Typeface = "Liberation"
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = vg.Points(10)

	p.Y.Tick.Label.Font.Typeface = "Liberation"
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = vg.Points(10)
}

// PlotProfile renders a profile and its fitted model into an image of wPx x hPx pixels.
// Horizontal profiles are drawn with position on the x axis. Vertical profiles are drawn
// with intensity on the x axis and position running downwards, so the plot lines up with
// the rows of the image it sits next to.
func PlotProfile(profile []float64, fit FitResult, axis Axis, opts PlotOptions, wPx, hPx float64) (image.Image, error) {
	if len(profile) == 0 {
		return nil, errors.New("empty profile")
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	units := opts.Units
	if units == "" {
		units = "pixels"
	}

	p := plot.New()
	setLiberationFonts(p)

	n := len(profile)
	measured := make(plotter.XYs, n)
	model := make(plotter.XYs, n)
	for i, v := range profile {
		pos := float64(i) * scale
		m := 0.0
		if fit.OK() {
			m = fit.Eval(float64(i))
		}
		if axis == Vertical {
			measured[i] = plotter.XY{X: v, Y: pos}
			model[i] = plotter.XY{X: m, Y: pos}
		} else {
			measured[i] = plotter.XY{X: pos, Y: v}
			model[i] = plotter.XY{X: pos, Y: m}
		}
	}

	span := float64(n-1) * scale
	if axis == Vertical {
		p.Title.Text = "Vertical profile"
		p.X.Label.Text = "Intensity"
		p.Y.Label.Text = units
		p.Y.Tick.Marker = StepTicks{Step: niceStep(span), Format: "%.4g"}
		p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	} else {
		p.Title.Text = "Horizontal profile"
		p.X.Label.Text = units
		p.Y.Label.Text = "Intensity"
		p.X.Tick.Marker = StepTicks{Step: niceStep(span), Format: "%.4g"}
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(measured)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{B: 255, A: 255} // blue
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("%s profile", axis), line)

	if fit.OK() {
		fitLine, err := plotter.NewLine(model)
		if err != nil {
			return nil, err
		}
		fitLine.Color = color.RGBA{R: 255, A: 255} // red
		p.Add(fitLine)
		s := fit.Scaled(scale)
		p.Legend.Add(fmt.Sprintf("Fit (FWHM=%.2f ± %.2f %s)", s.FWHM, s.FWHMErr, units), fitLine)
	} else {
		p.Legend.Add("Fit failed", line)
	}
	p.Legend.Top = true

	// Render into an in-memory image
	// Choose a "virtual" size in vg units and map to pixels via DPI.
	const dpi = 96
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := draw.New(c)
	p.Draw(dc)

	return c.Image(), nil
}

// SaveProfilePlot renders a profile plot and writes it to a PNG file.
func SaveProfilePlot(filename string, profile []float64, fit FitResult, axis Axis, opts PlotOptions, wPx, hPx float64) error {
	img, err := PlotProfile(profile, fit, axis, opts, wPx, hPx)
	if err != nil {
		return err
	}
	return SaveImageToFile(filename, img)
}
