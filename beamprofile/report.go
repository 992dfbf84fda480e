package beamprofile

import (
	"fmt"
	"strings"
)

// Readout is one labelled value of a fit, formatted for display.
type Readout struct {
	Label    string
	Value    string
	Physical bool // Value is a length in physical units
}

// Text returns the value with units appended when it is a physical length.
func (ro Readout) Text(units string) string {
	if ro.Physical && units != "" {
		return ro.Value + " " + units
	}
	return ro.Value
}

// Readouts formats the amplitude, mean, sigma and FWHM of a fit with their 1-sigma errors.
// Positions and widths are converted with scale (units per pixel); a failed fit reads as
// zeros with a "fit failed" marker so it is not mistaken for a narrow beam.
func Readouts(r FitResult, scale float64) []Readout {
	if !r.OK() {
		return []Readout{
			{"Amp", "0.00", false},
			{"Mean", "0.00", false},
			{"Sigma", "0.00", false},
			{"FWHM", "0.00 (fit failed)", false},
		}
	}
	s := r.Scaled(scale)
	return []Readout{
		{"Amp", fmt.Sprintf("%.2f ± %.2f", s.Amplitude, s.AmplitudeErr), false},
		{"Mean", fmt.Sprintf("%.2f ± %.2f", s.Mean, s.MeanErr), true},
		{"Sigma", fmt.Sprintf("%.2f ± %.2f", s.Sigma, s.SigmaErr), true},
		{"FWHM", fmt.Sprintf("%.2f ± %.2f", s.FWHM, s.FWHMErr), true},
	}
}

// Report renders an Analysis as text, one line per axis.
func Report(a *Analysis, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "peak (row %d, col %d)  window rows [%d,%d) cols [%d,%d)  strategy %s\n",
		a.Peak.Row, a.Peak.Col,
		a.Window.RowStart, a.Window.RowEnd, a.Window.ColStart, a.Window.ColEnd,
		cfg.Strategy)
	for _, axis := range []Axis{Horizontal, Vertical} {
		r := a.Result(axis)
		fmt.Fprintf(&b, "%-10s", axis)
		for _, ro := range Readouts(r, cfg.PixelScale) {
			fmt.Fprintf(&b, "  %s: %s", ro.Label, ro.Value)
		}
		if r.OK() {
			fmt.Fprintf(&b, "  [%s; FWHM %.2f px]", cfg.Units, r.FWHM)
		} else {
			fmt.Fprintf(&b, "  [%v]", r.Err)
		}
		b.WriteString("\n")
	}
	return b.String()
}
