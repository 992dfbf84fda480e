package beamprofile

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotProfileSize(t *testing.T) {
	profile := createGaussianProfile(50, 100, 25, 4, 10)
	fit := FitGaussian(profile, FitOptions{})
	require.True(t, fit.OK())

	for _, axis := range []Axis{Horizontal, Vertical} {
		img, err := PlotProfile(profile, fit, axis, PlotOptions{Scale: DefaultPixelScale, Units: "ps"}, 460, 280)
		require.NoError(t, err, axis.String())
		assert.Equal(t, 460, img.Bounds().Dx())
		assert.Equal(t, 280, img.Bounds().Dy())
	}
}

func TestPlotProfileFailedFit(t *testing.T) {
	img, err := PlotProfile([]float64{1, 1, 1, 1, 1, 1}, failedFit(ErrFlatProfile), Horizontal, PlotOptions{}, 200, 100)
	require.NoError(t, err)
	assert.NotNil(t, img)
}

func TestPlotProfileEmpty(t *testing.T) {
	_, err := PlotProfile(nil, FitResult{}, Horizontal, PlotOptions{}, 200, 100)
	assert.Error(t, err)
}

func TestSaveProfilePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horizontal.png")
	profile := createGaussianProfile(30, 50, 15, 3, 2)
	require.NoError(t, SaveProfilePlot(path, profile, FitGaussian(profile, FitOptions{}), Horizontal, PlotOptions{}, 300, 200))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestStepTicks(t *testing.T) {
	ticks := StepTicks{Step: 5, Format: "%.0f"}.Ticks(0, 12)
	var labels []string
	for _, tk := range ticks {
		labels = append(labels, tk.Label)
	}
	assert.Equal(t, []string{"0", "5", "10"}, labels)

	assert.Empty(t, StepTicks{}.Ticks(0, 10))
}

func TestNiceStep(t *testing.T) {
	assert.InDelta(t, 5.0, niceStep(49), 1e-12)
	assert.InDelta(t, 10.0, niceStep(61.74), 1e-12)
	assert.InDelta(t, 0.2, niceStep(1.5), 1e-12)
	assert.Equal(t, 1.0, niceStep(0))
}
