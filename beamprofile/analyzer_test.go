package beamprofile

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRecoversSpot(t *testing.T) {
	img := createGaussianSpot(50, 50, 25, 30, 3, 200, 5)
	cfg := DefaultConfig(GaussianBlurStrategy)
	cfg.SmoothingSigma = 0

	a, err := Analyze(img, cfg)
	require.NoError(t, err)
	assert.Equal(t, Peak{Row: 25, Col: 30}, a.Peak)
	assert.Equal(t, Window{RowStart: 15, RowEnd: 35, ColStart: 20, ColEnd: 40}, a.Window)
	require.Len(t, a.HorizontalProfile, 50)
	require.Len(t, a.VerticalProfile, 50)

	require.True(t, a.Horizontal.OK(), "horizontal fit failed: %v", a.Horizontal.Err)
	require.True(t, a.Vertical.OK(), "vertical fit failed: %v", a.Vertical.Err)
	assert.InDelta(t, 30, a.Horizontal.Mean, 1)
	assert.InDelta(t, 25, a.Vertical.Mean, 1)
	assert.InDelta(t, 3, a.Horizontal.Sigma, 0.3)
	assert.InDelta(t, 3, a.Vertical.Sigma, 0.3)
	assert.InDelta(t, 7.065, a.Horizontal.FWHM, 0.7)
	assert.InDelta(t, 7.065, a.Vertical.FWHM, 0.7)
}

func TestAnalyzeBlurBroadensSigma(t *testing.T) {
	img := createGaussianSpot(50, 50, 25, 30, 3, 200, 5)

	a, err := Analyze(img, DefaultConfig(GaussianBlurStrategy))
	require.NoError(t, err)
	require.True(t, a.Horizontal.OK())
	require.True(t, a.Vertical.OK())

	// A Gaussian blurred by a Gaussian has sigma sqrt(s1^2 + s2^2).
	want := math.Sqrt(3*3 + 3*3)
	assert.InDelta(t, want, a.Horizontal.Sigma, 0.1)
	assert.InDelta(t, want, a.Vertical.Sigma, 0.1)
	assert.InDelta(t, 30, a.Horizontal.Mean, 0.5)
	assert.InDelta(t, 25, a.Vertical.Mean, 0.5)
}

func TestAnalyzeAllZeroImage(t *testing.T) {
	a, err := Analyze(newMatrix(20, 30), DefaultConfig(GaussianBlurStrategy))
	require.NoError(t, err)
	assert.Equal(t, Peak{}, a.Peak)
	assert.False(t, a.Horizontal.OK())
	assert.False(t, a.Vertical.OK())
	assert.ErrorIs(t, a.Horizontal.Err, ErrFlatProfile)
	assert.ErrorIs(t, a.Vertical.Err, ErrFlatProfile)
}

func TestAnalyzeEmptyImage(t *testing.T) {
	for _, img := range [][][]float64{nil, {{}, {}}} {
		a, err := Analyze(img, DefaultConfig(NonLocalMeansStrategy))
		require.NoError(t, err)
		assert.Equal(t, Peak{}, a.Peak)
		assert.Equal(t, FitFailed, a.Horizontal.Status)
		assert.ErrorIs(t, a.Horizontal.Err, ErrEmptyImage)
		assert.ErrorIs(t, a.Vertical.Err, ErrEmptyImage)
		assert.Zero(t, a.Vertical.FWHM)
		assert.Empty(t, a.HorizontalProfile)
	}
}

func TestAnalyzeOneAxisFails(t *testing.T) {
	// Brightness varies only with the row, so every column sums to the same value.
	img := newMatrix(40, 40)
	for y := range img {
		for x := range img[y] {
			img[y][x] = 10 + 100*math.Exp(-float64((y-20)*(y-20))/(2*9))
		}
	}

	a, err := Analyze(img, DefaultConfig(GaussianBlurStrategy))
	require.NoError(t, err)
	assert.False(t, a.Horizontal.OK())
	assert.ErrorIs(t, a.Horizontal.Err, ErrFlatProfile)
	require.True(t, a.Vertical.OK(), "vertical fit failed: %v", a.Vertical.Err)
	assert.InDelta(t, 20, a.Vertical.Mean, 0.5)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	img := createGaussianSpot(40, 40, 18, 22, 3, 150, 12)
	cfg := DefaultConfig(GaussianBlurStrategy)

	first, err := Analyze(img, cfg)
	require.NoError(t, err)
	second, err := Analyze(img, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	cfg := DefaultConfig(GaussianBlurStrategy)

	_, err := Analyze([][]float64{{1, 2}, {3}}, cfg)
	assert.ErrorIs(t, err, ErrRaggedImage)

	bad := cfg
	bad.WindowMargin = -1
	_, err = Analyze(newMatrix(5, 5), bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAnalyzeNonLocalMeans(t *testing.T) {
	img := createGaussianSpot(48, 48, 20, 26, 4, 3000, 400)
	addNoise(img, 60, 17)

	a, err := Analyze(img, DefaultConfig(NonLocalMeansStrategy))
	require.NoError(t, err)
	require.Len(t, a.Image, 48)
	require.True(t, a.Horizontal.OK(), "horizontal fit failed: %v", a.Horizontal.Err)
	require.True(t, a.Vertical.OK(), "vertical fit failed: %v", a.Vertical.Err)
	assert.InDelta(t, 26, a.Horizontal.Mean, 1.5)
	assert.InDelta(t, 20, a.Vertical.Mean, 1.5)
	assert.GreaterOrEqual(t, a.Horizontal.Amplitude, 0.0)
	assert.GreaterOrEqual(t, a.Vertical.Offset, 0.0)
}

func TestAnalyzerLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	an, err := NewAnalyzer(DefaultConfig(GaussianBlurStrategy))
	require.NoError(t, err)
	an = an.WithLogger(zerolog.New(&buf))

	_, err = an.Analyze(newMatrix(10, 10))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"component":"beamprofile"`)
	assert.Contains(t, buf.String(), "gaussian fit failed")
}

func TestAnalyzerContextCancelled(t *testing.T) {
	an, err := NewAnalyzer(DefaultConfig(GaussianBlurStrategy))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = an.AnalyzeContext(ctx, createGaussianSpot(20, 20, 10, 10, 2, 50, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalyzerValidates(t *testing.T) {
	cfg := DefaultConfig(NonLocalMeansStrategy)
	cfg.NLMPatchSize = 4
	_, err := NewAnalyzer(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAnalysisAccessors(t *testing.T) {
	a := &Analysis{
		Horizontal:        FitResult{Mean: 1},
		Vertical:          FitResult{Mean: 2},
		HorizontalProfile: []float64{1},
		VerticalProfile:   []float64{2},
	}
	assert.Equal(t, 1.0, a.Result(Horizontal).Mean)
	assert.Equal(t, 2.0, a.Result(Vertical).Mean)
	assert.Equal(t, []float64{2}, a.Profile(Vertical))
	assert.Equal(t, "vertical", Vertical.String())
}
