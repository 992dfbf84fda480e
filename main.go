package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/bob-anderson-ok/BeamProfile/beamprofile"
)

// Reported at startup; bump with every release build.
const version = "1_0_0"

const (
	imageDisplayWidth  = 460
	imageDisplayHeight = 280
	verticalPlotWidth  = 240
	horizontalPlotH    = 240
)

// Extensions offered by the Open Image dialog. The ones the Go decoders lack go through OpenCV.
var (
	openExtensions   = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff", ".webp", ".npy", ".pgm", ".ppm"}
	opencvExtensions = map[string]bool{".pgm": true, ".ppm": true}
)

// BeamApp holds the window, the current image and the widgets that show its analysis.
type BeamApp struct {
	window fyne.Window
	log    zerolog.Logger

	// params is the parameter file, nil when none was given. Unless it names a strategy, the
	// strategy follows the image source.
	params *beamprofile.Params
	shell  beamprofile.ShellOptions

	img    [][]float64
	source string

	imageView *canvas.Image
	horPlot   *canvas.Image
	vertPlot  *canvas.Image
	readouts  map[beamprofile.Axis][]*widget.Label
	status    *widget.Label
}

// ProfilePlots is everything computed for one press of Plot Beam Profile.
type ProfilePlots struct {
	Analysis   *beamprofile.Analysis
	Config     beamprofile.Config
	Horizontal image.Image
	Vertical   image.Image
	Display    image.Image
}

func main() {
	programStart := time.Now()

	var params *beamprofile.Params
	var shell beamprofile.ShellOptions

	args := os.Args
	if len(args) > 2 {
		fmt.Println("\n\tWrong number of arguments.\n\tUsage: BeamProfile [parameter-file]")
		os.Exit(1)
	}
	if len(args) == 2 {
		p, data, err := readParameterFile(args[1])
		if err != nil {
			fmt.Println(fmt.Errorf("\n\t%w\n", err))
			os.Exit(2)
		}
		params, shell = p, p.Shell

		// Check for user wanting printout of complete parameter file contents
		if shell.ShowInput {
			fmt.Printf("%s", "\nPrintout of complete parameter file contents...\n")
			fmt.Println(string(data))
		}
	}

	log, err := newConsoleLogger(shell.LogLevel)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\t%w\n", err))
		os.Exit(3)
	}
	log.Info().Str("version", version).Msg("starting")

	// We supply an ID (hopefully unique) because we may need to use the preferences API
	myApp := app.NewWithID("com.gmail.ok.anderson.bob.beamprofile")
	b := NewBeamApp(myApp, params, shell, log)
	b.window.Resize(fyne.Size{Height: 700, Width: 1000})
	b.window.CenterOnScreen()

	log.Debug().Dur("took", time.Since(programStart)).Msg("window built")
	b.window.ShowAndRun()
}

// readParameterFile parses the parameter file at path and also returns its contents for the
// show_input_bool printout.
func readParameterFile(path string) (*beamprofile.Params, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("attempt to read parameter file %q failed: %w", path, err)
	}
	p, err := beamprofile.ParseParams(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parameter file %q: %w", path, err)
	}
	return p, data, nil
}

func newConsoleLogger(level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log_level %q is not recognized: %w", level, err)
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// NewBeamApp builds the main window and its widgets.
func NewBeamApp(a fyne.App, params *beamprofile.Params, shell beamprofile.ShellOptions, log zerolog.Logger) *BeamApp {
	b := &BeamApp{
		window:   a.NewWindow("Beam Profile"),
		log:      log,
		params:   params,
		shell:    shell,
		readouts: map[beamprofile.Axis][]*widget.Label{},
		status:   widget.NewLabel("Open or capture an image"),
	}

	b.imageView = newImageCanvas(imageDisplayWidth, imageDisplayHeight)
	b.horPlot = newImageCanvas(imageDisplayWidth, horizontalPlotH)
	b.vertPlot = newImageCanvas(verticalPlotWidth, imageDisplayHeight)

	buttons := container.NewHBox(
		widget.NewButton("Capture Image", b.handleCapture),
		widget.NewButton("Open Image", b.handleOpen),
		widget.NewButton("Plot Beam Profile", b.handlePlot),
	)

	grid := container.NewGridWithColumns(3,
		widget.NewLabel(""), widget.NewLabel("Horizontal"), widget.NewLabel("Vertical"))
	for i, ro := range beamprofile.Readouts(beamprofile.FitResult{}, 1) {
		for _, axis := range []beamprofile.Axis{beamprofile.Horizontal, beamprofile.Vertical} {
			b.readouts[axis] = append(b.readouts[axis], widget.NewLabel("-"))
		}
		grid.Add(widget.NewLabel(ro.Label))
		grid.Add(b.readouts[beamprofile.Horizontal][i])
		grid.Add(b.readouts[beamprofile.Vertical][i])
	}

	// Image top left, vertical profile beside it, horizontal profile below it.
	plots := container.NewGridWithColumns(2,
		b.imageView, b.vertPlot,
		b.horPlot, grid,
	)
	b.window.SetContent(container.NewBorder(buttons, b.status, nil, nil, plots))
	return b
}

func newImageCanvas(w, h float32) *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(w, h))
	return img
}

// ConfigFor returns the analysis configuration for an image from source: the defaults of
// the strategy the source implies, or of the strategy the parameter file names, overridden
// by the keys the parameter file sets.
func (b *BeamApp) ConfigFor(source string) (beamprofile.Config, error) {
	return b.params.Config(beamprofile.StrategyForPath(source))
}

// LoadFile reads an image from disk and makes it the current image.
func (b *BeamApp) LoadFile(path string) error {
	m, err := b.readImageFile(path)
	if err != nil {
		return err
	}
	return b.SetImage(m, path)
}

func (b *BeamApp) readImageFile(path string) ([][]float64, error) {
	start := time.Now()
	var (
		m   [][]float64
		err error
	)
	if opencvExtensions[strings.ToLower(filepath.Ext(path))] {
		m, err = LoadWithOpenCV(path)
	} else {
		m, err = beamprofile.LoadImage(path)
	}
	if err != nil {
		return nil, err
	}
	b.log.Info().Str("file", path).Dur("took", time.Since(start)).Msg("image loaded")
	return m, nil
}

// SetImage makes m the current image and shows it. Previous plots and readouts are cleared.
func (b *BeamApp) SetImage(m [][]float64, source string) error {
	view, err := beamprofile.DisplayImage(m, imageDisplayWidth, imageDisplayHeight)
	if err != nil {
		return fmt.Errorf("creation of the display image failed: %w", err)
	}
	b.img = m
	b.source = source

	b.imageView.Image = view
	b.imageView.Refresh()
	b.clearProfiles()
	b.status.SetText(fmt.Sprintf("%s (%d x %d)", filepath.Base(source), len(m[0]), len(m)))
	return nil
}

func (b *BeamApp) clearProfiles() {
	for _, c := range []*canvas.Image{b.horPlot, b.vertPlot} {
		c.Image = nil
		c.Refresh()
	}
	for _, labels := range b.readouts {
		for _, l := range labels {
			l.SetText("-")
		}
	}
}

// ComputeProfiles analyzes img and renders both profile plots. It touches no widgets, so it
// may run off the UI goroutine.
func (b *BeamApp) ComputeProfiles(img [][]float64, source string) (*ProfilePlots, error) {
	if img == nil {
		return nil, errors.New("no image loaded")
	}
	cfg, err := b.ConfigFor(source)
	if err != nil {
		return nil, err
	}
	analyzer, err := beamprofile.NewAnalyzer(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	a, err := analyzer.WithLogger(b.log).Analyze(img)
	if err != nil {
		return nil, err
	}
	b.log.Info().Dur("took", time.Since(start)).Str("strategy", cfg.Strategy.String()).Msg("analysis done")

	opts := beamprofile.PlotOptions{Scale: cfg.PixelScale, Units: cfg.Units}
	hor, err := beamprofile.PlotProfile(a.HorizontalProfile, a.Horizontal, beamprofile.Horizontal, opts, imageDisplayWidth, horizontalPlotH)
	if err != nil {
		return nil, err
	}
	vert, err := beamprofile.PlotProfile(a.VerticalProfile, a.Vertical, beamprofile.Vertical, opts, verticalPlotWidth, imageDisplayHeight)
	if err != nil {
		return nil, err
	}

	// Show what was actually fitted: the denoised image on the non-local-means path.
	display, err := beamprofile.DisplayImage(a.Image, imageDisplayWidth, imageDisplayHeight)
	if err != nil {
		return nil, err
	}
	return &ProfilePlots{Analysis: a, Config: cfg, Horizontal: hor, Vertical: vert, Display: display}, nil
}

// ShowProfiles puts computed plots and readouts on screen.
func (b *BeamApp) ShowProfiles(p *ProfilePlots) {
	b.imageView.Image = p.Display
	b.imageView.Refresh()
	b.horPlot.Image = p.Horizontal
	b.horPlot.Refresh()
	b.vertPlot.Image = p.Vertical
	b.vertPlot.Refresh()

	for _, axis := range []beamprofile.Axis{beamprofile.Horizontal, beamprofile.Vertical} {
		for i, ro := range beamprofile.Readouts(p.Analysis.Result(axis), p.Config.PixelScale) {
			b.readouts[axis][i].SetText(ro.Text(p.Config.Units))
		}
	}
	b.status.SetText(fmt.Sprintf("peak at row %d, col %d (%s)", p.Analysis.Peak.Row, p.Analysis.Peak.Col, p.Config.Strategy))
}

func (b *BeamApp) showError(title string, err error) {
	b.log.Error().Err(err).Msg(title)
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), b.window)
}

func (b *BeamApp) handleCapture() {
	b.status.SetText("Capturing...")
	go func() {
		m, err := CaptureFrame(b.shell.CameraDevice)
		fyne.Do(func() {
			if err != nil {
				b.showError("Capture failed", err)
				b.status.SetText("Ready")
				return
			}
			if err := b.SetImage(m, "camera"); err != nil {
				b.showError("Capture failed", err)
			}
		})
	}()
}

func (b *BeamApp) handleOpen() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			b.showError("Open failed", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		b.status.SetText("Loading " + filepath.Base(path) + "...")
		go func() {
			m, loadErr := b.readImageFile(path)
			fyne.Do(func() {
				if loadErr == nil {
					loadErr = b.SetImage(m, path)
				}
				if loadErr != nil {
					b.showError("Open failed", loadErr)
					b.status.SetText("Ready")
				}
			})
		}()
	}, b.window)
	fd.SetFilter(storage.NewExtensionFileFilter(openExtensions))
	fd.Show()
}

func (b *BeamApp) handlePlot() {
	if b.img == nil {
		b.showError("Plot failed", errors.New("no image loaded"))
		return
	}
	b.status.SetText("Fitting...")
	img, source := b.img, b.source
	go func() {
		p, err := b.ComputeProfiles(img, source)
		fyne.Do(func() {
			if err != nil {
				b.showError("Plot failed", err)
				b.status.SetText("Ready")
				return
			}
			b.ShowProfiles(p)
		})
	}()
}
