package beamprofile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sbinet/npyio/npy"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/stat"
)

// ErrUnsupportedArray is returned for .npy files that are not 2D numeric arrays.
var ErrUnsupportedArray = errors.New("unsupported array")

// LoadImage reads a beam image into a matrix of intensities, choosing the decoder from the
// file extension. 16-bit PNG and TIFF files keep their full range; colour images are
// converted to luminance; .npy files are read as raw numeric arrays.
func LoadImage(filename string) ([][]float64, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".npy":
		return LoadNpy(filename)
	case ".png":
		return LoadPNG(filename)
	case ".tif", ".tiff":
		return loadTIFF(filename)
	}

	img, err := imaging.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return ImageToMatrix(img), nil
}

// LoadPNG loads a PNG image. Gray and Gray16 images keep their raw sample values.
func LoadPNG(filename string) (matrix [][]float64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return ImageToMatrix(img), nil
}

func loadTIFF(filename string) (matrix [][]float64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return ImageToMatrix(img), nil
}

// ImageToMatrix converts an image to intensities. Gray16 images give 0..65535, everything
// else 0..255 luminance.
func ImageToMatrix(img image.Image) [][]float64 {
	bounds := img.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()

	matrix := newMatrix(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x+bounds.Min.X, y+bounds.Min.Y)
			switch g := c.(type) {
			case color.Gray16:
				matrix[y][x] = float64(g.Y)
			case color.Gray:
				matrix[y][x] = float64(g.Y)
			default:
				matrix[y][x] = float64(color.GrayModel.Convert(c).(color.Gray).Y)
			}
		}
	}
	return matrix
}

// LoadNpy reads a 2D numpy array of any integer or floating point dtype.
func LoadNpy(filename string) (matrix [][]float64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header of %s: %w", filename, err)
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: %s has shape %v, want 2 dimensions", ErrUnsupportedArray, filename, shape)
	}

	var flat []float64
	switch dtype := r.Header.Descr.Type; strings.TrimLeft(dtype, "<>|=") {
	case "b1":
		flat, err = readNpyBool(r)
	case "u1":
		flat, err = readNpyAs[uint8](r)
	case "i1":
		flat, err = readNpyAs[int8](r)
	case "u2":
		flat, err = readNpyAs[uint16](r)
	case "i2":
		flat, err = readNpyAs[int16](r)
	case "u4":
		flat, err = readNpyAs[uint32](r)
	case "i4":
		flat, err = readNpyAs[int32](r)
	case "u8":
		flat, err = readNpyAs[uint64](r)
	case "i8":
		flat, err = readNpyAs[int64](r)
	case "f4":
		flat, err = readNpyAs[float32](r)
	case "f8":
		flat, err = readNpyAs[float64](r)
	default:
		return nil, fmt.Errorf("%w: %s has dtype %q", ErrUnsupportedArray, filename, dtype)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read npy data of %s: %w", filename, err)
	}

	rows, cols := shape[0], shape[1]
	if len(flat) != rows*cols {
		return nil, fmt.Errorf("%w: %s holds %d values for shape %v", ErrUnsupportedArray, filename, len(flat), shape)
	}
	if r.Header.Descr.Fortran {
		matrix = newMatrix(rows, cols)
		for c := 0; c < cols; c++ {
			for row := 0; row < rows; row++ {
				matrix[row][c] = flat[c*rows+row]
			}
		}
		return matrix, nil
	}
	return Reshape1DTo2D(flat, rows, cols)
}

type npyNumber interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

func readNpyAs[T npyNumber](r *npy.Reader) ([]float64, error) {
	var raw []T
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

func readNpyBool(r *npy.Reader) ([]float64, error) {
	var raw []bool
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v {
			out[i] = 1
		}
	}
	return out, nil
}

// Reshape1DTo2D splits a row-major vector into rows.
func Reshape1DTo2D(v []float64, rows, cols int) ([][]float64, error) {
	if len(v) != rows*cols {
		return nil, fmt.Errorf("size mismatch: have %d, want %d", len(v), rows*cols)
	}

	m := make([][]float64, rows)
	k := 0
	for i := 0; i < rows; i++ {
		m[i] = make([]float64, cols)
		copy(m[i], v[k:k+cols])
		k += cols
	}
	return m, nil
}

// MatrixToGrayViewPercentile builds an 8-bit view of the matrix. It maps the pLow to pHigh
// percentile range onto 0..255 and clamps, so a few hot pixels do not flatten the view the way
// a plain min/max stretch would. Non-finite samples are drawn black.
func MatrixToGrayViewPercentile(m [][]float64, pLow, pHigh float64) (*image.Gray, error) {
	h, w, err := imageSize(m)
	if err != nil {
		return nil, err
	}
	if !(0 <= pLow && pLow < pHigh && pHigh <= 100) {
		return nil, errors.New("percentiles must satisfy 0 <= pLow < pHigh <= 100")
	}

	finite := make([]float64, 0, h*w)
	for _, row := range m {
		for _, v := range row {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				finite = append(finite, v)
			}
		}
	}
	if len(finite) == 0 {
		return nil, errors.New("matrix has no finite values")
	}
	sort.Float64s(finite)

	lo := stat.Quantile(pLow/100, stat.LinInterp, finite, nil)
	hi := stat.Quantile(pHigh/100, stat.LinInterp, finite, nil)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	view := image.NewGray(image.Rect(0, 0, w, h))
	for y, row := range m {
		for x, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			t := math.Max(0, math.Min(1, (v-lo)/span))
			view.SetGray(x, y, color.Gray{Y: uint8(math.Round(t * 255))})
		}
	}
	return view, nil
}

// DisplayImage returns a stretched 8-bit view of the matrix that fits inside maxW x maxH.
func DisplayImage(m [][]float64, maxW, maxH int) (image.Image, error) {
	view, err := MatrixToGrayViewPercentile(m, 0, 100)
	if err != nil {
		return nil, err
	}
	if maxW <= 0 || maxH <= 0 {
		return view, nil
	}
	return imaging.Fit(view, maxW, maxH, imaging.Lanczos), nil
}

// SaveImageToFile saves an image to a PNG file.
func SaveImageToFile(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return png.Encode(f, img)
}
