package main

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// CaptureFrame grabs one frame from the camera and returns it as 8 bit gray levels.
func CaptureFrame(device int) ([][]float64, error) {
	webcam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", device, err)
	}
	defer webcam.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := webcam.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("camera %d returned no frame", device)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() == 1 {
		frame.CopyTo(&gray)
	} else {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	}
	return MatToMatrix(gray)
}

// LoadWithOpenCV reads formats the Go decoders do not cover (pgm, ppm and friends),
// keeping 16 bit depth when the file has it.
func LoadWithOpenCV(filename string) ([][]float64, error) {
	m := gocv.IMRead(filename, gocv.IMReadGrayScale|gocv.IMReadAnyDepth)
	defer m.Close()
	if m.Empty() {
		return nil, fmt.Errorf("failed to decode %s", filename)
	}
	return MatToMatrix(m)
}

// MatToMatrix copies a single channel 8 or 16 bit Mat into a matrix.
func MatToMatrix(m gocv.Mat) ([][]float64, error) {
	if m.Empty() {
		return nil, errors.New("empty frame")
	}
	if m.Channels() != 1 {
		return nil, fmt.Errorf("want a single channel frame, got %d channels", m.Channels())
	}

	rows, cols := m.Rows(), m.Cols()
	matrix := make([][]float64, rows)
	for y := 0; y < rows; y++ {
		matrix[y] = make([]float64, cols)
		for x := 0; x < cols; x++ {
			switch m.Type() {
			case gocv.MatTypeCV8UC1:
				matrix[y][x] = float64(m.GetUCharAt(y, x))
			case gocv.MatTypeCV16UC1:
				matrix[y][x] = float64(uint16(m.GetShortAt(y, x)))
			default:
				return nil, fmt.Errorf("unsupported frame type %v", m.Type())
			}
		}
	}
	return matrix, nil
}
