package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMatToMatrix8Bit(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 2, 3, gocv.MatTypeCV8UC1)
	defer m.Close()
	m.SetUCharAt(0, 1, 17)
	m.SetUCharAt(1, 2, 255)

	got, err := MatToMatrix(m)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 17, 0}, {0, 0, 255}}, got)
}

func TestMatToMatrix16Bit(t *testing.T) {
	m := gocv.NewMatWithSize(1, 2, gocv.MatTypeCV16UC1)
	defer m.Close()
	m.SetShortAt(0, 0, 1000)
	m.SetShortAt(0, 1, -1) // 65535 when read back unsigned

	got, err := MatToMatrix(m)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1000, 65535}}, got)
}

func TestMatToMatrixRejectsColour(t *testing.T) {
	m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer m.Close()
	_, err := MatToMatrix(m)
	assert.Error(t, err)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = MatToMatrix(empty)
	assert.Error(t, err)
}
