package algorithms

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// solidImage builds a rows x cols BGR image filled with one color.
func solidImage(t *testing.T, rows, cols int, b, g, r float64) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
	require.False(t, mat.Empty())
	t.Cleanup(func() { mat.Close() })
	return mat
}

// gradientImage builds an image with varied content so lossy codecs have
// something to discard.
func gradientImage(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	data := make([]byte, rows*cols*3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			i := (y*cols + x) * 3
			data[i] = byte(x * 255 / cols)
			data[i+1] = byte(y * 255 / rows)
			data[i+2] = byte((x ^ y) & 0xff)
		}
	}
	mat, err := matFromBytes(rows, cols, data)
	require.NoError(t, err)
	t.Cleanup(func() { mat.Close() })
	return mat
}

func closeResult(t *testing.T, res StepResult) {
	t.Helper()
	t.Cleanup(func() { res.Image.Close() })
}
