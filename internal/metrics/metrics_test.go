package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solid(t *testing.T, rows, cols int, v float64) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestIdenticalImages(t *testing.T) {
	img := solid(t, 16, 16, 90)
	e := NewEvaluator()

	psnr, err := e.Calculate("psnr", img, img)
	require.NoError(t, err)
	assert.Equal(t, maxPSNR, psnr)

	mse, err := e.Calculate("mse", img, img)
	require.NoError(t, err)
	assert.Zero(t, mse)

	ssim, err := e.Calculate("ssim", img, img)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ssim, 1e-9)

	assert.Len(t, e.CalculateAll(img, img), 3)
}

func TestMSEDoesNotSaturate(t *testing.T) {
	// a difference of 200 squares to 40000, far above a byte
	mse, err := NewMSE().Calculate(solid(t, 8, 8, 0), solid(t, 8, 8, 200))
	require.NoError(t, err)
	assert.InDelta(t, 40000.0, mse, 1e-6)

	psnr, err := NewPSNR().Calculate(solid(t, 8, 8, 0), solid(t, 8, 8, 200))
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Log10(65025.0/40000), psnr, 1e-6)
}

func TestDimensionMismatch(t *testing.T) {
	_, err := NewPSNR().Calculate(solid(t, 8, 8, 0), solid(t, 4, 8, 0))
	assert.Error(t, err)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = NewSSIM().Calculate(empty, solid(t, 4, 4, 0))
	assert.Error(t, err)
}

func TestReportResamplesReference(t *testing.T) {
	e := NewEvaluator()
	clean := solid(t, 64, 64, 120)
	degraded := solid(t, 32, 32, 120)

	report, err := e.Report(clean, degraded)
	require.NoError(t, err)
	assert.Equal(t, maxPSNR, report.PSNR)
	assert.Zero(t, report.MSE)
	assert.InDelta(t, 1.0, report.SSIM, 1e-9)
}

func TestUnknownMetric(t *testing.T) {
	_, err := NewEvaluator().Calculate("f_measure", solid(t, 2, 2, 0), solid(t, 2, 2, 0))
	assert.Error(t, err)
	assert.Equal(t, []string{"mse", "psnr", "ssim"}, NewEvaluator().Names())
}

func TestDescribe(t *testing.T) {
	infos := NewEvaluator().Describe()
	require.Len(t, infos, 3)

	assert.Equal(t, "mse", infos[0].Key)
	assert.Equal(t, "MSE", infos[0].Name)
	assert.False(t, infos[0].HigherBetter)
	assert.Equal(t, 65025.0, infos[0].Max)

	assert.Equal(t, "psnr", infos[1].Key)
	assert.Equal(t, maxPSNR, infos[1].Max)
	assert.True(t, infos[1].HigherBetter)

	assert.Equal(t, "ssim", infos[2].Key)
	assert.Equal(t, -1.0, infos[2].Min)
	assert.Equal(t, "Structural Similarity Index", infos[2].Description)
}
