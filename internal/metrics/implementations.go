package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// maxPSNR caps the score of identical images.
const maxPSNR = 100.0

// PSNR implements Peak Signal-to-Noise Ratio over 8-bit grayscale
type PSNR struct{}

func NewPSNR() *PSNR { return &PSNR{} }

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	mse, err := meanSquaredError(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return maxPSNR, nil
	}
	return math.Min(maxPSNR, 10*math.Log10(255*255/mse)), nil
}

func (p *PSNR) GetName() string              { return "PSNR" }
func (p *PSNR) GetDescription() string       { return "Peak Signal-to-Noise Ratio" }
func (p *PSNR) GetRange() (float64, float64) { return 0, maxPSNR }
func (p *PSNR) IsHigherBetter() bool         { return true }

// SSIM computes a global (single window) structural similarity index
type SSIM struct{}

func NewSSIM() *SSIM { return &SSIM{} }

func (s *SSIM) Calculate(original, processed gocv.Mat) (float64, error) {
	f1, f2, err := floatPair(original, processed)
	if err != nil {
		return 0, err
	}
	defer f1.Close()
	defer f2.Close()

	// (0.01*255)^2 and (0.03*255)^2
	const c1, c2 = 6.5025, 58.5225

	mu1 := f1.Mean().Val1
	mu2 := f2.Mean().Val1

	f1Sq, f2Sq, f1f2 := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer f1Sq.Close()
	defer f2Sq.Close()
	defer f1f2.Close()
	gocv.Multiply(f1, f1, &f1Sq)
	gocv.Multiply(f2, f2, &f2Sq)
	gocv.Multiply(f1, f2, &f1f2)

	sigma1Sq := f1Sq.Mean().Val1 - mu1*mu1
	sigma2Sq := f2Sq.Mean().Val1 - mu2*mu2
	sigma12 := f1f2.Mean().Val1 - mu1*mu2

	num := (2*mu1*mu2 + c1) * (2*sigma12 + c2)
	den := (mu1*mu1 + mu2*mu2 + c1) * (sigma1Sq + sigma2Sq + c2)
	if den == 0 {
		return 1.0, nil
	}
	return num / den, nil
}

func (s *SSIM) GetName() string              { return "SSIM" }
func (s *SSIM) GetDescription() string       { return "Structural Similarity Index" }
func (s *SSIM) GetRange() (float64, float64) { return -1, 1 }
func (s *SSIM) IsHigherBetter() bool         { return true }

// MSE is the mean squared grayscale difference
type MSE struct{}

func NewMSE() *MSE { return &MSE{} }

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	return meanSquaredError(original, processed)
}

func (m *MSE) GetName() string              { return "MSE" }
func (m *MSE) GetDescription() string       { return "Mean Squared Error" }
func (m *MSE) GetRange() (float64, float64) { return 0, 65025 }
func (m *MSE) IsHigherBetter() bool         { return false }

func meanSquaredError(original, processed gocv.Mat) (float64, error) {
	f1, f2, err := floatPair(original, processed)
	if err != nil {
		return 0, err
	}
	defer f1.Close()
	defer f2.Close()

	// squaring in float avoids the 8-bit saturation of uchar Multiply
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(f1, f2, &diff)

	diffSq := gocv.NewMat()
	defer diffSq.Close()
	gocv.Multiply(diff, diff, &diffSq)

	return diffSq.Mean().Val1, nil
}

// floatPair validates two same-sized images and returns them as 32-bit
// float grayscale. The caller closes both results.
func floatPair(original, processed gocv.Mat) (gocv.Mat, gocv.Mat, error) {
	if original.Empty() || processed.Empty() {
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("empty images")
	}
	if original.Rows() != processed.Rows() || original.Cols() != processed.Cols() {
		return gocv.NewMat(), gocv.NewMat(), fmt.Errorf("dimension mismatch: %dx%d vs %dx%d",
			original.Cols(), original.Rows(), processed.Cols(), processed.Rows())
	}
	return toFloatGray(original), toFloatGray(processed), nil
}

func toFloatGray(m gocv.Mat) gocv.Mat {
	gray := m
	if m.Channels() != 1 {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)
	}
	f := gocv.NewMat()
	gray.ConvertTo(&f, gocv.MatTypeCV32F)
	return f
}
