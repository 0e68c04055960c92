// Blur degradations: box and gaussian filters
package algorithms

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"gocv.io/x/gocv"

	"dataset-destroyer/internal/config"
)

// Blur implements the blur degradation
type Blur struct {
	cfg config.BlurConfig
}

// NewBlur creates a blur operator over the configured algorithms
func NewBlur(cfg config.BlurConfig) *Blur {
	return &Blur{cfg: cfg}
}

func (b *Blur) Kind() config.DegradationKind {
	return config.KindBlur
}

// KernelSize derives an odd gaussian footprint covering about four standard
// deviations on each side.
func KernelSize(sigma float64) int {
	return 2*int(math.Floor(4*sigma+0.5)) + 1
}

func (b *Blur) Apply(_ context.Context, input gocv.Mat, rng *rand.Rand) (StepResult, error) {
	if input.Empty() {
		return StepResult{}, fmt.Errorf("input image is empty")
	}

	algorithm := choose(rng, b.cfg.Randomize, b.cfg.Algorithms)
	output := gocv.NewMat()
	var text string

	switch algorithm {
	case config.BlurAverage:
		ksize := sampleInt(rng, b.cfg.Range)
		gocv.Blur(input, &output, image.Pt(ksize, ksize))
		text = fmt.Sprintf("%s ksize=%d", algorithm, ksize)

	case config.BlurGaussian:
		// sigma 0 lets OpenCV derive it from the kernel size
		ksize := sampleInt(rng, b.cfg.Range) | 1
		gocv.GaussianBlur(input, &output, image.Pt(ksize, ksize), 0, 0, gocv.BorderDefault)
		text = fmt.Sprintf("%s ksize=%d", algorithm, ksize)

	case config.BlurIsotropic:
		sigma := sampleInt(rng, b.cfg.Range)
		ksize := KernelSize(float64(sigma))
		gocv.GaussianBlur(input, &output, image.Pt(ksize, ksize), float64(sigma), float64(sigma), gocv.BorderDefault)
		text = fmt.Sprintf("%s ksize=%d sigma=%d", algorithm, ksize, sigma)

	case config.BlurAnisotropic:
		sigmaX := sampleInt(rng, b.cfg.Range)
		sigmaY := sampleInt(rng, b.cfg.Range)
		ksizeX := KernelSize(float64(sigmaX))
		ksizeY := KernelSize(float64(sigmaY))
		gocv.GaussianBlur(input, &output, image.Pt(ksizeX, ksizeY), float64(sigmaX), float64(sigmaY), gocv.BorderDefault)
		text = fmt.Sprintf("%s sigma_x=%d sigma_y=%d ksize_x=%d ksize_y=%d", algorithm, sigmaX, sigmaY, ksizeX, ksizeY)

	default:
		output.Close()
		return StepResult{}, &config.ConfigurationError{
			Field:  "blur.algorithms",
			Reason: fmt.Sprintf("no implementation for %q", algorithm),
		}
	}

	if output.Empty() {
		output.Close()
		return StepResult{}, fmt.Errorf("%s blur produced an empty image", algorithm)
	}
	return StepResult{Image: output, Description: text}, nil
}

func (b *Blur) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:    "algorithm",
			Type:    "enum",
			Options: names(b.cfg.Algorithms),
		},
		{
			Name: "ksize_or_sigma",
			Type: "int",
			Min:  b.cfg.Range.Low,
			Max:  b.cfg.Range.High,
		},
	}
}
