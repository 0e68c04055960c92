// Resolution degradations
package algorithms

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"

	"gocv.io/x/gocv"

	"dataset-destroyer/internal/config"
)

var interpolations = map[config.ScaleAlgorithm]gocv.InterpolationFlags{
	config.ScaleBicubic:  gocv.InterpolationCubic,
	config.ScaleBilinear: gocv.InterpolationLinear,
	config.ScaleBox:      gocv.InterpolationArea,
	config.ScaleNearest:  gocv.InterpolationNearestNeighbor,
	config.ScaleLanczos:  gocv.InterpolationLanczos4,
}

// Scale resizes to size_factor times the input, directly or through a
// random intermediate resolution (down_up).
type Scale struct {
	cfg      config.ScaleConfig
	annotate bool
}

// NewScale creates the scale operator. Descriptions are only built when
// annotate is set.
func NewScale(cfg config.ScaleConfig, annotate bool) *Scale {
	return &Scale{cfg: cfg, annotate: annotate}
}

func (s *Scale) Kind() config.DegradationKind {
	return config.KindScale
}

// TargetSize truncates height and width times factor to whole pixels.
func TargetSize(height, width int, factor float64) (int, int) {
	return int(float64(height) * factor), int(float64(width) * factor)
}

func (s *Scale) Apply(_ context.Context, input gocv.Mat, rng *rand.Rand) (StepResult, error) {
	if input.Empty() {
		return StepResult{}, fmt.Errorf("input image is empty")
	}

	h, w := input.Rows(), input.Cols()
	newH, newW := TargetSize(h, w, s.cfg.SizeFactor)
	if newH < 1 || newW < 1 {
		return StepResult{}, fmt.Errorf("size factor %g shrinks %dx%d to nothing", s.cfg.SizeFactor, w, h)
	}

	algorithm := choose(rng, s.cfg.Randomize, s.cfg.Algorithms)
	if algorithm == config.ScaleDownUp {
		return s.downUp(input, rng, newH, newW)
	}

	interp, ok := interpolations[algorithm]
	if !ok {
		return StepResult{}, &config.ConfigurationError{
			Field:  "scale.algorithms",
			Reason: fmt.Sprintf("no implementation for %q", algorithm),
		}
	}

	output := gocv.NewMat()
	gocv.Resize(input, &output, image.Pt(newW, newH), 0, 0, interp)
	if output.Empty() {
		output.Close()
		return StepResult{}, fmt.Errorf("%s resize produced an empty image", algorithm)
	}

	var text string
	if s.annotate {
		text = fmt.Sprintf("%s size factor=%g", algorithm, s.cfg.SizeFactor)
	}
	return StepResult{Image: output, Description: text}, nil
}

func (s *Scale) downUp(input gocv.Mat, rng *rand.Rand, newH, newW int) (StepResult, error) {
	var first, second config.ScaleAlgorithm
	if s.cfg.Randomize {
		first = choose(rng, true, s.cfg.DownUpAlgorithms)
		second = choose(rng, true, s.cfg.DownUpAlgorithms)
	} else {
		first = s.cfg.DownUpAlgorithms[0]
		second = s.cfg.DownUpAlgorithms[len(s.cfg.DownUpAlgorithms)-1]
	}
	firstInterp, ok1 := interpolations[first]
	secondInterp, ok2 := interpolations[second]
	if !ok1 || !ok2 {
		return StepResult{}, &config.ConfigurationError{
			Field:  "scale.down_up_algorithms",
			Reason: fmt.Sprintf("no implementation for %q/%q", first, second),
		}
	}

	factor := sampleFloat(rng, s.cfg.Range)
	midH, midW := TargetSize(input.Rows(), input.Cols(), factor)
	midH, midW = max(midH, 1), max(midW, 1)

	intermediate := gocv.NewMat()
	defer intermediate.Close()
	gocv.Resize(input, &intermediate, image.Pt(midW, midH), 0, 0, firstInterp)
	if intermediate.Empty() {
		return StepResult{}, fmt.Errorf("down_up first resize produced an empty image")
	}

	output := gocv.NewMat()
	gocv.Resize(intermediate, &output, image.Pt(newW, newH), 0, 0, secondInterp)
	if output.Empty() {
		output.Close()
		return StepResult{}, fmt.Errorf("down_up second resize produced an empty image")
	}

	var text string
	if s.annotate {
		text = fmt.Sprintf("%s scale1factor=%.2f scale1algorithm=%s scale2factor=%.2f scale2algorithm=%s",
			config.ScaleDownUp, factor, first, s.cfg.SizeFactor/factor, second)
	}
	return StepResult{Image: output, Description: text}, nil
}

func (s *Scale) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{Name: "algorithm", Type: "enum", Options: names(s.cfg.Algorithms)},
		{Name: "size_factor", Type: "float", Min: s.cfg.SizeFactor, Max: s.cfg.SizeFactor},
		{Name: "down_up_factor", Type: "float", Min: s.cfg.Range.Low, Max: s.cfg.Range.High},
		{Name: "down_up_algorithm", Type: "enum", Options: names(s.cfg.DownUpAlgorithms)},
	}
}
