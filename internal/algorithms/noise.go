// Additive noise degradations
package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gocv.io/x/gocv"

	"dataset-destroyer/internal/config"
)

// Noise implements the noise degradation.
//
// uniform and gaussian add signed noise and saturate at [0, 255]. color and
// gray first fill an 8-bit noise buffer (negative draws clip to 0) and then
// add it with uint8 wraparound, so bright pixels can roll over to dark ones.
type Noise struct {
	cfg config.NoiseConfig
}

func NewNoise(cfg config.NoiseConfig) *Noise {
	return &Noise{cfg: cfg}
}

func (n *Noise) Kind() config.DegradationKind {
	return config.KindNoise
}

func (n *Noise) Apply(_ context.Context, input gocv.Mat, rng *rand.Rand) (StepResult, error) {
	if err := ValidateImage(input); err != nil {
		return StepResult{}, err
	}

	rows, cols := input.Rows(), input.Cols()
	data := input.ToBytes()
	algorithm := choose(rng, n.cfg.Randomize, n.cfg.Algorithms)
	var text string

	switch algorithm {
	case config.NoiseUniform:
		intensity := sampleInt(rng, n.cfg.Range)
		spread := float64(intensity)
		for i := range data {
			data[i] = saturatingAdd(data[i], -spread+rng.Float64()*2*spread)
		}
		text = fmt.Sprintf("%s intensity=%d", algorithm, intensity)

	case config.NoiseGaussian:
		intensity := sampleInt(rng, n.cfg.Range)
		for i := range data {
			data[i] = saturatingAdd(data[i], rng.NormFloat64()*float64(intensity))
		}
		text = fmt.Sprintf("%s intensity=%d", algorithm, intensity)

	case config.NoiseColor:
		s := [3]int{sampleInt(rng, n.cfg.Range), sampleInt(rng, n.cfg.Range), sampleInt(rng, n.cfg.Range)}
		for i := range data {
			data[i] += normalSample(rng, float64(s[i%3]))
		}
		text = fmt.Sprintf("%s s=(%d, %d, %d)", algorithm, s[0], s[1], s[2])

	case config.NoiseGray:
		s := sampleInt(rng, n.cfg.Range)
		for px := 0; px < rows*cols; px++ {
			v := normalSample(rng, float64(s))
			data[3*px] += v
			data[3*px+1] += v
			data[3*px+2] += v
		}
		text = fmt.Sprintf("%s s=(%d,)", algorithm, s)

	default:
		return StepResult{}, &config.ConfigurationError{
			Field:  "noise.algorithms",
			Reason: fmt.Sprintf("no implementation for %q", algorithm),
		}
	}

	output, err := matFromBytes(rows, cols, data)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Image: output, Description: text}, nil
}

// saturatingAdd truncates noise toward zero and clamps the sum to a byte.
func saturatingAdd(px byte, noise float64) byte {
	return clampByte(int(px) + int(noise))
}

// normalSample is one N(0, sigma) draw stored the way an 8-bit fill stores
// it: rounded half to even, clipped to [0, 255].
func normalSample(rng *rand.Rand, sigma float64) byte {
	return clampByte(int(math.RoundToEven(rng.NormFloat64() * sigma)))
}

func clampByte(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return byte(v)
}

func (n *Noise) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{Name: "algorithm", Type: "enum", Options: names(n.cfg.Algorithms)},
		{Name: "intensity", Type: "int", Min: n.cfg.Range.Low, Max: n.cfg.Range.High},
	}
}
