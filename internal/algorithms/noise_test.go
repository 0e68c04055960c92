package algorithms

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataset-destroyer/internal/config"
)

func noiseOp(algorithm config.NoiseAlgorithm, low, high int) *Noise {
	return NewNoise(config.NoiseConfig{
		Algorithms: []config.NoiseAlgorithm{algorithm},
		Range:      config.IntRange{Low: low, High: high},
	})
}

func TestNoisePreservesShape(t *testing.T) {
	input := gradientImage(t, 33, 47)
	for _, algorithm := range []config.NoiseAlgorithm{
		config.NoiseUniform, config.NoiseGaussian, config.NoiseColor, config.NoiseGray,
	} {
		t.Run(string(algorithm), func(t *testing.T) {
			res, err := noiseOp(algorithm, 5, 15).Apply(context.Background(), input, newRNG(10))
			require.NoError(t, err)
			closeResult(t, res)

			assert.Equal(t, input.Rows(), res.Image.Rows())
			assert.Equal(t, input.Cols(), res.Image.Cols())
			assert.Equal(t, input.Type(), res.Image.Type())
			assert.NotEmpty(t, res.Description)
		})
	}
}

func TestSaturatingNoiseNeverWraps(t *testing.T) {
	white := solidImage(t, 64, 64, 255, 255, 255)
	black := solidImage(t, 64, 64, 0, 0, 0)

	res, err := noiseOp(config.NoiseUniform, 10, 10).Apply(context.Background(), white, newRNG(11))
	require.NoError(t, err)
	closeResult(t, res)
	for _, v := range res.Image.ToBytes() {
		require.GreaterOrEqual(t, v, byte(245))
	}

	res, err = noiseOp(config.NoiseGaussian, 10, 10).Apply(context.Background(), white, newRNG(12))
	require.NoError(t, err)
	closeResult(t, res)
	for _, v := range res.Image.ToBytes() {
		require.GreaterOrEqual(t, v, byte(128))
	}

	res, err = noiseOp(config.NoiseGaussian, 10, 10).Apply(context.Background(), black, newRNG(13))
	require.NoError(t, err)
	closeResult(t, res)
	for _, v := range res.Image.ToBytes() {
		require.LessOrEqual(t, v, byte(127))
	}
}

func TestColorAndGrayNoiseWrapAround(t *testing.T) {
	white := solidImage(t, 64, 64, 255, 255, 255)

	for _, algorithm := range []config.NoiseAlgorithm{config.NoiseColor, config.NoiseGray} {
		t.Run(string(algorithm), func(t *testing.T) {
			res, err := noiseOp(algorithm, 10, 10).Apply(context.Background(), white, newRNG(14))
			require.NoError(t, err)
			closeResult(t, res)

			// saturating arithmetic would keep every pixel at 255
			wrapped := 0
			for _, v := range res.Image.ToBytes() {
				if v < 128 {
					wrapped++
				}
			}
			assert.Positive(t, wrapped)
		})
	}
}

func TestGrayNoiseIsSharedAcrossChannels(t *testing.T) {
	input := solidImage(t, 16, 16, 40, 40, 40)
	res, err := noiseOp(config.NoiseGray, 20, 20).Apply(context.Background(), input, newRNG(15))
	require.NoError(t, err)
	closeResult(t, res)

	assert.Equal(t, "gray s=(20,)", res.Description)
	data := res.Image.ToBytes()
	for px := 0; px < len(data); px += 3 {
		require.Equal(t, data[px], data[px+1])
		require.Equal(t, data[px], data[px+2])
	}
}

func TestNoiseIsReproducibleForASeed(t *testing.T) {
	input := gradientImage(t, 24, 24)
	op := NewNoise(config.Default().Noise)
	op.cfg.Randomize = true

	first, err := op.Apply(context.Background(), input, newRNG(16))
	require.NoError(t, err)
	closeResult(t, first)
	second, err := op.Apply(context.Background(), input, newRNG(16))
	require.NoError(t, err)
	closeResult(t, second)

	assert.Equal(t, first.Description, second.Description)
	assert.True(t, bytes.Equal(first.Image.ToBytes(), second.Image.ToBytes()))
}

func TestNoiseHelpers(t *testing.T) {
	assert.Equal(t, byte(255), saturatingAdd(250, 9.9))
	assert.Equal(t, byte(0), saturatingAdd(3, -7.5))
	assert.Equal(t, byte(102), saturatingAdd(100, 2.7))
	assert.Equal(t, byte(98), saturatingAdd(100, -2.7))

	rng := newRNG(17)
	for i := 0; i < 1000; i++ {
		// zero sigma never adds anything
		require.Equal(t, byte(0), normalSample(rng, 0))
	}
}
