package algorithms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataset-destroyer/internal/config"
)

func TestRegistryHasEveryKind(t *testing.T) {
	r := NewRegistry(config.Default(), nil)
	for _, kind := range config.Kinds {
		op, ok := r.Get(kind)
		require.True(t, ok, "missing %s", kind)
		assert.Equal(t, kind, op.Kind())
		assert.NotEmpty(t, op.GetParameterInfo())
	}
}

func TestRegistryParameters(t *testing.T) {
	cfg := config.Default()
	cfg.Blur.Range = config.IntRange{Low: 2, High: 7}
	r := NewRegistry(cfg, nil)

	params := r.Parameters([]config.DegradationKind{config.KindBlur, "sharpen"})
	require.Len(t, params, 1)
	blur := params[config.KindBlur]
	require.Len(t, blur, 2)
	assert.Equal(t, "algorithm", blur[0].Name)
	assert.Equal(t, []string{"average", "gaussian", "isotropic", "anisotropic"}, blur[0].Options)
	assert.Equal(t, 2, blur[1].Min)
	assert.Equal(t, 7, blur[1].Max)
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry(config.Default(), nil)
	input := solidImage(t, 4, 4, 0, 0, 0)

	_, err := r.Apply(context.Background(), config.DegradationKind("sharpen"), input, newRNG(40))
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "main.degradations", cfgErr.Field)
}

func TestSampleIntIncludesBothBounds(t *testing.T) {
	rng := newRNG(41)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := sampleInt(rng, config.IntRange{Low: 2, High: 4})
		require.GreaterOrEqual(t, v, 2)
		require.LessOrEqual(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
}

func TestChooseWithoutRandomizeTakesFirst(t *testing.T) {
	rng := newRNG(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, "a", choose(rng, false, []string{"a", "b", "c"}))
	}
}
