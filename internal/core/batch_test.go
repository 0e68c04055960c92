package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataset-destroyer/internal/algorithms"
	"dataset-destroyer/internal/config"
	imageio "dataset-destroyer/internal/io"
	"dataset-destroyer/internal/metrics"
)

func TestDegradationOrderIsPermutation(t *testing.T) {
	kinds := []config.DegradationKind{config.KindScale, config.KindBlur, config.KindNoise, config.KindCompression}

	for seed := uint64(0); seed < 50; seed++ {
		order := DegradationOrder(kinds, true, ImageRNG(seed, "img.png"))
		assert.ElementsMatch(t, kinds, order)
	}

	rng := ImageRNG(1, "img.png")
	for i := 0; i < 10; i++ {
		assert.Equal(t, kinds, DegradationOrder(kinds, false, rng))
	}
}

func TestDegradationOrderDoesNotAlias(t *testing.T) {
	kinds := []config.DegradationKind{config.KindBlur, config.KindNoise}
	order := DegradationOrder(kinds, false, ImageRNG(1, ""))
	order[0] = config.KindScale
	assert.Equal(t, config.KindBlur, kinds[0])
}

func TestImageRNGDependsOnSeedAndPath(t *testing.T) {
	a := ImageRNG(5, "a.png").Uint64()
	assert.Equal(t, a, ImageRNG(5, "a.png").Uint64())
	assert.NotEqual(t, a, ImageRNG(6, "a.png").Uint64())
	assert.NotEqual(t, a, ImageRNG(5, "b.png").Uint64())
}

func batchFixture(t *testing.T, names ...string) (*config.Config, []string) {
	t.Helper()
	cfg := testConfig(t, config.KindBlur, config.KindNoise, config.KindScale)
	cfg.Main.Seed = 1234
	var paths []string
	for _, name := range names {
		path := filepath.Join(cfg.Main.InputFolder, name)
		writeSolid(t, path, 32, 32, 50, 100, 150)
		paths = append(paths, path)
	}
	return cfg, paths
}

func TestBatchProcessesEveryImage(t *testing.T) {
	cfg, paths := batchFixture(t, "a.png", "b.png", filepath.Join("nested", "c.jpg"), "d.bmp")
	cfg.Main.Workers = 3
	logger := quietLogger()
	batch := NewBatch(newTestPipeline(cfg, nil), cfg, logger)

	summary, err := batch.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, uint64(1234), summary.Seed)
	assert.NotEmpty(t, summary.RunID)

	for _, rel := range []string{"a.png", "b.png", filepath.Join("nested", "c.png"), "d.png"} {
		_, err := os.Stat(filepath.Join(cfg.Main.OutputFolder, rel))
		assert.NoError(t, err, rel)
	}
}

func TestBatchIsIndependentOfWorkerCount(t *testing.T) {
	names := []string{"a.png", "b.png", "c.png", "d.png", "e.png"}

	outputs := func(workers int) map[string][]byte {
		cfg, paths := batchFixture(t, names...)
		cfg.Main.Workers = workers
		cfg.Main.Randomize = true
		cfg.Noise.Randomize = true
		_, err := NewBatch(newTestPipeline(cfg, nil), cfg, quietLogger()).Run(context.Background(), paths)
		require.NoError(t, err)

		got := map[string][]byte{}
		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(cfg.Main.OutputFolder, name))
			require.NoError(t, err)
			got[name] = data
		}
		return got
	}

	assert.Equal(t, outputs(1), outputs(4))
}

func TestBatchContinueOnError(t *testing.T) {
	cfg, paths := batchFixture(t, "a.png", "c.png")
	broken := filepath.Join(cfg.Main.InputFolder, "b.png")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))
	paths = append(paths, broken)
	cfg.Main.ContinueOnError = true

	summary, err := NewBatch(newTestPipeline(cfg, nil), cfg, quietLogger()).Run(context.Background(), paths)
	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 1, batchErr.Failed)
	assert.Equal(t, 3, batchErr.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, broken, stepErr.Path)
}

func TestBatchStopsOnFirstError(t *testing.T) {
	cfg, _ := batchFixture(t)
	broken := filepath.Join(cfg.Main.InputFolder, "broken.png")
	require.NoError(t, os.MkdirAll(cfg.Main.InputFolder, 0o755))
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	_, err := NewBatch(newTestPipeline(cfg, nil), cfg, quietLogger()).Run(context.Background(), []string{broken})
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	var batchErr *BatchError
	assert.False(t, errors.As(err, &batchErr))
}

func TestBatchRandomSeedWhenUnset(t *testing.T) {
	cfg, paths := batchFixture(t, "a.png")
	cfg.Main.Seed = 0

	summary, err := NewBatch(newTestPipeline(cfg, nil), cfg, quietLogger()).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.NotZero(t, summary.Seed)
}

func TestBatchLogsOperatorsAndMetrics(t *testing.T) {
	cfg, paths := batchFixture(t, "a.png")
	cfg.Main.Metrics = true
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	pipeline := NewPipeline(cfg, algorithms.NewRegistry(cfg, nil), imageio.NewImageLoader(logger), logger)

	_, err := NewBatch(pipeline, cfg, logger).Run(context.Background(), paths)
	require.NoError(t, err)

	var kinds []config.DegradationKind
	var described []metrics.MetricInfo
	for _, entry := range hook.AllEntries() {
		switch entry.Message {
		case "Operator parameters":
			kinds = append(kinds, entry.Data["kind"].(config.DegradationKind))
			assert.NotEmpty(t, entry.Data["parameters"])
		case "Quality metrics enabled":
			described = entry.Data["metrics"].([]metrics.MetricInfo)
		}
	}
	assert.Equal(t, cfg.Main.Degradations, kinds)
	require.Len(t, described, 3)
	assert.Equal(t, "psnr", described[1].Key)
}
