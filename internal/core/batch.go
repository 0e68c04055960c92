package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dataset-destroyer/internal/config"
)

// Summary reports a finished batch.
type Summary struct {
	RunID     string
	Seed      uint64
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Batch runs the pipeline over many images with a bounded worker pool.
type Batch struct {
	pipeline *Pipeline
	cfg      *config.Config
	logger   *logrus.Logger
}

func NewBatch(pipeline *Pipeline, cfg *config.Config, logger *logrus.Logger) *Batch {
	return &Batch{pipeline: pipeline, cfg: cfg, logger: logger}
}

// Run processes every path. Without continue_on_error the first failure
// cancels the remaining work and is returned; with it, failures are logged
// and a *BatchError is returned at the end.
func (b *Batch) Run(ctx context.Context, paths []string) (Summary, error) {
	start := time.Now()
	summary := Summary{
		RunID: uuid.NewString(),
		Seed:  uint64(b.cfg.Main.Seed),
		Total: len(paths),
	}
	if summary.Seed == 0 {
		summary.Seed = rand.Uint64()
	}

	log := b.logger.WithField("run_id", summary.RunID)
	log.WithFields(logrus.Fields{
		"images":  summary.Total,
		"workers": b.cfg.Main.Workers,
		"seed":    summary.Seed,
		"order":   b.cfg.Main.Degradations,
	}).Info("Starting batch")

	params := b.pipeline.registry.Parameters(b.cfg.Main.Degradations)
	for _, kind := range b.cfg.Main.Degradations {
		log.WithFields(logrus.Fields{
			"kind":       kind,
			"parameters": params[kind],
		}).Debug("Operator parameters")
	}
	if b.pipeline.metricsEval != nil {
		log.WithField("metrics", b.pipeline.metricsEval.Describe()).Info("Quality metrics enabled")
	}

	var (
		done      atomic.Int64
		succeeded atomic.Int64
		failed    atomic.Int64
		mu        sync.Mutex
		firstErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Main.Workers))

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rng := ImageRNG(summary.Seed, b.relative(path))
			res, err := b.pipeline.Process(gctx, path, rng, log)
			n := done.Add(1)
			progress := fmt.Sprintf("%d/%d", n, summary.Total)

			if err != nil {
				if !b.cfg.Main.ContinueOnError || errors.Is(err, context.Canceled) {
					return err
				}
				failed.Add(1)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				log.WithError(err).WithFields(logrus.Fields{
					"path":     path,
					"progress": progress,
				}).Error("Image failed")
				return nil
			}

			entry := log.WithFields(logrus.Fields{
				"path":        path,
				"output":      res.OutputPath,
				"progress":    progress,
				"duration_ms": res.Duration.Milliseconds(),
			})
			if res.Quality != nil {
				entry = entry.WithFields(logrus.Fields{
					"psnr": res.Quality.PSNR,
					"ssim": res.Quality.SSIM,
					"mse":  res.Quality.MSE,
				})
			}
			entry.Info("Image processed")
			succeeded.Add(1)
			return nil
		})
	}

	err := g.Wait()
	summary.Failed = int(failed.Load())
	summary.Succeeded = int(succeeded.Load())
	summary.Duration = time.Since(start)

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		log.WithError(err).Error("Batch aborted")
		return summary, err
	}

	log.WithFields(logrus.Fields{
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"duration_ms": summary.Duration.Milliseconds(),
	}).Info("Batch finished")

	if summary.Failed > 0 {
		return summary, &BatchError{Failed: summary.Failed, Total: summary.Total, First: firstErr}
	}
	return summary, nil
}

func (b *Batch) relative(path string) string {
	rel, err := filepath.Rel(b.cfg.Main.InputFolder, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
