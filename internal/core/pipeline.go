// Per-image degradation chain
package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"dataset-destroyer/internal/algorithms"
	"dataset-destroyer/internal/config"
	imageio "dataset-destroyer/internal/io"
	"dataset-destroyer/internal/metrics"
)

// Result describes one processed image.
type Result struct {
	InputPath    string
	OutputPath   string
	SourceWidth  int
	SourceHeight int
	// Steps holds "{kind} {description}" in execution order.
	Steps    []string
	Trace    []StepTrace
	Quality  *metrics.QualityReport
	Duration time.Duration
}

// Pipeline degrades single images. It holds no per-image state, so one
// Pipeline serves every worker.
type Pipeline struct {
	cfg         *config.Config
	registry    *algorithms.Registry
	loader      *imageio.ImageLoader
	metricsEval *metrics.Evaluator
	logger      *logrus.Logger
}

func NewPipeline(cfg *config.Config, registry *algorithms.Registry, loader *imageio.ImageLoader, logger *logrus.Logger) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		registry: registry,
		loader:   loader,
		logger:   logger,
	}
	if cfg.Main.Metrics {
		p.metricsEval = metrics.NewEvaluator()
	}
	return p
}

// Process loads path, applies the configured chain with rng, optionally
// annotates the result and writes it under the output root. Nothing is
// written unless every step succeeds.
func (p *Pipeline) Process(ctx context.Context, path string, rng *rand.Rand, log *logrus.Entry) (*Result, error) {
	if log == nil {
		log = logrus.NewEntry(p.logger)
	}
	log = log.WithField("path", path)
	start := time.Now()

	mat, err := p.loader.LoadImage(path)
	if err != nil {
		mat.Close()
		return nil, &StepError{Path: path, Err: err}
	}
	img, err := NewImageData(mat, p.metricsEval != nil)
	if err != nil {
		mat.Close()
		return nil, &StepError{Path: path, Err: err}
	}
	defer img.Close()

	debugger := NewPipelineDebugger(log)
	order := DegradationOrder(p.cfg.Main.Degradations, p.cfg.Main.Randomize, rng)
	steps := make([]string, 0, len(order))

	for i, kind := range order {
		if err := ctx.Err(); err != nil {
			return nil, &StepError{Path: path, Kind: kind, Err: err}
		}

		in := img.Current()
		stepStart := time.Now()
		res, err := p.registry.Apply(ctx, kind, in, rng)
		trace := StepTrace{
			Order:    i + 1,
			Kind:     kind,
			InWidth:  in.Cols(),
			InHeight: in.Rows(),
			Duration: time.Since(stepStart),
		}
		if err != nil {
			trace.Error = err.Error()
			debugger.LogStep(trace)
			return nil, &StepError{Path: path, Kind: kind, Err: err}
		}

		trace.Description = res.Description
		trace.OutWidth = res.Image.Cols()
		trace.OutHeight = res.Image.Rows()
		debugger.LogStep(trace)

		img.Replace(res.Image)
		steps = append(steps, fmt.Sprintf("%s %s", kind, res.Description))
	}

	src := img.Metadata()
	result := &Result{
		InputPath:    path,
		SourceWidth:  src.Width,
		SourceHeight: src.Height,
		Steps:        steps,
		Trace:        debugger.Steps(),
	}

	if p.metricsEval != nil {
		if clean, ok := img.Original(); ok {
			report, err := p.metricsEval.Report(clean, img.Current())
			if err != nil {
				log.WithError(err).Warn("Quality report failed")
			} else {
				result.Quality = &report
			}
		}
	}

	if p.cfg.Main.Print {
		final := img.Current()
		Annotate(&final, steps, p.cfg.Scale.SizeFactor)
	}

	outPath, err := imageio.OutputPath(p.cfg.Main.InputFolder, p.cfg.Main.OutputFolder, path, p.cfg.Main.OutputFormat)
	if err != nil {
		return nil, &StepError{Path: path, Err: err}
	}
	if err := p.loader.SaveImage(img.Current(), outPath); err != nil {
		return nil, &StepError{Path: path, Err: err}
	}

	result.OutputPath = outPath
	result.Duration = time.Since(start)
	return result, nil
}
