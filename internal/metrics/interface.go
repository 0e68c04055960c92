// Quality metrics comparing a degraded image with its source
package metrics

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"
)

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed gocv.Mat) (float64, error)

	GetName() string
	GetDescription() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)

	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with psnr, ssim and mse registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register("psnr", NewPSNR())
	e.Register("ssim", NewSSIM())
	e.Register("mse", NewMSE())
	return e
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, original, processed gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll calculates all registered metrics, skipping any that fail
func (e *Evaluator) CalculateAll(original, processed gocv.Mat) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

// Names lists the registered metrics in a stable order.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QualityReport is logged per image when metrics are enabled.
type QualityReport struct {
	PSNR float64 `json:"psnr"`
	SSIM float64 `json:"ssim"`
	MSE  float64 `json:"mse"`
}

// Report compares degraded with clean. Scale steps change the resolution,
// so clean is first resampled to the degraded size with area interpolation.
func (e *Evaluator) Report(clean, degraded gocv.Mat) (QualityReport, error) {
	if clean.Empty() || degraded.Empty() {
		return QualityReport{}, fmt.Errorf("empty images")
	}

	reference := clean
	if clean.Rows() != degraded.Rows() || clean.Cols() != degraded.Cols() {
		reference = gocv.NewMat()
		defer reference.Close()
		gocv.Resize(clean, &reference, image.Pt(degraded.Cols(), degraded.Rows()), 0, 0, gocv.InterpolationArea)
		if reference.Empty() {
			return QualityReport{}, fmt.Errorf("failed to resample reference image")
		}
	}

	values := e.CalculateAll(reference, degraded)
	for _, name := range []string{"psnr", "ssim", "mse"} {
		if _, ok := values[name]; !ok {
			return QualityReport{}, fmt.Errorf("%s could not be computed", name)
		}
	}
	return QualityReport{PSNR: values["psnr"], SSIM: values["ssim"], MSE: values["mse"]}, nil
}

// MetricInfo describes a registered metric for logs.
type MetricInfo struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	HigherBetter bool    `json:"higher_better"`
}

// Describe lists the registered metrics in the order of Names.
func (e *Evaluator) Describe() []MetricInfo {
	infos := make([]MetricInfo, 0, len(e.metrics))
	for _, key := range e.Names() {
		m := e.metrics[key]
		lo, hi := m.GetRange()
		infos = append(infos, MetricInfo{
			Key:          key,
			Name:         m.GetName(),
			Description:  m.GetDescription(),
			Min:          lo,
			Max:          hi,
			HigherBetter: m.IsHigherBetter(),
		})
	}
	return infos
}
