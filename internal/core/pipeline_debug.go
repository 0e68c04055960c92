// Per-step tracing of a pipeline run
package core

import (
	"time"

	"github.com/sirupsen/logrus"

	"dataset-destroyer/internal/config"
)

// StepTrace records one executed degradation.
type StepTrace struct {
	Order       int
	Kind        config.DegradationKind
	Description string
	InWidth     int
	InHeight    int
	OutWidth    int
	OutHeight   int
	Duration    time.Duration
	Error       string
}

// PipelineDebugger collects step traces for one image and mirrors them to
// the debug log.
type PipelineDebugger struct {
	logger *logrus.Entry
	steps  []StepTrace
}

func NewPipelineDebugger(logger *logrus.Entry) *PipelineDebugger {
	return &PipelineDebugger{
		logger: logger,
		steps:  make([]StepTrace, 0, len(config.Kinds)),
	}
}

// LogStep stores a trace and logs it at debug level.
func (pd *PipelineDebugger) LogStep(trace StepTrace) {
	pd.steps = append(pd.steps, trace)

	fields := logrus.Fields{
		"order":       trace.Order,
		"kind":        trace.Kind,
		"description": trace.Description,
		"in":          dims(trace.InWidth, trace.InHeight),
		"out":         dims(trace.OutWidth, trace.OutHeight),
		"duration_ms": trace.Duration.Milliseconds(),
	}
	if trace.Error != "" {
		fields["error"] = trace.Error
		pd.logger.WithFields(fields).Debug("Step failed")
		return
	}
	pd.logger.WithFields(fields).Debug("Step applied")
}

// Steps returns the traces recorded so far.
func (pd *PipelineDebugger) Steps() []StepTrace {
	return pd.steps
}

func dims(w, h int) [2]int {
	return [2]int{w, h}
}
