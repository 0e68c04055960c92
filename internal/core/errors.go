package core

import (
	"fmt"

	"dataset-destroyer/internal/config"
)

// StepError attributes a failure to one input image and, when it happened
// inside the chain, to the degradation kind that was running.
type StepError struct {
	Path string
	Kind config.DegradationKind
	Err  error
}

func (e *StepError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Path, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// BatchError summarises a run that kept going past failed images.
type BatchError struct {
	Failed int
	Total  int
	First  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d images failed; first: %v", e.Failed, e.Total, e.First)
}

func (e *BatchError) Unwrap() error {
	return e.First
}
