// Degradation operators and their dispatch table
package algorithms

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gocv.io/x/gocv"

	"dataset-destroyer/internal/codec"
	"dataset-destroyer/internal/config"
)

// Operator applies one kind of degradation. Apply never retains input and
// returns a new Mat owned by the caller.
type Operator interface {
	Kind() config.DegradationKind
	Apply(ctx context.Context, input gocv.Mat, rng *rand.Rand) (StepResult, error)
	GetParameterInfo() []ParameterInfo
}

// StepResult is the degraded image plus a short record of what was applied.
type StepResult struct {
	Image       gocv.Mat
	Description string
}

// ParameterInfo describes one sampled parameter for reporting.
type ParameterInfo struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"` // "int", "float", "string", "enum"
	Min     interface{} `json:"min,omitempty"`
	Max     interface{} `json:"max,omitempty"`
	Options []string    `json:"options,omitempty"`
}

// FrameCodec is the external video codec used by the compression operator.
type FrameCodec interface {
	RoundTrip(ctx context.Context, req codec.Request, frame []byte) ([]byte, error)
}

// Registry maps each degradation kind to its operator.
type Registry struct {
	operators map[config.DegradationKind]Operator
}

// NewRegistry builds the operator for every known kind from cfg.
func NewRegistry(cfg *config.Config, frames FrameCodec) *Registry {
	r := &Registry{operators: make(map[config.DegradationKind]Operator)}
	r.Register(NewBlur(cfg.Blur))
	r.Register(NewNoise(cfg.Noise))
	r.Register(NewCompression(cfg.Compression, frames))
	r.Register(NewScale(cfg.Scale, cfg.Main.Print))
	return r
}

func (r *Registry) Register(op Operator) {
	r.operators[op.Kind()] = op
}

func (r *Registry) Get(kind config.DegradationKind) (Operator, bool) {
	op, exists := r.operators[kind]
	return op, exists
}

// Parameters returns the sampled parameters of the operator for each of
// kinds. Unknown kinds are left out.
func (r *Registry) Parameters(kinds []config.DegradationKind) map[config.DegradationKind][]ParameterInfo {
	params := make(map[config.DegradationKind][]ParameterInfo, len(kinds))
	for _, kind := range kinds {
		if op, ok := r.Get(kind); ok {
			params[kind] = op.GetParameterInfo()
		}
	}
	return params
}

// Apply dispatches to the operator registered for kind.
func (r *Registry) Apply(ctx context.Context, kind config.DegradationKind, input gocv.Mat, rng *rand.Rand) (StepResult, error) {
	op, exists := r.operators[kind]
	if !exists {
		return StepResult{}, &config.ConfigurationError{
			Field:  "main.degradations",
			Reason: fmt.Sprintf("no operator registered for %q", kind),
		}
	}
	return op.Apply(ctx, input, rng)
}
