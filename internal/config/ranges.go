package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IntRange is an inclusive integer range written as [low, high].
type IntRange struct {
	Low  int
	High int
}

// FloatRange is a half-open float range [low, high) written as [low, high].
type FloatRange struct {
	Low  float64
	High float64
}

func (r *IntRange) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		// yaml.v3 truncates floats decoded into int
		for _, elem := range value.Content {
			if elem.Kind != yaml.ScalarNode || elem.ShortTag() != "!!int" {
				return fmt.Errorf("line %d: range element %q is not an integer", elem.Line, elem.Value)
			}
		}
	}
	var pair []int
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("line %d: range must be a list of two integers: %w", value.Line, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("line %d: range must have exactly two elements, got %d", value.Line, len(pair))
	}
	r.Low, r.High = pair[0], pair[1]
	return nil
}

func (r IntRange) MarshalYAML() (interface{}, error) {
	return []int{r.Low, r.High}, nil
}

func (r *FloatRange) UnmarshalYAML(value *yaml.Node) error {
	var pair []float64
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("line %d: range must be a list of two numbers: %w", value.Line, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("line %d: range must have exactly two elements, got %d", value.Line, len(pair))
	}
	r.Low, r.High = pair[0], pair[1]
	return nil
}

func (r FloatRange) MarshalYAML() (interface{}, error) {
	return []float64{r.Low, r.High}, nil
}

func (r IntRange) String() string {
	return fmt.Sprintf("(%d, %d)", r.Low, r.High)
}

func (r FloatRange) String() string {
	return fmt.Sprintf("(%g, %g)", r.Low, r.High)
}
