package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TransformTable maps an object identifier to its placement.
type TransformTable map[string]Transform

type Transform struct {
	Position []float64 `yaml:"position"`

	// Rotation holds either three Euler angles in degrees (XYZ order) or a
	// quaternion written as [x, y, z, w].
	Rotation []float64 `yaml:"rotation,omitempty"`

	Scale Scale `yaml:"scale,omitempty"`
}

// Scale is either a single uniform factor or one factor per axis.
type Scale []float64

func (s *Scale) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var factor float64
		if err := value.Decode(&factor); err != nil {
			return err
		}
		*s = Scale{factor}
		return nil
	case yaml.SequenceNode:
		var factors []float64
		if err := value.Decode(&factors); err != nil {
			return err
		}
		*s = factors
		return nil
	default:
		return fmt.Errorf("line %d: scale must be a number or a list", value.Line)
	}
}

// Validate checks the number of values in every field and rejects a
// zero-length quaternion.
func (t Transform) Validate() error {
	if len(t.Position) != 3 {
		return fmt.Errorf("position needs 3 values, got %d", len(t.Position))
	}
	switch len(t.Rotation) {
	case 0, 3:
	case 4:
		if t.Rotation[0] == 0 && t.Rotation[1] == 0 && t.Rotation[2] == 0 && t.Rotation[3] == 0 {
			return errors.New("rotation quaternion has zero length")
		}
	default:
		return fmt.Errorf("rotation needs 3 (euler) or 4 (quaternion) values, got %d", len(t.Rotation))
	}
	switch len(t.Scale) {
	case 0, 1, 3:
	default:
		return fmt.Errorf("scale needs 1 or 3 values, got %d", len(t.Scale))
	}
	return nil
}

// ParseTransforms decodes and checks a transform table document.
func ParseTransforms(data []byte) (TransformTable, error) {
	var table TransformTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode transforms: %w", err)
	}
	for id, transform := range table {
		if err := transform.Validate(); err != nil {
			return nil, fmt.Errorf("transform %q: %w", id, err)
		}
	}
	return table, nil
}
