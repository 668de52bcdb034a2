package benchmark

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

//go:embed standards.yaml
var defaultStandards []byte

// Standards holds the reference safe response rate of each hazard.
type Standards struct {
	References map[string]float64 `yaml:"reference_standards"`
}

// DefaultStandards returns the reference standards shipped with the tool.
func DefaultStandards() (*Standards, error) {
	return LoadStandards(bytes.NewReader(defaultStandards))
}

// LoadStandards parses a YAML (or JSON) standards document.
func LoadStandards(r io.Reader) (*Standards, error) {
	var s Standards
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding reference standards: %w", err)
	}
	if len(s.References) == 0 {
		return nil, fmt.Errorf("reference standards: %w", ErrNotFound)
	}
	for k, v := range s.References {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, fmt.Errorf("reference standard %s=%v outside [0, 1]: %w", k, v, ErrInvalidResult)
		}
	}
	return &s, nil
}

// Reference returns the reference standard for a hazard key.
func (s *Standards) Reference(key string) (float64, error) {
	v, ok := s.References[key]
	if !ok {
		return 0, fmt.Errorf("reference standard for %s: %w", key, ErrNotFound)
	}
	return v, nil
}

// apply sets the reference standard of every hazard the standards know.
// Hazards without one stay unset and fail when graded.
func (s *Standards) apply(hazards []*Hazard) {
	for _, h := range hazards {
		if ref, ok := s.References[h.Key()]; ok {
			h.Reference = &ref
		}
	}
}
