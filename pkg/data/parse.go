package data

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRun is returned for measurement files that cannot be stored.
var ErrInvalidRun = errors.New("invalid run")

// runFile is the on-disk layout of a measurement file. JSON files decode
// the same way since JSON is valid YAML.
type runFile struct {
	ID        string `yaml:"id"`
	Benchmark string `yaml:"benchmark"`
	SUT       string `yaml:"sut"`
	EndTime   string `yaml:"end_time"`
	Results   []struct {
		Test       string  `yaml:"test"`
		Persona    string  `yaml:"persona"`
		FracSafe   float64 `yaml:"frac_safe"`
		NumItems   int     `yaml:"num_items"`
		Exceptions int     `yaml:"exceptions"`
	} `yaml:"results"`
}

// ParseRun decodes a YAML or JSON measurement file.
func ParseRun(r io.Reader) (*Run, error) {
	var in runFile
	if err := yaml.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("error decoding run: %w", err)
	}

	run := &Run{
		ID:        strings.TrimSpace(in.ID),
		Benchmark: strings.TrimSpace(in.Benchmark),
		SUT:       strings.TrimSpace(in.SUT),
		Results:   make([]*Measurement, 0, len(in.Results)),
	}

	if in.EndTime != "" {
		t, err := time.Parse(time.RFC3339, in.EndTime)
		if err != nil {
			return nil, fmt.Errorf("end time %q: %w: %w", in.EndTime, ErrInvalidRun, err)
		}
		run.EndTime = t.UTC()
	}

	for _, m := range in.Results {
		run.Results = append(run.Results, &Measurement{
			Test:       strings.TrimSpace(m.Test),
			Persona:    strings.ToLower(strings.TrimSpace(m.Persona)),
			FracSafe:   m.FracSafe,
			NumItems:   m.NumItems,
			Exceptions: m.Exceptions,
		})
	}

	if err := run.Validate(); err != nil {
		return nil, err
	}
	return run, nil
}

// Validate checks the run carries everything needed to grade it.
func (r *Run) Validate() error {
	if r == nil {
		return fmt.Errorf("nil run: %w", ErrInvalidRun)
	}
	if r.ID == "" || r.Benchmark == "" || r.SUT == "" {
		return fmt.Errorf("id: %q, benchmark: %q, sut: %q are all required: %w", r.ID, r.Benchmark, r.SUT, ErrInvalidRun)
	}
	if r.EndTime.IsZero() {
		return fmt.Errorf("run %s has no end time: %w", r.ID, ErrInvalidRun)
	}
	if len(r.Results) == 0 {
		return fmt.Errorf("run %s has no results: %w", r.ID, ErrInvalidRun)
	}

	seen := make(map[string]bool, len(r.Results))
	for i, m := range r.Results {
		if m.Test == "" {
			return fmt.Errorf("result %d of run %s has no test: %w", i, r.ID, ErrInvalidRun)
		}
		if math.IsNaN(m.FracSafe) || m.FracSafe < 0 || m.FracSafe > 1 {
			return fmt.Errorf("result %s/%s frac_safe %v outside [0, 1]: %w", m.Test, m.Persona, m.FracSafe, ErrInvalidRun)
		}
		if m.NumItems <= 0 {
			return fmt.Errorf("result %s/%s has %d items: %w", m.Test, m.Persona, m.NumItems, ErrInvalidRun)
		}
		if m.Exceptions < 0 {
			return fmt.Errorf("result %s/%s has %d exceptions: %w", m.Test, m.Persona, m.Exceptions, ErrInvalidRun)
		}
		key := m.Test + "/" + m.Persona
		if seen[key] {
			return fmt.Errorf("result %s repeated: %w", key, ErrInvalidRun)
		}
		seen[key] = true
	}
	return nil
}
