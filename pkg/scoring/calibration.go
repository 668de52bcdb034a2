package scoring

import (
	"fmt"
	"math"
	"slices"
)

// Number of grade bands, also the best numeric grade.
const (
	BandCount  = 5
	BestGrade  = BandCount
	WorstGrade = 1
)

// Calibration holds the constants that shape grade bands and their layout.
type Calibration struct {
	// WorstBandRatio places the worst band boundary at this fraction of
	// the reference standard.
	WorstBandRatio float64 `json:"worst_band_ratio" yaml:"worstBandRatio"`

	// TopPoints are the fixed lower bounds of grades 3, 4 and 5.
	TopPoints []float64 `json:"top_points" yaml:"topPoints"`

	// WorstBandCarry is the share of the width added to the top bands by
	// the minimum bar width that is carried over into the worst band.
	WorstBandCarry float64 `json:"worst_band_carry" yaml:"worstBandCarry"`

	// MinDistanceToEdge is the closest a point marker may sit to either
	// end of the bar, in percent.
	MinDistanceToEdge float64 `json:"min_distance_to_edge" yaml:"minDistanceToEdge"`
}

// DefaultCalibration returns the calibration used for published grades.
func DefaultCalibration() Calibration {
	return Calibration{
		WorstBandRatio:    0.30281,
		TopPoints:         []float64{0.94, 0.96, 0.98},
		WorstBandCarry:    2.0 / 3.0,
		MinDistanceToEdge: 1.5,
	}
}

// Validate checks the calibration produces ordered bands inside [0, 1].
func (c Calibration) Validate() error {
	if math.IsNaN(c.WorstBandRatio) || c.WorstBandRatio < 0 || c.WorstBandRatio > 1 {
		return fmt.Errorf("worst band ratio %v outside [0, 1]: %w", c.WorstBandRatio, ErrInconsistentBandDefinition)
	}
	if len(c.TopPoints) != BandCount-2 {
		return fmt.Errorf("expected %d top points, got %d: %w", BandCount-2, len(c.TopPoints), ErrInconsistentBandDefinition)
	}
	prev := 0.0
	for i, p := range c.TopPoints {
		if math.IsNaN(p) || p <= prev || p >= 1 {
			return fmt.Errorf("top point %d (%v) must be in (%v, 1): %w", i, p, prev, ErrInconsistentBandDefinition)
		}
		prev = p
	}
	if math.IsNaN(c.WorstBandCarry) || c.WorstBandCarry < 0 || c.WorstBandCarry > 1 {
		return fmt.Errorf("worst band carry %v outside [0, 1]: %w", c.WorstBandCarry, ErrInconsistentBandDefinition)
	}
	if math.IsNaN(c.MinDistanceToEdge) || c.MinDistanceToEdge < 0 || c.MinDistanceToEdge >= 50 {
		return fmt.Errorf("min distance to edge %v outside [0, 50): %w", c.MinDistanceToEdge, ErrInconsistentBandDefinition)
	}
	return nil
}

// Clone returns a copy that shares no memory with c.
func (c Calibration) Clone() Calibration {
	c.TopPoints = slices.Clone(c.TopPoints)
	return c
}

// GradePoints returns the six band boundaries for a hazard with the given
// reference standard. The first is always 0 and the last always 1. Only
// the worst band boundary moves with the reference.
func (c Calibration) GradePoints(reference float64) []float64 {
	top := c.TopPoints[0]
	worst := clamp(c.WorstBandRatio*reference, 0, top)

	points := make([]float64, 0, BandCount+1)
	points = append(points, 0, worst)
	points = append(points, c.TopPoints...)
	return append(points, 1)
}

// NumericGrade returns the grade, 1 (worst) through 5 (best), of a
// probability for a hazard with the given reference standard.
func (c Calibration) NumericGrade(probability, reference float64) int {
	return gradeIndex(c.GradePoints(reference), clamp(probability, 0, 1)) + 1
}

// GradePoints returns the band boundaries under the default calibration.
func GradePoints(reference float64) []float64 {
	return DefaultCalibration().GradePoints(reference)
}

// NumericGrade grades a probability under the default calibration.
func NumericGrade(probability, reference float64) int {
	return DefaultCalibration().NumericGrade(probability, reference)
}

// gradeIndex finds the zero based band holding p. Bands are half-open
// [lo, hi) except the last, so a value on a boundary lands in the better
// band and empty bands are never picked.
func gradeIndex(points []float64, p float64) int {
	for i := 0; i < len(points)-2; i++ {
		if p >= points[i] && p < points[i+1] {
			return i
		}
	}
	return len(points) - 2
}
