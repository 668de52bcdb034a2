package scoring

import (
	"fmt"
	"math"
)

const (
	// DefaultLowestBarPercent leaves the worst band uncompressed.
	DefaultLowestBarPercent = 1.0

	// DefaultMinBarWidth applies no floor to band widths.
	DefaultMinBarWidth = 0.0

	// maxBandFloor is the largest floor every band can honor at once.
	// Wider floors saturate here.
	maxBandFloor = 1.0 / BandCount

	// Bar is drawn on [0, barPercent].
	barPercent = 100.0

	// Band edges snap to 1/gridResolution of a percent so widths sum to
	// exactly barPercent.
	gridResolution = 1024
)

// Band is one grade band on the bar, in percent.
type Band struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Width returns the rendered width of the band.
func (b Band) Width() float64 {
	return b.End - b.Start
}

// ErrorBar is the rendered confidence interval, in percent.
type ErrorBar struct {
	Start float64 `json:"start" yaml:"start"`
	Width float64 `json:"width" yaml:"width"`
}

// Layout is everything a renderer needs to draw one hazard's grade bar.
type Layout struct {
	GradePoints   []float64 `json:"grade_points" yaml:"gradePoints"`
	GradeBands    []Band    `json:"grade_bands" yaml:"gradeBands"`
	PointPosition float64   `json:"point_position" yaml:"pointPosition"`
	ErrorBar      ErrorBar  `json:"error_bar" yaml:"errorBar"`
}

// Option customizes Positions.
type Option func(*Positions)

// WithCalibration replaces the default calibration.
func WithCalibration(c Calibration) Option {
	return func(p *Positions) {
		p.cal = c.Clone()
	}
}

// Positions maps probabilities onto a 0-100 percent bar split into grade
// bands. The worst band is usually far wider than the others in
// probability space, so it is compressed by lowestBarPercent, while
// minBarWidth keeps narrow bands visible.
type Positions struct {
	lowestBarPercent float64
	minBarWidth      float64
	cal              Calibration
}

// NewPositions returns a layout engine for the given tunables.
func NewPositions(lowestBarPercent, minBarWidth float64, opts ...Option) (*Positions, error) {
	if math.IsNaN(lowestBarPercent) || lowestBarPercent <= 0 || lowestBarPercent > 1 {
		return nil, fmt.Errorf("lowest bar percent %v outside (0, 1]: %w", lowestBarPercent, ErrInvalidParameter)
	}
	if math.IsNaN(minBarWidth) || minBarWidth < 0 {
		return nil, fmt.Errorf("min bar width %v must not be negative: %w", minBarWidth, ErrInvalidParameter)
	}

	p := &Positions{
		lowestBarPercent: lowestBarPercent,
		minBarWidth:      minBarWidth,
		cal:              DefaultCalibration(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.cal.Validate(); err != nil {
		return nil, fmt.Errorf("validating calibration: %w", err)
	}
	return p, nil
}

// LowestBarPercent returns the worst band compression factor.
func (p *Positions) LowestBarPercent() float64 {
	return p.lowestBarPercent
}

// MinBarWidth returns the band width floor.
func (p *Positions) MinBarWidth() float64 {
	return p.minBarWidth
}

// Calibration returns a copy of the calibration bands are derived from.
func (p *Positions) Calibration() Calibration {
	return p.cal.Clone()
}

// GradeBands returns the five contiguous bands covering [0, 100].
func (p *Positions) GradeBands(reference float64) []Band {
	_, edges := p.edges(reference)
	bands := make([]Band, BandCount)
	for i := range bands {
		bands[i] = Band{Start: edges[i], End: edges[i+1]}
	}
	return bands
}

// PointPosition returns where the estimate's marker is drawn. The marker
// keeps MinDistanceToEdge away from both ends of the bar but never leaves
// the band of its grade.
func (p *Positions) PointPosition(est ValueEstimate, reference float64) float64 {
	points, edges := p.edges(reference)
	pos, band := mapToBar(points, edges, est.Estimate)

	d := p.cal.MinDistanceToEdge
	pos = clamp(pos, d, barPercent-d)
	return clamp(pos, edges[band], edges[band+1])
}

// ErrorBar returns the rendered confidence interval of the estimate.
func (p *Positions) ErrorBar(est ValueEstimate, reference float64) ErrorBar {
	points, edges := p.edges(reference)
	lower, _ := mapToBar(points, edges, est.Lower)
	upper, _ := mapToBar(points, edges, est.Upper)
	return ErrorBar{
		Start: lower,
		Width: math.Max(0, upper-lower),
	}
}

// Layout computes the bands, marker and error bar in one go.
func (p *Positions) Layout(est ValueEstimate, reference float64) Layout {
	return Layout{
		GradePoints:   p.cal.GradePoints(reference),
		GradeBands:    p.GradeBands(reference),
		PointPosition: p.PointPosition(est, reference),
		ErrorBar:      p.ErrorBar(est, reference),
	}
}

// edges returns the grade points and the matching band edges in percent.
//
// The worst band gets lowestBarPercent of its natural width plus
// WorstBandCarry of whatever the floor added to the top bands. It never
// drops below the floor and never passes the second grade point, so it
// only grows as the floor grows. The three top bands are drawn at their
// natural width or the floor, whichever is larger, measured back from
// the end of the bar. When that leaves no room they give back their
// extra width first, and band 2 takes what is left.
func (p *Positions) edges(reference float64) (points, edges []float64) {
	points = p.cal.GradePoints(reference)
	floor := math.Min(p.minBarWidth, maxBandFloor)

	natural := make([]float64, BandCount)
	width := make([]float64, BandCount)
	var naturalTop, excess float64
	for i := 2; i < BandCount; i++ {
		natural[i] = points[i+1] - points[i]
		width[i] = math.Max(natural[i], floor)
		naturalTop += natural[i]
		excess += width[i] - natural[i]
	}

	first := p.lowestBarPercent*points[1] + p.cal.WorstBandCarry*excess
	first = math.Max(first, floor)
	first = math.Min(first, points[2])

	if room := 1 - first - naturalTop; excess > 0 && excess > room {
		keep := math.Max(room, 0) / excess
		for i := 2; i < BandCount; i++ {
			width[i] = natural[i] + (width[i]-natural[i])*keep
		}
	}

	frac := make([]float64, BandCount+1)
	frac[1] = first
	frac[BandCount] = 1
	for i := BandCount - 1; i >= 2; i-- {
		frac[i] = frac[i+1] - width[i]
	}

	edges = make([]float64, BandCount+1)
	edges[BandCount] = barPercent
	for i := 1; i < BandCount; i++ {
		edges[i] = snap(frac[i] * barPercent)
	}
	return points, edges
}

// mapToBar linearly maps a probability inside its band onto the band's
// percent range and returns the position and zero based band index.
func mapToBar(points, edges []float64, probability float64) (float64, int) {
	probability = clamp(probability, 0, 1)
	band := gradeIndex(points, probability)

	lo, hi := points[band], points[band+1]
	if hi <= lo {
		return edges[band], band
	}
	return edges[band] + (probability-lo)/(hi-lo)*(edges[band+1]-edges[band]), band
}

func snap(v float64) float64 {
	return math.Round(v*gridResolution) / gridResolution
}
