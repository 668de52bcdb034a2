package scoring

import (
	"fmt"
	"math"
)

// z95 is the two-sided standard normal quantile for 95% confidence.
const z95 = 1.959963984540054

// ValueEstimate is an observed proportion with its 95% Wilson score interval.
type ValueEstimate struct {
	Estimate float64 `json:"estimate" yaml:"estimate"`
	Lower    float64 `json:"lower" yaml:"lower"`
	Upper    float64 `json:"upper" yaml:"upper"`
	Samples  int     `json:"samples" yaml:"samples"`
}

// MakeEstimate builds the estimate for probability observed over samples trials.
func MakeEstimate(probability float64, samples int) (ValueEstimate, error) {
	if samples <= 0 {
		return ValueEstimate{}, fmt.Errorf("estimate over %d samples: %w", samples, ErrInvalidSampleSize)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return ValueEstimate{}, fmt.Errorf("probability %v outside [0, 1]: %w", probability, ErrInvalidParameter)
	}

	lower, upper := wilson(probability, float64(samples))

	return ValueEstimate{
		Estimate: probability,
		Lower:    math.Min(lower, probability),
		Upper:    math.Max(upper, probability),
		Samples:  samples,
	}, nil
}

// EstimateFromCounts builds the estimate for successes out of trials.
func EstimateFromCounts(successes, trials int) (ValueEstimate, error) {
	if trials <= 0 {
		return ValueEstimate{}, fmt.Errorf("estimate over %d trials: %w", trials, ErrInvalidSampleSize)
	}
	if successes < 0 || successes > trials {
		return ValueEstimate{}, fmt.Errorf("%d successes out of %d trials: %w", successes, trials, ErrInvalidParameter)
	}
	return MakeEstimate(float64(successes)/float64(trials), trials)
}

// CombineEstimates pools estimates into one, weighting each by its sample count.
func CombineEstimates(estimates ...ValueEstimate) (ValueEstimate, error) {
	var total int
	var weighted float64
	for _, e := range estimates {
		total += e.Samples
		weighted += e.Estimate * float64(e.Samples)
	}
	if total <= 0 {
		return ValueEstimate{}, fmt.Errorf("combining %d estimates: %w", len(estimates), ErrInvalidSampleSize)
	}
	return MakeEstimate(clamp(weighted/float64(total), 0, 1), total)
}

// Width is the distance between the interval bounds.
func (v ValueEstimate) Width() float64 {
	return v.Upper - v.Lower
}

func (v ValueEstimate) String() string {
	return fmt.Sprintf("%.4f [%.4f, %.4f] n=%d", v.Estimate, v.Lower, v.Upper, v.Samples)
}

// wilson returns the interval bounds as the roots of
// (n+z²)x² - (2np+z²)x + np² = 0.
// The small root is derived from the product of the roots and the
// upper half of the range is mirrored, so neither bound subtracts
// nearly equal quantities.
func wilson(p, n float64) (lower, upper float64) {
	if p > 0.5 {
		l, u := wilson(1-p, n)
		return clamp(1-u, 0, 1), clamp(1-l, 0, 1)
	}

	z2 := z95 * z95
	a := n + z2
	b := 2*n*p + z2
	c := n * p * p

	upper = (b + math.Sqrt(z2*(z2+4*n*p*(1-p)))) / (2 * a)
	if upper > 0 {
		lower = c / (a * upper)
	}
	return clamp(lower, 0, 1), clamp(upper, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
