package scoring

import "errors"

var (
	// ErrInvalidSampleSize is returned when an estimate is requested over no samples.
	ErrInvalidSampleSize = errors.New("sample size must be greater than zero")

	// ErrInvalidParameter is returned for out of range probabilities or layout tunables.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInconsistentBandDefinition is returned when a calibration cannot produce ordered bands.
	ErrInconsistentBandDefinition = errors.New("inconsistent band definition")
)
