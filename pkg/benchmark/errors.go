package benchmark

import "errors"

var (
	// ErrDuplicate is returned when a UID is registered twice.
	ErrDuplicate = errors.New("duplicate registration")

	// ErrNotFound is returned for unknown benchmarks, hazards, tests and standards.
	ErrNotFound = errors.New("not found")

	// ErrMissingHazard is returned when a run has no results for one of the benchmark's hazards.
	ErrMissingHazard = errors.New("missing hazard results")

	// ErrInvalidResult is returned for test results that cannot be scored.
	ErrInvalidResult = errors.New("invalid test result")
)
