package benchmark

import (
	"fmt"
	"strings"
)

const generalPurposeClass = "general_purpose_ai_chat_benchmark"

// Benchmark is a versioned, ordered set of hazards a system is graded on.
type Benchmark struct {
	Kind      Kind
	Version   string
	Locale    Locale
	Evaluator string

	hazards []*Hazard
}

// NewGeneralPurposeAiChatBenchmark returns the 0.5 benchmark.
func NewGeneralPurposeAiChatBenchmark(standards *Standards) (*Benchmark, error) {
	b := &Benchmark{Kind: KindSafeV05, Version: "0.5"}
	for _, code := range safeV05Codes {
		h, err := NewSafeHazard(code)
		if err != nil {
			return nil, err
		}
		b.hazards = append(b.hazards, h)
	}
	if err := b.applyStandards(standards); err != nil {
		return nil, err
	}
	return b, nil
}

// NewGeneralPurposeAiChatBenchmarkV1 returns the 1.0 benchmark for a locale
// and evaluator. An empty evaluator means the default one.
func NewGeneralPurposeAiChatBenchmarkV1(locale Locale, evaluator string, standards *Standards) (*Benchmark, error) {
	if evaluator == "" {
		evaluator = DefaultEvaluator
	}
	b := &Benchmark{Kind: KindSafeV1, Version: "1.0", Evaluator: evaluator}
	for _, code := range safeV1Codes {
		h, err := NewSafeHazardV1(code, locale, evaluator)
		if err != nil {
			return nil, err
		}
		b.hazards = append(b.hazards, h)
	}
	b.Locale = b.hazards[0].Locale
	if err := b.applyStandards(standards); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Benchmark) applyStandards(s *Standards) error {
	if s == nil {
		return fmt.Errorf("standards for %s: %w", b.UID(), ErrNotFound)
	}
	s.apply(b.hazards)
	return nil
}

// Hazards returns the hazards in benchmark order.
func (b *Benchmark) Hazards() []*Hazard {
	return b.hazards
}

// UID uniquely identifies the benchmark.
func (b *Benchmark) UID() string {
	return strings.Join(b.uidParts(true), "-")
}

// Key identifies the benchmark without its evaluator, safe for use in
// file names and URLs.
func (b *Benchmark) Key() string {
	return strings.ReplaceAll(strings.Join(b.uidParts(false), "-"), ".", "_")
}

// PathName is the UID with dots replaced, safe for use in file names.
func (b *Benchmark) PathName() string {
	return strings.ReplaceAll(b.UID(), ".", "_")
}

func (b *Benchmark) uidParts(withEvaluator bool) []string {
	parts := []string{generalPurposeClass, b.Version}
	if b.Kind != KindSafeV1 {
		return parts
	}
	parts = append(parts, b.Locale.lower())
	if withEvaluator {
		parts = append(parts, strings.ToLower(b.Evaluator))
	}
	return parts
}

// Equal reports whether both benchmarks are the same kind with the same
// UID and the same hazards in the same order.
func (b *Benchmark) Equal(o *Benchmark) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Kind != o.Kind || b.UID() != o.UID() || len(b.hazards) != len(o.hazards) {
		return false
	}
	for i := range b.hazards {
		if !b.hazards[i].Equal(o.hazards[i]) {
			return false
		}
	}
	return true
}

func (b *Benchmark) String() string {
	return b.UID()
}
