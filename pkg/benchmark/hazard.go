package benchmark

import (
	"fmt"
	"slices"
	"strings"
)

// Kind tags the hazard family a definition belongs to.
type Kind string

const (
	KindSafeV05 Kind = "safe-0.5"
	KindSafeV1  Kind = "safe-1.0"
)

// DefaultEvaluator is the evaluator that adds no suffix to test UIDs.
const DefaultEvaluator = "default"

var (
	safeV05Names = map[string]string{
		"cae": "Child Sexual Exploitation",
		"cbr": "Indiscriminate Weapons",
		"hat": "Hate",
		"nvc": "Non-Violent Crimes",
		"scr": "Sex-Related Crimes",
		"ssh": "Suicide & Self-Harm",
		"vcr": "Violent Crimes",
	}

	safeV1Names = map[string]string{
		"vcr": "Violent Crimes",
		"ncr": "Non-Violent Crimes",
		"src": "Sex-Related Crimes",
		"cse": "Child Sexual Exploitation",
		"dfm": "Defamation",
		"spc": "Specialized Advice",
		"prv": "Privacy",
		"ipv": "Intellectual Property",
		"iwp": "Indiscriminate Weapons (CBRNE)",
		"hte": "Hate",
		"ssh": "Suicide & Self-Harm",
		"sxc": "Sexual Content",
	}

	safeV05Codes = []string{"cae", "cbr", "hat", "nvc", "scr", "ssh", "vcr"}
	safeV1Codes  = []string{"vcr", "ncr", "src", "cse", "dfm", "spc", "prv", "ipv", "iwp", "hte", "ssh", "sxc"}
)

// SafeV05Codes returns the hazard codes of the 0.5 benchmark in order.
func SafeV05Codes() []string {
	return slices.Clone(safeV05Codes)
}

// SafeV1Codes returns the hazard codes of the 1.0 benchmark in order.
func SafeV1Codes() []string {
	return slices.Clone(safeV1Codes)
}

// Hazard is one category of harm a system is measured against.
type Hazard struct {
	Kind      Kind     `json:"kind" yaml:"kind"`
	Code      string   `json:"code" yaml:"code"`
	Locale    Locale   `json:"locale,omitempty" yaml:"locale,omitempty"`
	Evaluator string   `json:"evaluator,omitempty" yaml:"evaluator,omitempty"`
	Reference *float64 `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// NewSafeHazard returns a 0.5 hazard for code.
func NewSafeHazard(code string) (*Hazard, error) {
	code = strings.ToLower(code)
	if _, ok := safeV05Names[code]; !ok {
		return nil, fmt.Errorf("0.5 hazard %q: %w", code, ErrNotFound)
	}
	return &Hazard{Kind: KindSafeV05, Code: code}, nil
}

// NewSafeHazardV1 returns a 1.0 hazard for code in locale, judged by evaluator.
func NewSafeHazardV1(code string, locale Locale, evaluator string) (*Hazard, error) {
	code = strings.ToLower(code)
	if _, ok := safeV1Names[code]; !ok {
		return nil, fmt.Errorf("1.0 hazard %q: %w", code, ErrNotFound)
	}
	l, err := ParseLocale(string(locale))
	if err != nil {
		return nil, err
	}
	if evaluator == "" {
		evaluator = DefaultEvaluator
	}
	return &Hazard{Kind: KindSafeV1, Code: code, Locale: l, Evaluator: evaluator}, nil
}

// UID uniquely identifies the hazard.
func (h *Hazard) UID() string {
	if h.Kind == KindSafeV1 {
		return strings.Join([]string{h.Key(), strings.ToLower(h.Evaluator)}, "-")
	}
	return h.Key()
}

// Key identifies the hazard independently of the evaluator. Reference
// standards are keyed by it.
func (h *Hazard) Key() string {
	if h.Kind == KindSafeV1 {
		return fmt.Sprintf("safe_hazard-1_0-%s-%s", h.Code, h.Locale.lower())
	}
	return fmt.Sprintf("safe_%s_hazard-0_5", h.Code)
}

// Name is the human readable hazard name.
func (h *Hazard) Name() string {
	if h.Kind == KindSafeV1 {
		return safeV1Names[h.Code]
	}
	return safeV05Names[h.Code]
}

// HasReference reports whether a reference standard is known for the hazard.
func (h *Hazard) HasReference() bool {
	return h.Reference != nil
}

// ReferenceStandard is the safe response rate of the reference system, or
// 0 when none is known.
func (h *Hazard) ReferenceStandard() float64 {
	if h.Reference == nil {
		return 0
	}
	return *h.Reference
}

// CheckReference returns ErrNotFound when the hazard has no reference
// standard to be graded against.
func (h *Hazard) CheckReference() error {
	if !h.HasReference() {
		return fmt.Errorf("reference standard for %s: %w", h.Key(), ErrNotFound)
	}
	return nil
}

// Tests returns the UIDs of the tests that measure this hazard.
func (h *Hazard) Tests() []string {
	if h.Kind != KindSafeV1 {
		return []string{"safe-" + h.Code}
	}
	tests := make([]string, 0, len(PromptSets()))
	for _, ps := range PromptSets() {
		tests = append(tests, MakeTestUID(h.Code, h.Locale, ps, h.Evaluator))
	}
	return tests
}

// Equal reports whether both hazards have the same UID.
func (h *Hazard) Equal(o *Hazard) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.UID() == o.UID()
}

func (h *Hazard) String() string {
	return h.UID()
}

// MakeTestUID renders the UID of the 1.0 test for a hazard code, locale and
// prompt set. The default evaluator adds no suffix.
func MakeTestUID(code string, locale Locale, promptSet, evaluator string) string {
	var suffix string
	if evaluator != "" && evaluator != DefaultEvaluator {
		suffix = "-" + evaluator
	}
	return strings.ToLower(fmt.Sprintf("safe-%s-%s-%s-1.0%s", code, locale, promptSet, suffix))
}
