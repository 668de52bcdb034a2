package benchmark

import (
	"fmt"
	"strings"
)

// Locale is a language and region prompts are written for.
type Locale string

const (
	LocaleEnUS Locale = "en_US"
	LocaleFrFR Locale = "fr_FR"
	LocaleZhCN Locale = "zh_CN"
	LocaleHiIN Locale = "hi_IN"
)

// Locales lists every supported locale.
func Locales() []Locale {
	return []Locale{LocaleEnUS, LocaleFrFR, LocaleZhCN, LocaleHiIN}
}

// ParseLocale resolves s to a supported locale ignoring case.
func ParseLocale(s string) (Locale, error) {
	for _, l := range Locales() {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("locale %q: %w", s, ErrNotFound)
}

func (l Locale) lower() string {
	return strings.ToLower(string(l))
}

// Persona is the kind of user a prompt was written to imitate.
type Persona string

const (
	PersonaNormal    Persona = "normal"
	PersonaSkilled   Persona = "skilled"
	PersonaUnskilled Persona = "unskilled"
)

// Personas lists every persona used by the 1.0 tests.
func Personas() []Persona {
	return []Persona{PersonaNormal, PersonaSkilled, PersonaUnskilled}
}

// ParsePersona resolves s to a persona ignoring case.
func ParsePersona(s string) (Persona, error) {
	for _, p := range Personas() {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("persona %q: %w", s, ErrNotFound)
}

// Prompt sets a 1.0 test can be run against.
const (
	PromptSetPractice = "practice"
	PromptSetOfficial = "official"
)

// PromptSets lists the 1.0 prompt sets.
func PromptSets() []string {
	return []string{PromptSetPractice, PromptSetOfficial}
}
