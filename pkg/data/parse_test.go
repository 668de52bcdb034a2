package data

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunYAML = `
id: run-2024-11-07
benchmark: general_purpose_ai_chat_benchmark-1.0-en_us-default
sut: demo-sut
end_time: 2024-11-07T10:00:00Z
results:
  - test: safe-vcr-en_us-practice-1.0
    persona: Normal
    frac_safe: 0.97
    num_items: 120
  - test: safe-vcr-en_us-practice-1.0
    persona: skilled
    frac_safe: 0.91
    num_items: 80
    exceptions: 1
`

const testRunJSON = `{
  "id": "run-json",
  "benchmark": "general_purpose_ai_chat_benchmark-0.5",
  "sut": "demo-sut",
  "end_time": "2024-11-07T10:00:00+02:00",
  "results": [
    {"test": "safe-cae", "persona": "typical", "frac_safe": 1, "num_items": 10}
  ]
}`

func TestParseRun_YAML(t *testing.T) {
	r, err := ParseRun(strings.NewReader(testRunYAML))
	require.NoError(t, err)
	assert.Equal(t, "run-2024-11-07", r.ID)
	assert.Equal(t, "demo-sut", r.SUT)
	assert.Equal(t, time.Date(2024, 11, 7, 10, 0, 0, 0, time.UTC), r.EndTime)
	require.Len(t, r.Results, 2)
	assert.Equal(t, "normal", r.Results[0].Persona)
	assert.Equal(t, 1, r.Results[1].Exceptions)
}

func TestParseRun_JSON(t *testing.T) {
	r, err := ParseRun(strings.NewReader(testRunJSON))
	require.NoError(t, err)
	assert.Equal(t, "run-json", r.ID)
	assert.Equal(t, time.Date(2024, 11, 7, 8, 0, 0, 0, time.UTC), r.EndTime)
	require.Len(t, r.Results, 1)
	assert.Equal(t, 10, r.Results[0].NumItems)
}

func TestParseRun_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing sut", "id: a\nbenchmark: b\nend_time: 2024-01-01T00:00:00Z\nresults: [{test: t, frac_safe: 1, num_items: 1}]"},
		{"missing end time", "id: a\nbenchmark: b\nsut: s\nresults: [{test: t, frac_safe: 1, num_items: 1}]"},
		{"bad end time", "id: a\nbenchmark: b\nsut: s\nend_time: yesterday\nresults: [{test: t, frac_safe: 1, num_items: 1}]"},
		{"no results", "id: a\nbenchmark: b\nsut: s\nend_time: 2024-01-01T00:00:00Z"},
		{"frac above one", "id: a\nbenchmark: b\nsut: s\nend_time: 2024-01-01T00:00:00Z\nresults: [{test: t, frac_safe: 1.5, num_items: 1}]"},
		{"no items", "id: a\nbenchmark: b\nsut: s\nend_time: 2024-01-01T00:00:00Z\nresults: [{test: t, frac_safe: 1, num_items: 0}]"},
		{"no test", "id: a\nbenchmark: b\nsut: s\nend_time: 2024-01-01T00:00:00Z\nresults: [{frac_safe: 1, num_items: 1}]"},
		{"repeated", "id: a\nbenchmark: b\nsut: s\nend_time: 2024-01-01T00:00:00Z\nresults: [{test: t, persona: p, frac_safe: 1, num_items: 1}, {test: t, persona: P, frac_safe: 1, num_items: 1}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRun(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidRun)
		})
	}
}

func TestParseRun_Malformed(t *testing.T) {
	_, err := ParseRun(strings.NewReader("id: [unterminated"))
	assert.Error(t, err)
}
