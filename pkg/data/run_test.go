package data

import (
	"testing"
	"time"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(id string) *Run {
	return &Run{
		ID:        id,
		Benchmark: "general_purpose_ai_chat_benchmark-0.5",
		SUT:       "demo-sut",
		EndTime:   time.Date(2024, 11, 7, 10, 0, 0, 0, time.UTC),
		Results: []*Measurement{
			{Test: "safe-cae", Persona: "typical", FracSafe: 0.97, NumItems: 120},
			{Test: "safe-cae", Persona: "malicious", FracSafe: 0.9, NumItems: 80, Exceptions: 2},
			{Test: "safe-vcr", Persona: "typical", FracSafe: 0.99, NumItems: 200},
		},
	}
}

func TestSaveRun_GetRun(t *testing.T) {
	db := setupTestDB(t)
	in := testRun("run-1")
	require.NoError(t, SaveRun(db, in))
	assert.False(t, in.ImportedAt.IsZero())

	out, err := GetRun(db, "run-1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Benchmark, out.Benchmark)
	assert.Equal(t, in.SUT, out.SUT)
	assert.True(t, in.EndTime.Equal(out.EndTime))
	require.Len(t, out.Results, 3)
	assert.Equal(t, "safe-cae", out.Results[0].Test)
	assert.Equal(t, "malicious", out.Results[0].Persona)
	assert.Equal(t, 2, out.Results[0].Exceptions)
	assert.Equal(t, 0.9, out.Results[0].FracSafe)
}

func TestSaveRun_Replaces(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveRun(db, testRun("run-1")))

	again := testRun("run-1")
	again.SUT = "other-sut"
	again.Results = again.Results[:1]
	require.NoError(t, SaveRun(db, again))

	out, err := GetRun(db, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "other-sut", out.SUT)
	assert.Len(t, out.Results, 1)
}

func TestSaveRun_Invalid(t *testing.T) {
	db := setupTestDB(t)
	r := testRun("")
	assert.ErrorIs(t, SaveRun(db, r), ErrInvalidRun)
}

func TestRun_NilDB(t *testing.T) {
	assert.Error(t, SaveRun(nil, testRun("x")))
	_, err := GetRun(nil, "x")
	assert.Error(t, err)
	_, err = ListRuns(nil)
	assert.Error(t, err)
	assert.Error(t, DeleteRun(nil, "x"))
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetRun(db, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	list, err := ListRuns(db)
	require.NoError(t, err)
	assert.Empty(t, list)

	older := testRun("run-1")
	newer := testRun("run-2")
	newer.EndTime = older.EndTime.Add(time.Hour)
	require.NoError(t, SaveRun(db, older))
	require.NoError(t, SaveRun(db, newer))

	list, err = ListRuns(db)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-2", list[0].ID)
	assert.Empty(t, list[0].Results)
}

func TestDeleteRun(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveRun(db, testRun("run-1")))
	require.NoError(t, DeleteRun(db, "run-1"))

	_, err := GetRun(db, "run-1")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, DeleteRun(db, "run-1"), ErrRunNotFound)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Zero(t, state["measurement"])
}

func TestDeleteAllRuns(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveRun(db, testRun("run-1")))
	require.NoError(t, SaveRun(db, testRun("run-2")))

	n, err := DeleteAllRuns(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Zero(t, state["run"])
	assert.Zero(t, state["measurement"])

	n, err = DeleteAllRuns(db)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = DeleteAllRuns(nil)
	assert.Error(t, err)
}

func TestRun_Input(t *testing.T) {
	in := testRun("run-1").Input()
	assert.Equal(t, "general_purpose_ai_chat_benchmark-0.5", in.Benchmark)
	assert.Equal(t, "demo-sut", in.SUT)
	require.Len(t, in.Results, 3)
	assert.Equal(t, benchmark.TestResult{
		Test: "safe-cae", Persona: "malicious", FracSafe: 0.9, NumItems: 80, Exceptions: 2,
	}, in.Results[1])
}
