package tck_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openomni/tck/tck"
)

func sampleReport() *tck.Report {
	return &tck.Report{Results: []tck.ClauseResult{
		{
			Contract: "kv_store",
			Clause:   "set_then_get_returns_value",
			Status:   tck.StatusPass,
			Elapsed:  1500 * time.Microsecond,
		},
		{
			Contract: "kv_store",
			Clause:   "delete_removes_key",
			Status:   tck.StatusFail,
			Reason:   `get after delete: expected absent, observed "v"`,
			Elapsed:  2 * time.Millisecond,
		},
		{
			Contract: "consumer",
			Clause:   "retry_triggers_redelivery",
			Status:   tck.StatusError,
			Cause:    "fixture factory: broker unreachable",
			Elapsed:  3 * time.Millisecond,
		},
	}}
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()
	passed, failed, errored := r.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, errored)
	assert.False(t, r.Ok())

	assert.True(t, (&tck.Report{Results: []tck.ClauseResult{{Status: tck.StatusPass}}}).Ok())
}

func TestReportResultLookup(t *testing.T) {
	r := sampleReport()
	res, ok := r.Result("kv_store", "delete_removes_key")
	require.True(t, ok)
	assert.Equal(t, tck.StatusFail, res.Status)

	_, ok = r.Result("kv_store", "no_such_clause")
	assert.False(t, ok)
}

func TestReportWriteJSONGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteJSON(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report", buf.Bytes())
}

func TestReportWriteTable(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().WriteTable(&buf)
	out := buf.String()

	assert.Contains(t, out, "CONTRACT")
	assert.Contains(t, out, "set_then_get_returns_value")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "1 passed, 1 failed, 1 errored")
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "PASS", tck.StatusPass.String())
	assert.Equal(t, "FAIL", tck.StatusFail.String())
	assert.Equal(t, "ERROR", tck.StatusError.String())

	text, err := tck.StatusFail.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "FAIL", string(text))
}
