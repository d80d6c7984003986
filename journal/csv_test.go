package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRecordAndList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	first := sampleRecord("confirmed")
	second := sampleRecord("timed_out")
	second.Item = "Gadget"
	second.TxID = ""

	require.NoError(t, j.RecordSubmission(first))
	require.NoError(t, j.RecordSubmission(second))

	recs, err := j.ListSubmissions(0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, second.AttemptID, recs[0].AttemptID)
	assert.Equal(t, "timed_out", recs[0].State)
	assert.Equal(t, first.AttemptID, recs[1].AttemptID)
	assert.True(t, recs[1].SubmittedAt.Equal(first.SubmittedAt))

	require.NoError(t, j.Close())
}

func TestCSVAppendsAcrossReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordSubmission(sampleRecord("confirmed")))
	require.NoError(t, j.Close())

	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordSubmission(sampleRecord("rejected")))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "attempt_id"), "header written once")

	j, err = NewCSV(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	recs, err := j.ListSubmissions(0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCSVListLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	for i := 0; i < 4; i++ {
		require.NoError(t, j.RecordSubmission(sampleRecord("confirmed")))
	}

	recs, err := j.ListSubmissions(3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}
