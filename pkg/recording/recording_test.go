package recording_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/recording"
)

func snapshot(state string, records int) *progress.Snapshot {
	snap := &progress.Snapshot{State: state, Hierarchy: progress.Hierarchy{LeafCount: records + 1}}

	for i := range records {
		d := float64(i + 1)
		snap.Hierarchy.Records = append(snap.Hierarchy.Records, progress.Record{
			LeftID: i, RightID: records + 1 + i, Cardinality: i + 2, Distance: &d, Index: i,
		})
	}

	return snap
}

func TestRecorder_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rec := recording.NewRecorder(&buf, 11)
	require.NoError(t, rec.Record(snapshot(string(progress.PhaseApproximating), 1)))
	require.NoError(t, rec.Record(snapshot(string(progress.PhaseFinished), 3)))
	assert.Equal(t, 2, rec.Frames())
	require.NoError(t, rec.Close())

	frames, err := recording.NewReader(&buf).All()
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, int64(11), frames[0].JobID)
	assert.Equal(t, 0, frames[0].Seq)
	assert.Equal(t, 1, frames[1].Seq)
	assert.Equal(t, string(progress.PhaseFinished), frames[1].Snapshot.State)
	require.Len(t, frames[1].Snapshot.Hierarchy.Records, 3)
	assert.InDelta(t, 3, *frames[1].Snapshot.Hierarchy.Records[2].Distance, 1e-12)
	assert.False(t, frames[0].RecordedAt.IsZero())
}

func TestRecorder_Compresses(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	snap := snapshot(string(progress.PhaseApproximating), 50)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	rec := recording.NewRecorder(&buf, 1)
	for range 20 {
		require.NoError(t, rec.Record(snap))
	}

	require.NoError(t, rec.Close())

	assert.Less(t, buf.Len(), 20*len(raw)/2)
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rec := recording.NewRecorder(&buf, 1)
	require.NoError(t, rec.Record(snapshot("Initializing", 0)))
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	err := rec.Record(snapshot("Initializing", 0))
	require.ErrorIs(t, err, recording.ErrClosed)
}

func TestCreateAndOpen(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")

	rec, path, err := recording.Create(dir, 42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "job-42-"))
	assert.True(t, strings.HasSuffix(path, recording.Extension))

	require.NoError(t, rec.Record(snapshot("Approximating", 2)))
	require.NoError(t, rec.Close())

	rd, err := recording.Open(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, rd.Close()) }()

	frame, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(42), frame.JobID)

	_, err = rd.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := recording.Open(filepath.Join(t.TempDir(), "absent"+recording.Extension))
	require.Error(t, err)
}

func TestReader_Corrupt(t *testing.T) {
	t.Parallel()

	_, err := recording.NewReader(strings.NewReader("not an lz4 stream")).Next()
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "job-3-20240305T070809Z.dtrec.lz4", recording.FileName(3, ts))
}
