// Package recording stores the progress snapshots of a job as an lz4
// compressed stream of JSON lines so that a run can be replayed offline.
package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

// Extension is the file extension of recordings.
const Extension = ".dtrec.lz4"

// ErrClosed is returned when recording into a closed Recorder.
var ErrClosed = errors.New("recorder closed")

// Frame is one recorded snapshot.
type Frame struct {
	RecordedAt time.Time          `json:"recorded_at"`
	Snapshot   *progress.Snapshot `json:"snapshot"`
	JobID      int64              `json:"job_id"`
	Seq        int                `json:"seq"`
}

// FileName returns the recording file name of a job started at t.
func FileName(jobID int64, t time.Time) string {
	return "job-" + strconv.FormatInt(jobID, 10) + "-" + t.UTC().Format("20060102T150405Z") + Extension
}

// Recorder appends frames to an lz4 stream. It is safe for concurrent use.
type Recorder struct {
	closer io.Closer
	zw     *lz4.Writer
	enc    *json.Encoder
	now    func() time.Time
	jobID  int64
	seq    int
	mu     sync.Mutex
	closed bool
}

// NewRecorder writes the frames of jobID to w. Close flushes the stream but
// does not close w.
func NewRecorder(w io.Writer, jobID int64) *Recorder {
	zw := lz4.NewWriter(w)

	return &Recorder{
		zw:    zw,
		enc:   json.NewEncoder(zw),
		now:   time.Now,
		jobID: jobID,
	}
}

// Create opens a new recording file for jobID in dir and returns the
// recorder with the path it writes to. Close also closes the file.
func Create(dir string, jobID int64) (*Recorder, string, error) {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, "", fmt.Errorf("create recording dir: %w", err)
	}

	path := filepath.Join(dir, FileName(jobID, time.Now()))

	file, err := os.Create(path) //nolint:gosec // path is built from the configured directory.
	if err != nil {
		return nil, "", fmt.Errorf("create recording: %w", err)
	}

	rec := NewRecorder(file, jobID)
	rec.closer = file

	return rec, path, nil
}

// Record appends snap as the next frame.
func (r *Recorder) Record(snap *progress.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	err := r.enc.Encode(Frame{
		RecordedAt: r.now().UTC(),
		JobID:      r.jobID,
		Seq:        r.seq,
		Snapshot:   snap,
	})
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", r.seq, err)
	}

	r.seq++

	return nil
}

// Frames returns the number of frames recorded so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.seq
}

// Close flushes the compressed stream. Closing twice is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	err := r.zw.Close()
	if err != nil {
		return fmt.Errorf("flush recording: %w", err)
	}

	if r.closer != nil {
		closeErr := r.closer.Close()
		if closeErr != nil {
			return fmt.Errorf("close recording: %w", closeErr)
		}
	}

	return nil
}

// Reader iterates the frames of a recording.
type Reader struct {
	closer io.Closer
	dec    *json.Decoder
}

// NewReader reads frames from the lz4 stream r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(lz4.NewReader(r))}
}

// Open opens the recording at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path) //nolint:gosec // user-selected recording.
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}

	rd := NewReader(file)
	rd.closer = file

	return rd, nil
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	var frame Frame

	err := r.dec.Decode(&frame)
	if errors.Is(err, io.EOF) {
		return Frame{}, io.EOF
	}

	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	return frame, nil
}

// All reads every remaining frame.
func (r *Reader) All() ([]Frame, error) {
	var frames []Frame

	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}

		if err != nil {
			return frames, err
		}

		frames = append(frames, frame)
	}
}

// Close closes the underlying file when the reader was opened from a path.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	err := r.closer.Close()
	if err != nil {
		return fmt.Errorf("close recording: %w", err)
	}

	return nil
}
