package feed

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yanun0323/errors"

	"github.com/robinmaple/trading-automation-sub002/internal/model/enum"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// TickRecord is one captured market tick, serialized as a JSONL row.
type TickRecord struct {
	Timestamp int64         `json:"ts"`
	Symbol    string        `json:"symbol"`
	TickKind  enum.TickKind `json:"kind"`
	Price     float64       `json:"price"`
}

// Recorder appends tick records to a JSONL file for later replay.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	closed bool
}

// NewRecorder opens (or creates) the capture file, creating parent
// directories as needed.
func NewRecorder(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create capture dir")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open capture file")
	}
	return &Recorder{file: file, w: bufio.NewWriter(file)}, nil
}

// Append writes one tick record.
func (r *Recorder) Append(rec TickRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return exception.ErrFeedRecorderClosed
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixNano()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal tick record")
	}
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "write tick record")
	}
	return nil
}

// Close flushes and closes the capture file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.w.Flush(); err != nil {
		return errors.Wrap(err, "flush capture file")
	}
	return r.file.Close()
}
