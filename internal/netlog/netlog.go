// Package netlog records page network events to a JSONL file. The recorder
// is an independent event subscriber; enabling it never affects idle-timing
// behavior.
package netlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keepalive/internal/engine"
)

// Record is one line of the log file.
type Record struct {
	Run     string    `json:"run"`
	TS      time.Time `json:"ts"`
	Kind    string    `json:"kind"`
	Method  string    `json:"method,omitempty"`
	URL     string    `json:"url,omitempty"`
	Status  int       `json:"status,omitempty"`
	Failure string    `json:"failure,omitempty"`
}

// Recorder appends network events to a file, one JSON object per line.
// Records from the same process share a run ID.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	run    string
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// New opens (or creates) the log file in append mode.
func New(path string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open network log %s: %w", path, err)
	}
	return &Recorder{
		file:   file,
		w:      bufio.NewWriter(file),
		run:    uuid.NewString(),
		logger: logger,
	}, nil
}

// Record writes one event. Failures are logged, never propagated — a broken
// log file must not disturb the refresh loop.
func (r *Recorder) Record(ev engine.Event) {
	rec := Record{
		Run:     r.run,
		TS:      ev.At,
		Kind:    string(ev.Kind),
		Method:  ev.Method,
		URL:     ev.URL,
		Status:  ev.Status,
		Failure: ev.Failure,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Debug("netlog marshal", zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		r.logger.Debug("netlog write", zap.Error(err))
	}
}

// Close flushes and closes the file. Idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err := r.w.Flush(); err != nil {
			r.closeErr = err
		}
		if err := r.file.Close(); err != nil && r.closeErr == nil {
			r.closeErr = err
		}
	})
	return r.closeErr
}
