// Package store implements the durable append-only event log: one JSON
// record per line, a single active file, size-based rotation.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const activeName = "events.jsonl"

// Record is one logged envelope.
type Record struct {
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload"`
	Timestamp  float64        `json:"timestamp"` // epoch seconds, fractional
	EnvelopeID string         `json:"envelope_id"`
}

// NewRecord builds a record stamped with the current time.
func NewRecord(eventType string, payload map[string]any, envelopeID string) Record {
	return Record{
		EventType:  eventType,
		Payload:    payload,
		Timestamp:  epochSeconds(time.Now()),
		EnvelopeID: envelopeID,
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Options bounds the log's growth.
type Options struct {
	MaxBytes int64 // rotate the active file above this size; 0 disables
	MaxFiles int   // rotated files to keep; 0 keeps none
}

// Log is an append-only newline-delimited JSON event log. A single
// writer is assumed (one active connection); the mutex serializes the
// append path against tail reads and rotation.
type Log struct {
	dir  string
	opts Options
	mu   sync.Mutex
}

// Open prepares the log directory and returns the log.
func Open(dir string, opts Options) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	return &Log{dir: dir, opts: opts}, nil
}

// Path returns the active log file path.
func (l *Log) Path() string {
	return filepath.Join(l.dir, activeName)
}

// Append writes one record as a single flushed line.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp == 0 {
		rec.Timestamp = epochSeconds(time.Now())
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode event record: %w", err)
	}

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append event record: %w", err)
	}
	return nil
}

// Tail returns up to the n most recent records in arrival order. The
// last n lines of the active file are considered; a line that does not
// parse is skipped, so fewer than n records is a legitimate result.
func (l *Log) Tail(n int) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read event log: %w", err)
	}

	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte{'\n'})
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // corrupt line, skip
		}
		records = append(records, rec)
	}
	return records, nil
}

// Size returns the active file size in bytes, 0 if absent.
func (l *Log) Size() (int64, error) {
	info, err := os.Stat(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size(), nil
}
