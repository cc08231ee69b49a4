package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const rotatedPrefix = "events-"

// MaybeRotate rotates the active file when it exceeds the configured
// size and prunes old rotations. It reports whether a rotation
// happened. A zero MaxBytes disables rotation.
func (l *Log) MaybeRotate() (bool, error) {
	if l.opts.MaxBytes <= 0 {
		return false, nil
	}
	size, err := l.Size()
	if err != nil {
		return false, fmt.Errorf("stat event log: %w", err)
	}
	if size <= l.opts.MaxBytes {
		return false, nil
	}
	if err := l.rotate(time.Now()); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Log) rotate(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stamp := now.UTC().Format("20060102T150405")
	target := filepath.Join(l.dir, rotatedPrefix+stamp+".jsonl")
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(l.dir, fmt.Sprintf("%s%s.%d.jsonl", rotatedPrefix, stamp, now.UnixNano()))
	}
	if err := os.Rename(l.Path(), target); err != nil {
		return fmt.Errorf("rotate event log: %w", err)
	}
	return l.prune()
}

// prune removes the oldest rotated files beyond MaxFiles. Rotated
// names embed a UTC stamp, so lexical order is age order.
func (l *Log) prune() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("list event log dir: %w", err)
	}

	var rotated []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == activeName {
			continue
		}
		if strings.HasPrefix(name, rotatedPrefix) && strings.HasSuffix(name, ".jsonl") {
			rotated = append(rotated, name)
		}
	}
	if len(rotated) <= l.opts.MaxFiles {
		return nil
	}

	sort.Strings(rotated)
	for _, name := range rotated[:len(rotated)-l.opts.MaxFiles] {
		if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
			return fmt.Errorf("prune event log: %w", err)
		}
	}
	return nil
}
