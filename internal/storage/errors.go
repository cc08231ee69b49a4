package storage

import "errors"

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("not found")
