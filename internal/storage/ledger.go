package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	seenPrefix  = "seen:"
	identityKey = "identity"

	// SeenTTL bounds how long delivery marks are kept. The platform
	// redelivers within minutes, so a day is ample.
	SeenTTL = 24 * time.Hour
)

// Identity is the authenticated workspace identity, cached so origin
// classification and diagnostics survive restarts without a network
// round trip.
type Identity struct {
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
	AppID  string `json:"app_id"`
	Team   string `json:"team"`
}

// MarkSeen records that a delivery key has been fully processed.
func (db *DB) MarkSeen(key string) error {
	if key == "" {
		return nil
	}
	return db.KVSet(seenPrefix+key, "1", SeenTTL)
}

// Seen reports whether a delivery key was already processed.
func (db *DB) Seen(key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	return db.KVExists(seenPrefix + key)
}

// SeenCount returns the number of live delivery marks.
func (db *DB) SeenCount() (int, error) {
	marks, err := db.KVList(seenPrefix)
	if err != nil {
		return 0, err
	}
	return len(marks), nil
}

// SaveIdentity caches the workspace identity.
func (db *DB) SaveIdentity(id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return db.KVSet(identityKey, string(data), 0)
}

// LoadIdentity returns the cached workspace identity, ErrNotFound if
// none has been saved.
func (db *DB) LoadIdentity() (Identity, error) {
	var id Identity
	data, err := db.KVGet(identityKey)
	if err != nil {
		return id, err
	}
	if err := json.Unmarshal([]byte(data), &id); err != nil {
		return id, fmt.Errorf("decode identity: %w", err)
	}
	return id, nil
}

// ClearIdentity drops the cached workspace identity.
func (db *DB) ClearIdentity() error {
	if err := db.KVDelete(identityKey); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
