// Package backup keeps a redundant copy of each in-progress session's item
// states outside the database. A backup is never the source of truth on its
// own: it is reconciled against the session row whenever a session resumes.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vbonduro/housecheck/internal/domain"
)

// Entry is the payload stored under Key(SessionID).
type Entry struct {
	SessionID string            `json:"session_id"`
	States    domain.ItemStates `json:"states"`
	SavedAt   time.Time         `json:"saved_at"`
}

type Store interface {
	// Save overwrites the backup for entry.SessionID.
	Save(ctx context.Context, entry *Entry) error
	// Load returns the backup for sessionID, or nil if there is none.
	Load(ctx context.Context, sessionID string) (*Entry, error)
	// Delete removes the backup. A missing backup is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// Key returns the storage key for a session's backup.
func Key(sessionID string) string {
	return "session:" + sessionID
}

func Encode(entry *Entry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if entry.States == nil {
		entry.States = domain.ItemStates{}
	}
	return &entry, nil
}
