// Package photostore holds the image bytes behind inspection photo
// references. The reference recorded on an item is the storage key.
package photostore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("photo not found")

type PhotoStore interface {
	// Save stores the image under a new key scoped to sessionID and itemID.
	Save(ctx context.Context, sessionID, itemID, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// SessionPrefix is the key prefix shared by every photo of a session.
func SessionPrefix(sessionID string) string {
	return "session_" + sessionID + "/"
}
