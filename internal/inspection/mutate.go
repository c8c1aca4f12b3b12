package inspection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/photostore"
)

// mutate applies fn to the state of itemID under the session lock and marks
// the session dirty. It returns a copy of the updated state.
func (m *Manager) mutate(ctx context.Context, actor domain.Actor, sessionID, itemID string, fn func(st *domain.ItemState)) (domain.ItemState, error) {
	live, err := m.load(ctx, actor, sessionID)
	if err != nil {
		return domain.ItemState{}, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()
	if err := live.checkEditableLocked(itemID); err != nil {
		return domain.ItemState{}, err
	}

	st := live.session.Items[itemID]
	if st.PhotoRefs == nil {
		st.PhotoRefs = []string{}
	}
	fn(&st)
	live.session.Items[itemID] = st
	live.rev++

	out := st
	out.PhotoRefs = append([]string{}, st.PhotoRefs...)
	return out, nil
}

// checkEditableLocked must be called with l.mu held.
func (l *liveSession) checkEditableLocked(itemID string) error {
	if l.session.Status != domain.StatusInProgress {
		return domain.ErrSessionCompleted
	}
	if item, _ := l.template.FindItem(itemID); item == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemID)
	}
	return nil
}

// ToggleItem flips the completed flag of one item.
func (m *Manager) ToggleItem(ctx context.Context, actor domain.Actor, sessionID, itemID string) (domain.ItemState, error) {
	st, err := m.mutate(ctx, actor, sessionID, itemID, func(st *domain.ItemState) {
		st.Completed = !st.Completed
	})
	if err != nil {
		return st, err
	}
	m.activity.Log(ctx, sessionID, actor.UserID, domain.EventItemToggled, map[string]any{
		"item_id":   itemID,
		"completed": st.Completed,
	})
	return st, nil
}

// SetNotes replaces the free-text notes of one item.
func (m *Manager) SetNotes(ctx context.Context, actor domain.Actor, sessionID, itemID, notes string) (domain.ItemState, error) {
	st, err := m.mutate(ctx, actor, sessionID, itemID, func(st *domain.ItemState) {
		st.Notes = notes
	})
	if err != nil {
		return st, err
	}
	m.activity.Log(ctx, sessionID, actor.UserID, domain.EventNotesUpdated, map[string]any{
		"item_id": itemID,
		"length":  len(notes),
	})
	return st, nil
}

// AttachPhoto appends an existing photo reference to one item.
func (m *Manager) AttachPhoto(ctx context.Context, actor domain.Actor, sessionID, itemID, ref string) (domain.ItemState, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.ItemState{}, fmt.Errorf("%w: photo reference is required", ErrInvalidArgument)
	}
	st, err := m.mutate(ctx, actor, sessionID, itemID, func(st *domain.ItemState) {
		st.PhotoRefs = append(st.PhotoRefs, ref)
	})
	if err != nil {
		return st, err
	}
	m.activity.Log(ctx, sessionID, actor.UserID, domain.EventPhotoAttached, map[string]any{
		"item_id": itemID,
		"ref":     ref,
	})
	return st, nil
}

// UploadPhoto stores the image in the photo store and attaches the
// resulting key to the item. The stored image is removed again if the
// attach fails.
func (m *Manager) UploadPhoto(ctx context.Context, actor domain.Actor, sessionID, itemID string, data []byte, mimeType string) (domain.ItemState, error) {
	live, err := m.load(ctx, actor, sessionID)
	if err != nil {
		return domain.ItemState{}, err
	}
	live.mu.Lock()
	err = live.checkEditableLocked(itemID)
	live.mu.Unlock()
	if err != nil {
		return domain.ItemState{}, err
	}

	key, err := m.photos.Save(ctx, sessionID, itemID, mimeType, bytes.NewReader(data))
	if err != nil {
		return domain.ItemState{}, fmt.Errorf("failed to store photo: %w", err)
	}

	st, err := m.AttachPhoto(ctx, actor, sessionID, itemID, key)
	if err != nil {
		if delErr := m.photos.Delete(ctx, key); delErr != nil {
			m.logger.Error("failed to delete orphaned photo", "key", key, "error", delErr)
		}
		return st, err
	}
	return st, nil
}

// OpenPhoto returns a stored photo of a session the actor may access.
// Callers must close the reader.
func (m *Manager) OpenPhoto(ctx context.Context, actor domain.Actor, sessionID, key string) (io.ReadCloser, string, error) {
	if _, err := m.authorize(ctx, actor, sessionID); err != nil {
		return nil, "", err
	}
	key = path.Clean(key)
	if !strings.HasPrefix(key, photostore.SessionPrefix(sessionID)) {
		return nil, "", fmt.Errorf("%w: photo does not belong to session", ErrInvalidArgument)
	}
	return m.photos.Get(ctx, key)
}
