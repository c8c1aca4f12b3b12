package inspection

import (
	"context"
	"errors"
	"time"

	"github.com/vbonduro/housecheck/internal/backup"
	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/metrics"
)

func (m *Manager) autosaveLoop(live *liveSession) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-live.stop:
			return
		case <-ticker.C:
			m.tick(live)
		}
	}
}

func (m *Manager) tick(live *liveSession) {
	ctx, cancel := context.WithTimeout(context.Background(), m.saveTimeout)
	defer cancel()

	if _, err := m.flush(ctx, live); err != nil {
		if errors.Is(err, domain.ErrSessionCompleted) {
			m.logger.Info("session completed elsewhere, stopping autosave", "session_id", live.id())
			m.evict(live)
			return
		}
		m.logger.Warn("autosave failed, will retry", "session_id", live.id(), "error", err)
	}
}

// flush writes the session's state to the database and the backup store
// when it has changed since the last successful database write. It reports
// whether anything was written to the database. A backup failure is logged
// and does not affect the result.
func (m *Manager) flush(ctx context.Context, live *liveSession) (bool, error) {
	live.saveMu.Lock()
	defer live.saveMu.Unlock()

	live.mu.Lock()
	if live.session.Status != domain.StatusInProgress || live.rev == live.savedRev {
		live.mu.Unlock()
		m.metrics.ObserveAutosave(metrics.ResultSkipped)
		return false, nil
	}
	id := live.id()
	rev := live.rev
	states := live.session.Items.Clone()
	live.mu.Unlock()

	at := m.now().UTC()
	saveErr := m.sessions.SaveState(ctx, id, states, at)

	if err := m.backups.Save(ctx, &backup.Entry{SessionID: id, States: states, SavedAt: at}); err != nil {
		m.logger.Warn("backup write failed", "session_id", id, "error", err)
		m.metrics.ObserveBackup(metrics.ResultFailed)
	} else {
		m.metrics.ObserveBackup(metrics.ResultOK)
	}

	if saveErr != nil {
		m.metrics.ObserveAutosave(metrics.ResultFailed)
		return false, saveErr
	}

	live.mu.Lock()
	if rev > live.savedRev {
		live.savedRev = rev
	}
	live.lastSavedAt = at
	live.session.UpdatedAt = at
	live.mu.Unlock()

	m.metrics.ObserveAutosave(metrics.ResultSaved)
	m.logger.Debug("session saved", "session_id", id, "saved_at", at)
	return true, nil
}

// Save runs an autosave tick immediately.
func (m *Manager) Save(ctx context.Context, actor domain.Actor, sessionID string) (*Snapshot, error) {
	live, err := m.load(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := m.flush(ctx, live); err != nil {
		return nil, err
	}
	return live.snapshot(), nil
}

// Detach flushes pending edits and stops the session's autosave loop. The
// session stays in progress and can be resumed later. Detaching a session
// that is not active is a no-op.
func (m *Manager) Detach(ctx context.Context, actor domain.Actor, sessionID string) error {
	live := m.lookup(sessionID)
	if live == nil {
		_, err := m.authorize(ctx, actor, sessionID)
		return err
	}

	live.mu.Lock()
	ok := actor.CanAccess(live.session)
	live.mu.Unlock()
	if !ok {
		return domain.ErrForbidden
	}

	if _, err := m.flush(ctx, live); err != nil {
		// The backup was still written; the next resume recovers from it.
		m.logger.Warn("save on detach failed", "session_id", sessionID, "error", err)
	}
	m.evict(live)
	m.logger.Info("session detached", "session_id", sessionID)
	return nil
}
