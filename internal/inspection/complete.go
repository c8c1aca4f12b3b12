package inspection

import (
	"context"
	"time"

	"github.com/vbonduro/housecheck/internal/checklist"
	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/metrics"
)

// CompletionResult is the outcome of Complete. When Unmet is non-empty the
// session was left in progress.
type CompletionResult struct {
	Completed bool
	// AlreadyCompleted reports that the session had been completed before
	// this call; Session carries the stored completion.
	AlreadyCompleted bool
	Unmet            []domain.UnmetItem
	Session          *domain.Session
}

// Complete validates that every required item is completed and, if so,
// marks the session completed. Only the first successful call records a
// completion time; later calls return it unchanged.
func (m *Manager) Complete(ctx context.Context, actor domain.Actor, sessionID, generalNotes string) (*CompletionResult, error) {
	live, err := m.load(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	live.saveMu.Lock()
	defer live.saveMu.Unlock()
	live.mu.Lock()
	defer live.mu.Unlock()

	if live.session.Status == domain.StatusCompleted {
		m.metrics.ObserveCompletion(metrics.ResultAlreadyCompleted)
		return &CompletionResult{Completed: true, AlreadyCompleted: true, Session: live.snapshotLocked().Session}, nil
	}

	if unmet := checklist.UnmetRequired(live.template, live.session.Items); len(unmet) > 0 {
		m.metrics.ObserveCompletion(metrics.ResultUnmet)
		return &CompletionResult{Unmet: unmet, Session: live.snapshotLocked().Session}, nil
	}

	now := m.now().UTC()
	duration := int64(now.Sub(live.session.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	won, err := m.sessions.Complete(ctx, sessionID, live.session.Items.Clone(), generalNotes, now, duration)
	if err != nil {
		return nil, err
	}

	if !won {
		stored, err := m.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, domain.ErrSessionNotFound
		}
		live.session = stored
		live.savedRev = live.rev
		m.evict(live)
		m.metrics.ObserveCompletion(metrics.ResultAlreadyCompleted)
		m.logger.Info("session already completed elsewhere", "session_id", sessionID)
		return &CompletionResult{Completed: true, AlreadyCompleted: true, Session: live.snapshotLocked().Session}, nil
	}

	live.session.Status = domain.StatusCompleted
	live.session.GeneralNotes = generalNotes
	live.session.CompletedAt = &now
	live.session.DurationSeconds = &duration
	live.session.UpdatedAt = now
	live.savedRev = live.rev
	live.lastSavedAt = now
	m.evict(live)

	m.discardBackup(ctx, sessionID)
	m.metrics.ObserveCompletion(metrics.ResultCompleted)
	m.logger.Info("session completed",
		"session_id", sessionID,
		"user_id", actor.UserID,
		"duration_seconds", duration,
	)
	m.activity.Log(ctx, sessionID, actor.UserID, domain.EventSessionCompleted, map[string]any{
		"duration_seconds": duration,
		"general_notes":    generalNotes != "",
	})

	completed := live.snapshotLocked().Session
	m.summarize(live.template, completed)
	return &CompletionResult{Completed: true, Session: completed}, nil
}

// summarize generates and stores a summary in the background.
func (m *Manager) summarize(tpl *domain.Template, sess *domain.Session) {
	if m.summarizer == nil {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
		defer cancel()

		text, err := m.summarizer.Summarize(ctx, tpl, sess)
		if err != nil {
			m.logger.Warn("summary generation failed", "session_id", sess.ID, "error", err)
			return
		}
		if err := m.sessions.SetSummary(ctx, sess.ID, text); err != nil {
			m.logger.Error("failed to store summary", "session_id", sess.ID, "error", err)
			return
		}
		m.logger.Info("summary stored", "session_id", sess.ID, "length", len(text))
	}()
}
