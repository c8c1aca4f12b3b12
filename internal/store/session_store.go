package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vbonduro/housecheck/internal/domain"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionColumns = `id, user_id, property_id, check_type, template_id, template_version, status,
	item_states, general_notes, summary, started_at, completed_at, duration_seconds, updated_at`

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	states, err := json.Marshal(sess.Items)
	if err != nil {
		return fmt.Errorf("failed to encode item states: %w", err)
	}

	var templateID *int64
	if sess.TemplateID != 0 {
		templateID = &sess.TemplateID
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inspection_sessions
			(id, user_id, property_id, check_type, template_id, template_version, status, item_states, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.UserID, sess.PropertyID, sess.CheckType, templateID, sess.TemplateVersion,
		string(sess.Status), string(states), sess.StartedAt.UTC(), sess.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM inspection_sessions WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// FindOpen returns the most recently started in-progress session for the
// (user, property, check type) key, or nil.
func (s *SessionStore) FindOpen(ctx context.Context, userID, propertyID, checkType string) (*domain.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM inspection_sessions
		WHERE user_id = ? AND property_id = ? AND check_type = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1
	`, userID, propertyID, checkType, string(domain.StatusInProgress)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}
	return sess, nil
}

// SaveState overwrites the item-state map of an in-progress session and
// stamps updated_at with at. Completed sessions are never overwritten.
func (s *SessionStore) SaveState(ctx context.Context, id string, states domain.ItemStates, at time.Time) error {
	payload, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("failed to encode item states: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE inspection_sessions SET item_states = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(payload), at.UTC(), id, string(domain.StatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s not in progress: %w", id, domain.ErrSessionCompleted)
	}
	return nil
}

// Complete marks an in-progress session completed. It reports false when the
// session had already left in_progress, in which case nothing is written.
func (s *SessionStore) Complete(ctx context.Context, id string, states domain.ItemStates, generalNotes string, completedAt time.Time, durationSeconds int64) (bool, error) {
	payload, err := json.Marshal(states)
	if err != nil {
		return false, fmt.Errorf("failed to encode item states: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE inspection_sessions
		SET status = ?, item_states = ?, general_notes = ?, completed_at = ?, duration_seconds = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(domain.StatusCompleted), string(payload), generalNotes, completedAt.UTC(), durationSeconds, completedAt.UTC(),
		id, string(domain.StatusInProgress))
	if err != nil {
		return false, fmt.Errorf("failed to complete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (s *SessionStore) SetSummary(ctx context.Context, id, summary string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inspection_sessions SET summary = ? WHERE id = ?
	`, summary, id)
	if err != nil {
		return fmt.Errorf("failed to set session summary: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		sess        domain.Session
		templateID  sql.NullInt64
		status      string
		states      string
		completedAt sql.NullTime
		duration    sql.NullInt64
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.PropertyID, &sess.CheckType, &templateID, &sess.TemplateVersion,
		&status, &states, &sess.GeneralNotes, &sess.Summary, &sess.StartedAt, &completedAt, &duration, &sess.UpdatedAt); err != nil {
		return nil, err
	}

	sess.TemplateID = templateID.Int64
	sess.Status = domain.SessionStatus(status)
	if err := json.Unmarshal([]byte(states), &sess.Items); err != nil {
		return nil, fmt.Errorf("failed to decode item states: %w", err)
	}
	if sess.Items == nil {
		sess.Items = domain.ItemStates{}
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	if duration.Valid {
		d := duration.Int64
		sess.DurationSeconds = &d
	}
	return &sess, nil
}
