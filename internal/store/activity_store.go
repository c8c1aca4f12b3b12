package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/housecheck/internal/domain"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Append(ctx context.Context, rec *domain.ActivityRecord) error {
	payload := []byte("{}")
	if len(rec.Payload) > 0 {
		var err error
		payload, err = json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode activity payload: %w", err)
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inspection_activity (session_id, user_id, event_type, payload, created_at) VALUES (?, ?, ?, ?, ?)
	`, rec.SessionID, rec.UserID, string(rec.EventType), string(payload), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

func (s *ActivityStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, event_type, payload, created_at FROM inspection_activity
		WHERE session_id = ? ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer closeRows(rows)

	var records []*domain.ActivityRecord
	for rows.Next() {
		var (
			rec       domain.ActivityRecord
			eventType string
			payload   string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &eventType, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.EventType = domain.EventType(eventType)
		if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode activity payload: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return records, nil
}
