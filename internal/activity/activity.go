package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/metrics"
)

// activityRepository is the subset of store.ActivityStore that Logger requires.
type activityRepository interface {
	Append(ctx context.Context, rec *domain.ActivityRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.ActivityRecord, error)
}

// Logger appends audit records without ever blocking or failing the caller.
// Writes run in the background on a context detached from the request.
type Logger struct {
	repo    activityRepository
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewLogger(repo activityRepository, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Logger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Logger{
		repo:    repo,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// Log records eventType for the session. The timestamp is taken at call time.
func (l *Logger) Log(ctx context.Context, sessionID, userID string, eventType domain.EventType, payload map[string]any) {
	rec := &domain.ActivityRecord{
		SessionID: sessionID,
		UserID:    userID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: l.now().UTC(),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		if err := l.repo.Append(writeCtx, rec); err != nil {
			l.metrics.ObserveActivity(metrics.ResultFailed)
			l.logger.Warn("activity log write dropped",
				"session_id", sessionID,
				"event_type", eventType,
				"error", err,
			)
			return
		}
		l.metrics.ObserveActivity(metrics.ResultOK)
	}()
}

// Notify records a free-form notification event for the session.
func (l *Logger) Notify(ctx context.Context, sessionID, userID, message string) {
	l.Log(ctx, sessionID, userID, domain.EventNotification, map[string]any{"message": message})
}

// List returns the session's activity in the order it happened.
func (l *Logger) List(ctx context.Context, sessionID string) ([]*domain.ActivityRecord, error) {
	return l.repo.ListBySession(ctx, sessionID)
}

// Wait blocks until all pending writes have finished.
func (l *Logger) Wait() {
	l.wg.Wait()
}
