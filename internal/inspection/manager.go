// Package inspection runs property-check and home-check sessions: it seeds
// checklist state from a template, applies inspector edits in memory, saves
// them periodically, and reconciles a session with its backup on resume.
package inspection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/housecheck/internal/backup"
	"github.com/vbonduro/housecheck/internal/checklist"
	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/metrics"
	"github.com/vbonduro/housecheck/internal/photostore"
	"github.com/vbonduro/housecheck/internal/summary"
)

const (
	DefaultAutosaveInterval = 30 * time.Second
	defaultSaveTimeout      = 10 * time.Second
	summaryTimeout          = 2 * time.Minute
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClosed          = errors.New("inspection manager closed")
)

// sessionRepository is the subset of store.SessionStore that Manager requires.
type sessionRepository interface {
	Create(ctx context.Context, sess *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	FindOpen(ctx context.Context, userID, propertyID, checkType string) (*domain.Session, error)
	SaveState(ctx context.Context, id string, states domain.ItemStates, at time.Time) error
	Complete(ctx context.Context, id string, states domain.ItemStates, generalNotes string, completedAt time.Time, durationSeconds int64) (bool, error)
	SetSummary(ctx context.Context, id, summary string) error
}

// templateLoader is satisfied by checklist.Loader.
type templateLoader interface {
	Load(ctx context.Context, checkType string) (*domain.Template, bool)
	LoadVersion(ctx context.Context, checkType string, templateID int64) (*domain.Template, bool)
}

// activityLogger is satisfied by activity.Logger.
type activityLogger interface {
	Log(ctx context.Context, sessionID, userID string, eventType domain.EventType, payload map[string]any)
	Notify(ctx context.Context, sessionID, userID, message string)
	List(ctx context.Context, sessionID string) ([]*domain.ActivityRecord, error)
}

type Options struct {
	// AutosaveInterval defaults to DefaultAutosaveInterval.
	AutosaveInterval time.Duration
	// SaveTimeout bounds each background save.
	SaveTimeout time.Duration
	// Summarizer is optional; when set, completed sessions get a summary.
	Summarizer summary.Summarizer
	Metrics    *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

type Manager struct {
	sessions   sessionRepository
	templates  templateLoader
	backups    backup.Store
	photos     photostore.PhotoStore
	activity   activityLogger
	summarizer summary.Summarizer
	metrics    *metrics.Metrics
	logger     *slog.Logger

	interval    time.Duration
	saveTimeout time.Duration
	now         func() time.Time

	mu     sync.Mutex
	active map[string]*liveSession
	closed bool
	wg     sync.WaitGroup
}

func NewManager(
	sessions sessionRepository,
	templates templateLoader,
	backups backup.Store,
	photos photostore.PhotoStore,
	activity activityLogger,
	logger *slog.Logger,
	opts Options,
) *Manager {
	m := &Manager{
		sessions:    sessions,
		templates:   templates,
		backups:     backups,
		photos:      photos,
		activity:    activity,
		summarizer:  opts.Summarizer,
		metrics:     opts.Metrics,
		logger:      logger,
		interval:    opts.AutosaveInterval,
		saveTimeout: opts.SaveTimeout,
		now:         opts.Now,
		active:      make(map[string]*liveSession),
	}
	if m.interval <= 0 {
		m.interval = DefaultAutosaveInterval
	}
	if m.saveTimeout <= 0 {
		m.saveTimeout = defaultSaveTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Snapshot is a copy of a session's state that callers may keep.
type Snapshot struct {
	Session          *domain.Session
	Template         *domain.Template
	FallbackTemplate bool
	Progress         domain.Progress
	LastSavedAt      time.Time
	// Dirty reports edits not yet written to the database.
	Dirty bool
	// Recovered reports that the state was restored from a backup newer
	// than the database row when the session was loaded.
	Recovered bool
}

// liveSession is the in-memory state of one session. mu guards the fields;
// saveMu serialises writes to the database so an older snapshot can never
// overwrite a newer one.
type liveSession struct {
	mu          sync.Mutex
	saveMu      sync.Mutex
	session     *domain.Session
	template    *domain.Template
	fallback    bool
	recovered   bool
	rev         uint64
	savedRev    uint64
	lastSavedAt time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func newLiveSession(sess *domain.Session, tpl *domain.Template, fallback bool) *liveSession {
	if sess.Items == nil {
		sess.Items = domain.ItemStates{}
	}
	return &liveSession{
		session:     sess,
		template:    tpl,
		fallback:    fallback,
		lastSavedAt: sess.UpdatedAt,
		stop:        make(chan struct{}),
	}
}

// snapshotLocked must be called with l.mu held.
func (l *liveSession) snapshotLocked() *Snapshot {
	sess := *l.session
	sess.Items = l.session.Items.Clone()
	return &Snapshot{
		Session:          &sess,
		Template:         l.template,
		FallbackTemplate: l.fallback,
		Progress:         checklist.CalculateProgress(l.template, l.session.Items),
		LastSavedAt:      l.lastSavedAt,
		Dirty:            l.rev != l.savedRev,
		Recovered:        l.recovered,
	}
}

func (l *liveSession) snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *liveSession) id() string {
	return l.session.ID
}

func (l *liveSession) halt() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Start creates a new in-progress session for the actor seeded from the
// active template of checkType.
func (m *Manager) Start(ctx context.Context, actor domain.Actor, propertyID, checkType string) (*Snapshot, error) {
	propertyID = strings.TrimSpace(propertyID)
	checkType = strings.TrimSpace(checkType)
	if actor.UserID == "" || propertyID == "" || checkType == "" {
		return nil, fmt.Errorf("%w: user, property and check type are required", ErrInvalidArgument)
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	tpl, fallback := m.templates.Load(ctx, checkType)
	now := m.now().UTC()
	sess := &domain.Session{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		PropertyID:      propertyID,
		CheckType:       checkType,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		Status:          domain.StatusInProgress,
		Items:           tpl.SeedStates(),
		StartedAt:       now,
		UpdatedAt:       now,
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	live, err := m.register(newLiveSession(sess, tpl, fallback))
	if err != nil {
		return nil, err
	}
	m.logger.Info("session started",
		"session_id", sess.ID,
		"user_id", actor.UserID,
		"property_id", propertyID,
		"check_type", checkType,
		"fallback_template", fallback,
	)
	m.activity.Log(ctx, sess.ID, actor.UserID, domain.EventSessionStarted, map[string]any{
		"property_id":       propertyID,
		"check_type":        checkType,
		"template_version":  tpl.Version,
		"fallback_template": fallback,
	})
	return live.snapshot(), nil
}

// Resume returns the session's current state, loading and reconciling it
// with its backup when it is not already held in memory.
func (m *Manager) Resume(ctx context.Context, actor domain.Actor, sessionID string) (*Snapshot, error) {
	live, err := m.load(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	return live.snapshot(), nil
}

// FindOpen resumes the actor's most recent in-progress session for the
// property and check type. It returns nil when there is none.
func (m *Manager) FindOpen(ctx context.Context, actor domain.Actor, propertyID, checkType string) (*Snapshot, error) {
	sess, err := m.sessions.FindOpen(ctx, actor.UserID, propertyID, checkType)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return m.Resume(ctx, actor, sess.ID)
}

// Progress reports completion percentages for the session.
func (m *Manager) Progress(ctx context.Context, actor domain.Actor, sessionID string) (domain.Progress, error) {
	live, err := m.load(ctx, actor, sessionID)
	if err != nil {
		return domain.Progress{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return checklist.CalculateProgress(live.template, live.session.Items), nil
}

// Activity returns the audit log of a session the actor may access.
func (m *Manager) Activity(ctx context.Context, actor domain.Actor, sessionID string) ([]*domain.ActivityRecord, error) {
	if _, err := m.authorize(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	return m.activity.List(ctx, sessionID)
}

// authorize checks access without loading the session into memory.
func (m *Manager) authorize(ctx context.Context, actor domain.Actor, sessionID string) (*domain.Session, error) {
	if live := m.lookup(sessionID); live != nil {
		live.mu.Lock()
		defer live.mu.Unlock()
		if !actor.CanAccess(live.session) {
			return nil, domain.ErrForbidden
		}
		return live.session, nil
	}

	sess, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}
	if !actor.CanAccess(sess) {
		return nil, domain.ErrForbidden
	}
	return sess, nil
}

func (m *Manager) lookup(sessionID string) *liveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[sessionID]
}

// load returns the in-memory session, reading it from the database when it
// is not active. In-progress sessions are reconciled with their backup and
// registered with a running autosave loop; completed sessions are returned
// without being registered.
func (m *Manager) load(ctx context.Context, actor domain.Actor, sessionID string) (*liveSession, error) {
	if live := m.lookup(sessionID); live != nil {
		live.mu.Lock()
		ok := actor.CanAccess(live.session)
		live.mu.Unlock()
		if !ok {
			return nil, domain.ErrForbidden
		}
		return live, nil
	}

	sess, err := m.authorize(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	tpl, fallback := m.templates.LoadVersion(ctx, sess.CheckType, sess.TemplateID)
	live := newLiveSession(sess, tpl, fallback)

	if sess.Status != domain.StatusInProgress {
		m.discardBackup(ctx, sessionID)
		return live, nil
	}

	m.recover(ctx, actor, live)
	return m.register(live)
}

// recover applies the whole-record last-writer-wins rule: a backup strictly
// newer than the row replaces the row's item states and is written back;
// anything else is discarded.
func (m *Manager) recover(ctx context.Context, actor domain.Actor, live *liveSession) {
	id := live.id()
	entry, err := m.backups.Load(ctx, id)
	if err != nil {
		m.logger.Warn("backup read failed, using database state", "session_id", id, "error", err)
		return
	}
	if entry == nil {
		return
	}

	if !entry.SavedAt.After(live.session.UpdatedAt) {
		m.logger.Debug("discarding stale backup",
			"session_id", id,
			"backup_saved_at", entry.SavedAt,
			"row_updated_at", live.session.UpdatedAt,
		)
		m.discardBackup(ctx, id)
		return
	}

	m.logger.Info("restoring session from newer backup",
		"session_id", id,
		"backup_saved_at", entry.SavedAt,
		"row_updated_at", live.session.UpdatedAt,
	)
	live.session.Items = entry.States
	live.recovered = true

	now := m.now().UTC()
	if err := m.sessions.SaveState(ctx, id, entry.States.Clone(), now); err != nil {
		// Leave the session dirty so the autosave loop writes it back.
		m.logger.Warn("failed to persist recovered state", "session_id", id, "error", err)
		live.rev++
	} else {
		live.session.UpdatedAt = now
		live.lastSavedAt = now
	}
	m.activity.Notify(ctx, id, actor.UserID, "unsaved changes were restored from backup")
}

func (m *Manager) discardBackup(ctx context.Context, sessionID string) {
	if err := m.backups.Delete(ctx, sessionID); err != nil {
		m.logger.Warn("failed to delete backup", "session_id", sessionID, "error", err)
	}
}

// register makes live the active copy of its session and starts its
// autosave loop. If another copy won a concurrent load, that copy is returned.
func (m *Manager) register(live *liveSession) (*liveSession, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if existing, ok := m.active[live.id()]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.active[live.id()] = live
	n := len(m.active)
	m.wg.Add(1)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	go m.autosaveLoop(live)
	return live, nil
}

// evict forgets live and stops its autosave loop. It does not wait for the
// loop to exit.
func (m *Manager) evict(live *liveSession) {
	m.mu.Lock()
	if m.active[live.id()] == live {
		delete(m.active, live.id())
	}
	n := len(m.active)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	live.halt()
}

// Close flushes every active session, stops the autosave loops and waits
// for background work to finish. Sessions stay in progress.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	m.closed = true
	lives := make([]*liveSession, 0, len(m.active))
	for _, live := range m.active {
		lives = append(lives, live)
	}
	m.mu.Unlock()

	for _, live := range lives {
		if _, err := m.flush(ctx, live); err != nil {
			m.logger.Error("final save failed", "session_id", live.id(), "error", err)
		}
		m.evict(live)
	}
	m.wg.Wait()
}
