package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/inspection"
	"github.com/vbonduro/housecheck/internal/photostore"
)

type itemResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Required  bool   `json:"required"`
	Kind      string `json:"kind"`
	Input     string `json:"input"`
	MinPhotos int    `json:"min_photos,omitempty"`
}

type sectionResponse struct {
	Key   string         `json:"key"`
	Name  string         `json:"name"`
	Items []itemResponse `json:"items"`
}

type templateResponse struct {
	CheckType string            `json:"check_type"`
	Name      string            `json:"name"`
	Version   int               `json:"version"`
	Fallback  bool              `json:"fallback"`
	Sections  []sectionResponse `json:"sections"`
}

func newTemplateResponse(tpl *domain.Template, fallback bool) templateResponse {
	resp := templateResponse{
		CheckType: tpl.CheckType,
		Name:      tpl.Name,
		Version:   tpl.Version,
		Fallback:  fallback,
		Sections:  make([]sectionResponse, 0, len(tpl.Sections)),
	}
	for _, sec := range tpl.Sections {
		sr := sectionResponse{Key: sec.Key, Name: sec.Name, Items: make([]itemResponse, 0, len(sec.Items))}
		for _, item := range sec.Items {
			sr.Items = append(sr.Items, itemResponse{
				ID:        item.ID,
				Label:     item.Label,
				Required:  item.Required,
				Kind:      domain.KindName(item.Kind),
				Input:     domain.KindInput(item.Kind),
				MinPhotos: domain.MinPhotos(item.Kind),
			})
		}
		resp.Sections = append(resp.Sections, sr)
	}
	return resp
}

type sessionResponse struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	PropertyID      string            `json:"property_id"`
	CheckType       string            `json:"check_type"`
	Status          string            `json:"status"`
	Items           domain.ItemStates `json:"items"`
	GeneralNotes    string            `json:"general_notes"`
	Summary         string            `json:"summary,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	DurationSeconds *int64            `json:"duration_seconds,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func newSessionResponse(sess *domain.Session) sessionResponse {
	return sessionResponse{
		ID:              sess.ID,
		UserID:          sess.UserID,
		PropertyID:      sess.PropertyID,
		CheckType:       sess.CheckType,
		Status:          string(sess.Status),
		Items:           sess.Items,
		GeneralNotes:    sess.GeneralNotes,
		Summary:         sess.Summary,
		StartedAt:       sess.StartedAt,
		CompletedAt:     sess.CompletedAt,
		DurationSeconds: sess.DurationSeconds,
		UpdatedAt:       sess.UpdatedAt,
	}
}

type snapshotResponse struct {
	Session     sessionResponse  `json:"session"`
	Template    templateResponse `json:"template"`
	Progress    domain.Progress  `json:"progress"`
	LastSavedAt time.Time        `json:"last_saved_at"`
	Dirty       bool             `json:"dirty"`
	Recovered   bool             `json:"recovered"`
}

func newSnapshotResponse(snap *inspection.Snapshot) snapshotResponse {
	return snapshotResponse{
		Session:     newSessionResponse(snap.Session),
		Template:    newTemplateResponse(snap.Template, snap.FallbackTemplate),
		Progress:    snap.Progress,
		LastSavedAt: snap.LastSavedAt,
		Dirty:       snap.Dirty,
		Recovered:   snap.Recovered,
	}
}

type completionResponse struct {
	Completed        bool               `json:"completed"`
	AlreadyCompleted bool               `json:"already_completed"`
	Unmet            []domain.UnmetItem `json:"unmet,omitempty"`
	Session          sessionResponse    `json:"session"`
}

type activityResponse struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// writeServiceError maps manager errors to HTTP responses. Unexpected
// errors are logged and reported as 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, photostore.ErrNotFound):
		writeError(w, http.StatusNotFound, "photo_not_found")
	case errors.Is(err, domain.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "unknown_item")
	case errors.Is(err, domain.ErrSessionCompleted):
		writeError(w, http.StatusConflict, "session_completed")
	case errors.Is(err, inspection.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_argument")
	case errors.Is(err, inspection.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting_down")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
