package web

import (
	"encoding/json"
	"net/http"
)

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type startSessionRequest struct {
	PropertyID string `json:"property_id"`
	CheckType  string `json:"check_type"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	snap, err := s.manager.Start(r.Context(), actorFromContext(r.Context()), req.PropertyID, req.CheckType)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSnapshotResponse(snap))
}

func (s *Server) handleFindOpenSession(w http.ResponseWriter, r *http.Request) {
	checkType := r.URL.Query().Get("check_type")
	if checkType == "" {
		writeError(w, http.StatusBadRequest, "check_type_required")
		return
	}

	snap, err := s.manager.FindOpen(r.Context(), actorFromContext(r.Context()), r.PathValue("propertyID"), checkType)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "no_open_session")
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap))
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Resume(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap))
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	st, err := s.manager.ToggleItem(r.Context(), actorFromContext(r.Context()), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type setNotesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleSetNotes(w http.ResponseWriter, r *http.Request) {
	var req setNotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	st, err := s.manager.SetNotes(r.Context(), actorFromContext(r.Context()), r.PathValue("id"), r.PathValue("itemID"), req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type attachPhotoRefRequest struct {
	Ref string `json:"ref"`
}

func (s *Server) handleAttachPhotoRef(w http.ResponseWriter, r *http.Request) {
	var req attachPhotoRefRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	st, err := s.manager.AttachPhoto(r.Context(), actorFromContext(r.Context()), r.PathValue("id"), r.PathValue("itemID"), req.Ref)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type completeSessionRequest struct {
	GeneralNotes string `json:"general_notes"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body")
			return
		}
	}

	res, err := s.manager.Complete(r.Context(), actorFromContext(r.Context()), r.PathValue("id"), req.GeneralNotes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if !res.Completed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, completionResponse{
		Completed:        res.Completed,
		AlreadyCompleted: res.AlreadyCompleted,
		Unmet:            res.Unmet,
		Session:          newSessionResponse(res.Session),
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.manager.Progress(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Save(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap))
}

func (s *Server) handleDetachSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Detach(r.Context(), actorFromContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	records, err := s.manager.Activity(r.Context(), actorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := make([]activityResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, activityResponse{
			ID:        rec.ID,
			UserID:    rec.UserID,
			EventType: string(rec.EventType),
			Payload:   rec.Payload,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, fallback := s.templates.Load(r.Context(), r.PathValue("checkType"))
	writeJSON(w, http.StatusOK, newTemplateResponse(tpl, fallback))
}
