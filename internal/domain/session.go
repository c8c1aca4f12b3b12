package domain

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrForbidden        = errors.New("session belongs to another user")
	ErrUnknownItem      = errors.New("item not in session template")
	ErrSessionCompleted = errors.New("session already completed")
)

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// ItemState is the per-item progress an inspector records during a run.
type ItemState struct {
	Completed bool     `json:"completed"`
	Notes     string   `json:"notes"`
	PhotoRefs []string `json:"photo_refs"`
}

// ItemStates maps item IDs to their state.
type ItemStates map[string]ItemState

// Clone returns a deep copy of s.
func (s ItemStates) Clone() ItemStates {
	out := make(ItemStates, len(s))
	for id, st := range s {
		refs := make([]string, len(st.PhotoRefs))
		copy(refs, st.PhotoRefs)
		st.PhotoRefs = refs
		out[id] = st
	}
	return out
}

// Session is one inspection run against a property.
type Session struct {
	ID              string
	UserID          string
	PropertyID      string
	CheckType       string
	TemplateID      int64
	TemplateVersion int
	Status          SessionStatus
	Items           ItemStates
	GeneralNotes    string
	Summary         string
	StartedAt       time.Time
	CompletedAt     *time.Time
	DurationSeconds *int64
	UpdatedAt       time.Time
}

type Role string

const (
	RoleAdmin           Role = "admin"
	RolePropertyManager Role = "property_manager"
	RoleOwner           Role = "owner"
	RoleTenant          Role = "tenant"
	RoleHouseWatcher    Role = "house_watcher"
	RoleContractor      Role = "contractor"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

// CanAccess reports whether a may read or modify s. Owners see their own
// sessions; admins see everything.
func (a Actor) CanAccess(s *Session) bool {
	return a.Role == RoleAdmin || (a.UserID != "" && a.UserID == s.UserID)
}
