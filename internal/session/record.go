// Package session holds the externally stored session record and the
// directory operations around it: creating, joining and moderating sessions.
package session

import (
	"maps"
	"time"
)

type Permission string

const (
	PermDraw    Permission = "draw"
	PermWatch   Permission = "watch"
	PermPending Permission = "pending"
	PermNone    Permission = "none"
)

// Assignable reports whether a host may grant p to a participant.
func (p Permission) Assignable() bool {
	switch p {
	case PermDraw, PermWatch, PermNone:
		return true
	}
	return false
}

type Participant struct {
	Name       string     `json:"name"`
	Permission Permission `json:"permission"`
}

type Request struct {
	Name string `json:"name"`
}

// Record is the whole session document as persisted by the directory. The
// drawing engine only ever reads and writes DrawingData.
type Record struct {
	HostID          string                 `json:"hostId"`
	ShortCode       string                 `json:"shortCode"`
	Participants    map[string]Participant `json:"participants"`
	PendingRequests map[string]Request     `json:"pendingRequests"`
	DrawingData     string                 `json:"drawingData"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// Clone returns a copy that shares no maps with r.
func (r Record) Clone() Record {
	r.Participants = maps.Clone(r.Participants)
	r.PendingRequests = maps.Clone(r.PendingRequests)
	if r.Participants == nil {
		r.Participants = map[string]Participant{}
	}
	if r.PendingRequests == nil {
		r.PendingRequests = map[string]Request{}
	}
	return r
}

// PermissionOf resolves a user's effective permission.
func (r Record) PermissionOf(userID string) Permission {
	if p, ok := r.Participants[userID]; ok && p.Permission != "" {
		return p.Permission
	}
	if _, ok := r.PendingRequests[userID]; ok {
		return PermPending
	}
	return PermNone
}

func (r Record) IsHost(userID string) bool {
	return userID != "" && r.HostID == userID
}
