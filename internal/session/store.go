package session

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrExists    = errors.New("session already exists")
	ErrForbidden = errors.New("only the host may do that")
	ErrInvalid   = errors.New("invalid request")
)

// Store is the part of the session directory the drawing engine consumes.
// It reads whole records, overwrites the drawing and reports changes.
type Store interface {
	Get(ctx context.Context, code string) (Record, error)
	// WriteDrawing overwrites DrawingData. The last write to land wins.
	WriteDrawing(ctx context.Context, code, data string) error
	// Subscribe calls fn with the current record and then with every later
	// version, in store order, until ctx is done. fn runs on its own
	// goroutine and may see only the latest of several rapid changes.
	Subscribe(ctx context.Context, code string, fn func(Record)) error
}

// Backend is a Store that also supports record creation and
// read-modify-write updates. Service builds the directory on top of it.
type Backend interface {
	Store
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, code string, fn func(*Record) error) (Record, error)
	Count(ctx context.Context) (int, error)
}

// Directory covers session lifecycle and moderation.
type Directory interface {
	Create(ctx context.Context, hostID, name string) (Record, error)
	Join(ctx context.Context, code, userID, name string) (Record, error)
	Resolve(ctx context.Context, actor, code, userID string, approve bool) (Record, error)
	SetPermission(ctx context.Context, actor, code, userID string, perm Permission) (Record, error)
	Leave(ctx context.Context, code, userID string) error
}
