package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const createAttempts = 5

// Service implements Directory on top of a Backend.
type Service struct {
	backend Backend
	log     *slog.Logger
}

var _ Directory = (*Service)(nil)

func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, log: logger.With("component", "directory")}
}

// Create opens a new session hosted by hostID, who joins with draw permission.
func (s *Service) Create(ctx context.Context, hostID, name string) (Record, error) {
	name = strings.TrimSpace(name)
	if hostID == "" || name == "" {
		return Record{}, fmt.Errorf("create session: name and user id required: %w", ErrInvalid)
	}
	for range createAttempts {
		code, err := NewCode()
		if err != nil {
			return Record{}, fmt.Errorf("create session: %w", err)
		}
		rec := Record{
			HostID:          hostID,
			ShortCode:       code,
			Participants:    map[string]Participant{hostID: {Name: name, Permission: PermDraw}},
			PendingRequests: map[string]Request{},
			DrawingData:     "[]",
			CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
		}
		err = s.backend.Create(ctx, rec)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return Record{}, fmt.Errorf("create session: %w", err)
		}
		s.log.Info("session created", "code", code, "host", hostID)
		return rec, nil
	}
	return Record{}, fmt.Errorf("create session: no free code after %d attempts: %w", createAttempts, ErrExists)
}

// Join files an access request. Users already in the session are left as
// they are.
func (s *Service) Join(ctx context.Context, code, userID, name string) (Record, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" || code == "" {
		return Record{}, fmt.Errorf("join session: name, code and user id required: %w", ErrInvalid)
	}
	rec, err := s.backend.Update(ctx, code, func(r *Record) error {
		if _, ok := r.Participants[userID]; ok {
			return nil
		}
		r.PendingRequests[userID] = Request{Name: name}
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("join session: %w", err)
	}
	s.log.Info("join requested", "code", code, "user", userID)
	return rec, nil
}

// Resolve approves or denies a pending request. Approved users start as
// watchers.
func (s *Service) Resolve(ctx context.Context, actor, code, userID string, approve bool) (Record, error) {
	rec, err := s.backend.Update(ctx, NormalizeCode(code), func(r *Record) error {
		if !r.IsHost(actor) {
			return ErrForbidden
		}
		req, ok := r.PendingRequests[userID]
		if !ok {
			return fmt.Errorf("no pending request from %s: %w", userID, ErrNotFound)
		}
		delete(r.PendingRequests, userID)
		if approve {
			r.Participants[userID] = Participant{Name: req.Name, Permission: PermWatch}
		}
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("resolve request: %w", err)
	}
	s.log.Info("request resolved", "code", rec.ShortCode, "user", userID, "approved", approve)
	return rec, nil
}

// SetPermission changes a participant's permission. Only the host may call
// it, and the host's own permission is fixed.
func (s *Service) SetPermission(ctx context.Context, actor, code, userID string, perm Permission) (Record, error) {
	if !perm.Assignable() {
		return Record{}, fmt.Errorf("set permission %q: %w", perm, ErrInvalid)
	}
	rec, err := s.backend.Update(ctx, NormalizeCode(code), func(r *Record) error {
		if !r.IsHost(actor) {
			return ErrForbidden
		}
		if userID == r.HostID {
			return fmt.Errorf("host permission is fixed: %w", ErrInvalid)
		}
		p, ok := r.Participants[userID]
		if !ok {
			return fmt.Errorf("participant %s: %w", userID, ErrNotFound)
		}
		p.Permission = perm
		r.Participants[userID] = p
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("set permission: %w", err)
	}
	s.log.Info("permission changed", "code", rec.ShortCode, "user", userID, "permission", perm)
	return rec, nil
}

// Leave removes userID from the participant list.
func (s *Service) Leave(ctx context.Context, code, userID string) error {
	_, err := s.backend.Update(ctx, NormalizeCode(code), func(r *Record) error {
		delete(r.Participants, userID)
		delete(r.PendingRequests, userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("leave session: %w", err)
	}
	return nil
}
