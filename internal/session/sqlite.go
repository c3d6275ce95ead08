package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore persists records in SQLite and fans changes out in-process.
type SQLStore struct {
	db  *sql.DB
	mu  sync.Mutex
	fan *fanout
}

// OpenSQL opens (creating if needed) the database at path. ":memory:" gives
// a private in-memory database.
func OpenSQL(path string) (*SQLStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: SQLite has a single writer and ":memory:" is per
	// connection.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db, fan: newFanout()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			code TEXT PRIMARY KEY,
			host_id TEXT NOT NULL,
			participants TEXT NOT NULL DEFAULT '{}',
			pending_requests TEXT NOT NULL DEFAULT '{}',
			drawing_data TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func load(ctx context.Context, q querier, code string) (Record, error) {
	var (
		rec                   Record
		participants, pending string
		created               int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT code, host_id, participants, pending_requests, drawing_data, created_at FROM sessions WHERE code = ?`,
		code,
	).Scan(&rec.ShortCode, &rec.HostID, &participants, &pending, &rec.DrawingData, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	if err := json.Unmarshal([]byte(participants), &rec.Participants); err != nil {
		return Record{}, fmt.Errorf("decode participants: %w", err)
	}
	if err := json.Unmarshal([]byte(pending), &rec.PendingRequests); err != nil {
		return Record{}, fmt.Errorf("decode pending requests: %w", err)
	}
	return rec.Clone(), nil
}

func encodeMembers(rec Record) (participants, pending string, err error) {
	rec = rec.Clone()
	p, err := json.Marshal(rec.Participants)
	if err != nil {
		return "", "", err
	}
	r, err := json.Marshal(rec.PendingRequests)
	if err != nil {
		return "", "", err
	}
	return string(p), string(r), nil
}

func (s *SQLStore) Create(ctx context.Context, rec Record) error {
	participants, pending, err := encodeMembers(rec)
	if err != nil {
		return fmt.Errorf("create %s: %w", rec.ShortCode, err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (code, host_id, participants, pending_requests, drawing_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ShortCode, rec.HostID, participants, pending, rec.DrawingData, rec.CreatedAt.UnixMilli(), rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", rec.ShortCode, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("create %s: %w", rec.ShortCode, ErrExists)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, code string) (Record, error) {
	rec, err := load(ctx, s.db, code)
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", code, err)
	}
	return rec, nil
}

func (s *SQLStore) Update(ctx context.Context, code string, fn func(*Record) error) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("update %s: %w", code, err)
	}
	defer tx.Rollback()

	rec, err := load(ctx, tx, code)
	if err != nil {
		return Record{}, fmt.Errorf("update %s: %w", code, err)
	}
	if err := fn(&rec); err != nil {
		return Record{}, err
	}
	rec.ShortCode = code
	participants, pending, err := encodeMembers(rec)
	if err != nil {
		return Record{}, fmt.Errorf("update %s: %w", code, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET host_id = ?, participants = ?, pending_requests = ?, drawing_data = ?, updated_at = ? WHERE code = ?`,
		rec.HostID, participants, pending, rec.DrawingData, time.Now().UnixMilli(), code,
	); err != nil {
		return Record{}, fmt.Errorf("update %s: %w", code, err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("update %s: %w", code, err)
	}
	s.fan.publish(rec)
	return rec.Clone(), nil
}

func (s *SQLStore) WriteDrawing(ctx context.Context, code, data string) error {
	_, err := s.Update(ctx, code, func(r *Record) error {
		r.DrawingData = data
		return nil
	})
	return err
}

func (s *SQLStore) Subscribe(ctx context.Context, code string, fn func(Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := load(ctx, s.db, code)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", code, err)
	}
	s.fan.add(ctx, rec, fn)
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
