// Package board joins one session and keeps a local interaction machine in
// sync with the session store.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"GridSpace/internal/interact"
	"GridSpace/internal/replica"
	"GridSpace/internal/session"
	"GridSpace/internal/state"
)

const flushTimeout = 3 * time.Second

// Client is one user's view of a session.
type Client struct {
	Machine *interact.Machine

	store   session.Store
	code    string
	user    string
	channel *replica.Channel
	log     *slog.Logger

	// drawing is the last drawingData handed to the machine. Only the
	// subscription goroutine touches it after Open.
	drawing string

	mu       sync.Mutex
	record   session.Record
	versions int
	onRecord func(session.Record)
}

// Open loads the session record and builds a machine showing its drawing.
// Nothing is replicated until Run is called.
func Open(ctx context.Context, store session.Store, code string, id session.IdentityProvider, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	code = session.NormalizeCode(code)
	rec, err := store.Get(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("open board %s: %w", code, err)
	}
	user := id.UserID()
	log := logger.With("component", "board", "code", code)

	doc, err := replica.Decode(rec.DrawingData)
	if err != nil {
		log.Warn("malformed drawing data, starting empty", "err", err)
	}

	ch := replica.New(store, code, logger)
	m := interact.NewMachine(user, doc, ch, logger)
	m.SetAccess(rec.PermissionOf(user), rec.IsHost(user))

	return &Client{
		Machine: m,
		store:   store,
		code:    code,
		user:    user,
		channel: ch,
		log:     log,
		drawing: rec.DrawingData,
		record:  rec,
	}, nil
}

// OnRecord registers fn to be called with every record version received.
func (c *Client) OnRecord(fn func(session.Record)) {
	c.mu.Lock()
	c.onRecord = fn
	c.mu.Unlock()
}

// Run replicates until ctx is done. Snapshots still queued at that point are
// written before Run returns.
func (c *Client) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if err := c.channel.Subscribe(ctx, c.remote); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.code, err)
	}
	g.Go(func() error {
		return c.channel.Run(ctx)
	})
	c.log.Info("joined", "user", c.user, "permission", c.Permission())

	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	c.channel.Flush(flushCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// remote handles one record version from the store. Versions that only
// change membership or permissions leave the board alone. The machine is
// updated before the cached record so Record never runs ahead of the board.
func (c *Client) remote(rec session.Record, doc state.Document) {
	c.Machine.SetAccess(rec.PermissionOf(c.user), rec.IsHost(c.user))
	if rec.DrawingData != c.drawing {
		c.drawing = rec.DrawingData
		c.Machine.ApplyRemote(doc)
	}

	c.mu.Lock()
	c.record = rec
	c.versions++
	fn := c.onRecord
	c.mu.Unlock()
	if fn != nil {
		fn(rec)
	}
}

// Record returns the last session record seen.
func (c *Client) Record() session.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

func (c *Client) Permission() session.Permission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.PermissionOf(c.user)
}

func (c *Client) Code() string   { return c.code }
func (c *Client) UserID() string { return c.user }
