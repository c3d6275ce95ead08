// Package replica replicates a Document through the drawingData field of a
// session record. Writes are whole-document and last-writer-wins.
package replica

import (
	"context"
	"log/slog"

	"GridSpace/internal/notify"
	"GridSpace/internal/session"
	"GridSpace/internal/state"
)

// Channel publishes local snapshots and delivers remote ones for a single
// session. Publish never blocks: pending snapshots coalesce and only the
// newest one is written.
type Channel struct {
	store session.Store
	code  string
	log   *slog.Logger
	slot  *notify.Slot[state.Document]
}

func New(store session.Store, code string, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		store: store,
		code:  code,
		log:   logger.With("component", "replica", "code", code),
		slot:  notify.NewSlot[state.Document](),
	}
}

// Publish queues doc for writing.
func (c *Channel) Publish(doc state.Document) {
	c.slot.Put(doc)
}

// Run writes queued snapshots until ctx is done. A failed write is logged and
// dropped; the next edit publishes the whole document again.
func (c *Channel) Run(ctx context.Context) error {
	c.slot.Drain(ctx, func(doc state.Document) {
		c.write(ctx, doc)
	})
	return nil
}

// Flush writes whatever is still queued. Used on shutdown so the last edit
// is not lost.
func (c *Channel) Flush(ctx context.Context) {
	if doc, ok := c.slot.Take(); ok {
		c.write(ctx, doc)
	}
}

func (c *Channel) write(ctx context.Context, doc state.Document) {
	data, err := state.Encode(doc)
	if err != nil {
		c.log.Error("encode document", "err", err)
		return
	}
	if err := c.store.WriteDrawing(ctx, c.code, data); err != nil {
		if ctx.Err() == nil {
			c.log.Warn("publish failed", "err", err, "elements", len(doc))
		}
		return
	}
	c.log.Debug("published", "elements", len(doc), "bytes", len(data))
}

// Subscribe calls fn with every version of the session record together with
// its decoded drawing. Calls are sequential and in store order.
func (c *Channel) Subscribe(ctx context.Context, fn func(session.Record, state.Document)) error {
	return c.store.Subscribe(ctx, c.code, func(rec session.Record) {
		fn(rec, c.decode(rec.DrawingData))
	})
}

func (c *Channel) decode(data string) state.Document {
	doc, err := Decode(data)
	if err != nil {
		c.log.Warn("malformed drawing data, using empty document", "err", err, "bytes", len(data))
	}
	return doc
}

// Decode parses drawingData. Malformed input yields an empty document along
// with the parse error.
func Decode(data string) (state.Document, error) {
	doc, err := state.Decode(data)
	if err != nil {
		return state.Document{}, err
	}
	return doc, nil
}
