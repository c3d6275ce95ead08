package session

import (
	"context"
	"sync"

	"GridSpace/internal/notify"
)

// fanout delivers record versions to subscribers. Callers hold their store's
// write lock while calling add and publish so that every subscriber observes
// versions in store order.
type fanout struct {
	mu   sync.Mutex
	subs map[string]map[*notify.Slot[Record]]struct{}
}

func newFanout() *fanout {
	return &fanout{subs: make(map[string]map[*notify.Slot[Record]]struct{})}
}

// add registers fn for code, primes it with current and starts delivery.
func (f *fanout) add(ctx context.Context, current Record, fn func(Record)) {
	slot := notify.NewSlot[Record]()
	slot.Put(current.Clone())

	code := current.ShortCode
	f.mu.Lock()
	if f.subs[code] == nil {
		f.subs[code] = make(map[*notify.Slot[Record]]struct{})
	}
	f.subs[code][slot] = struct{}{}
	f.mu.Unlock()

	go func() {
		slot.Drain(ctx, fn)
		f.mu.Lock()
		delete(f.subs[code], slot)
		if len(f.subs[code]) == 0 {
			delete(f.subs, code)
		}
		f.mu.Unlock()
	}()
}

func (f *fanout) publish(rec Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for slot := range f.subs[rec.ShortCode] {
		slot.Put(rec.Clone())
	}
}

func (f *fanout) count(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[code])
}
