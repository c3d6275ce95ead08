package session

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlStore, err := OpenSQL(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	fileStore, err := OpenSQL(filepath.Join(t.TempDir(), "data", "gridspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { fileStore.Close() })

	return map[string]Backend{
		"memory":      NewMemoryStore(),
		"sqlite":      sqlStore,
		"sqlite-file": fileStore,
	}
}

func TestDirectoryLifecycle(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService(backend, nil)

			rec, err := svc.Create(ctx, "host", " Ada ")
			require.NoError(t, err)
			assert.True(t, ValidCode(rec.ShortCode))
			assert.Equal(t, "[]", rec.DrawingData)
			assert.Equal(t, Participant{Name: "Ada", Permission: PermDraw}, rec.Participants["host"])
			assert.Equal(t, PermDraw, rec.PermissionOf("host"))

			stored, err := backend.Get(ctx, rec.ShortCode)
			require.NoError(t, err)
			assert.Equal(t, rec.HostID, stored.HostID)
			assert.True(t, rec.CreatedAt.Equal(stored.CreatedAt))

			rec, err = svc.Join(ctx, " "+strings.ToUpper(rec.ShortCode)+" ", "guest", "Grace")
			require.NoError(t, err)
			assert.Equal(t, PermPending, rec.PermissionOf("guest"))

			_, err = svc.Resolve(ctx, "guest", rec.ShortCode, "guest", true)
			assert.ErrorIs(t, err, ErrForbidden)

			rec, err = svc.Resolve(ctx, "host", rec.ShortCode, "guest", true)
			require.NoError(t, err)
			assert.Equal(t, PermWatch, rec.PermissionOf("guest"))
			assert.Empty(t, rec.PendingRequests)

			rec, err = svc.SetPermission(ctx, "host", rec.ShortCode, "guest", PermDraw)
			require.NoError(t, err)
			assert.Equal(t, PermDraw, rec.PermissionOf("guest"))

			_, err = svc.SetPermission(ctx, "guest", rec.ShortCode, "host", PermNone)
			assert.ErrorIs(t, err, ErrForbidden)
			_, err = svc.SetPermission(ctx, "host", rec.ShortCode, "host", PermWatch)
			assert.ErrorIs(t, err, ErrInvalid)
			_, err = svc.SetPermission(ctx, "host", rec.ShortCode, "guest", PermPending)
			assert.ErrorIs(t, err, ErrInvalid)
			_, err = svc.SetPermission(ctx, "host", rec.ShortCode, "stranger", PermDraw)
			assert.ErrorIs(t, err, ErrNotFound)

			// Joining again as an existing participant changes nothing.
			rec, err = svc.Join(ctx, rec.ShortCode, "guest", "Grace")
			require.NoError(t, err)
			assert.Equal(t, PermDraw, rec.PermissionOf("guest"))
			assert.Empty(t, rec.PendingRequests)

			require.NoError(t, svc.Leave(ctx, rec.ShortCode, "guest"))
			rec, err = backend.Get(ctx, rec.ShortCode)
			require.NoError(t, err)
			assert.Equal(t, PermNone, rec.PermissionOf("guest"))

			n, err := backend.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestDenyRequest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), nil)
	rec, err := svc.Create(ctx, "host", "Ada")
	require.NoError(t, err)
	_, err = svc.Join(ctx, rec.ShortCode, "guest", "Grace")
	require.NoError(t, err)

	rec, err = svc.Resolve(ctx, "host", rec.ShortCode, "guest", false)
	require.NoError(t, err)
	assert.Equal(t, PermNone, rec.PermissionOf("guest"))

	_, err = svc.Resolve(ctx, "host", rec.ShortCode, "guest", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), nil)
	_, err := svc.Create(ctx, "host", "   ")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Join(ctx, "abcde", "guest", "")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Join(ctx, "zzzzz", "guest", "Grace")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := Record{HostID: "h", ShortCode: "aaaaa", DrawingData: "[]"}
			require.NoError(t, backend.Create(ctx, rec))
			assert.ErrorIs(t, backend.Create(ctx, rec), ErrExists)
			_, err := backend.Get(ctx, "bbbbb")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, backend.WriteDrawing(ctx, "bbbbb", "[]"), ErrNotFound)
		})
	}
}

func TestSubscribeDeliversLatestInOrder(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			require.NoError(t, backend.Create(ctx, Record{HostID: "h", ShortCode: "abcde", DrawingData: "[]"}))

			var mu sync.Mutex
			var seen []string
			require.NoError(t, backend.Subscribe(ctx, "abcde", func(r Record) {
				mu.Lock()
				seen = append(seen, r.DrawingData)
				mu.Unlock()
			}))

			require.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(seen) == 1 && seen[0] == "[]"
			}, 2*time.Second, 5*time.Millisecond, "first delivery is the current record")

			var wg sync.WaitGroup
			for _, data := range []string{"[1]", "[2]", "[3]"} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, backend.WriteDrawing(ctx, "abcde", data))
				}()
			}
			wg.Wait()

			final, err := backend.Get(ctx, "abcde")
			require.NoError(t, err)
			require.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(seen) > 0 && seen[len(seen)-1] == final.DrawingData
			}, 2*time.Second, 5*time.Millisecond)

			err = backend.Subscribe(ctx, "nope!", func(Record) {})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, Record{HostID: "h", ShortCode: "abcde"}))

	subCtx, cancel := context.WithCancel(ctx)
	require.NoError(t, store.Subscribe(subCtx, "abcde", func(Record) {}))
	assert.Equal(t, 1, store.fan.count("abcde"))
	cancel()
	require.Eventually(t, func() bool { return store.fan.count("abcde") == 0 }, time.Second, time.Millisecond)
}

func TestRecordCloneIsolatesMaps(t *testing.T) {
	rec := Record{Participants: map[string]Participant{"a": {Name: "A", Permission: PermDraw}}}
	c := rec.Clone()
	c.Participants["b"] = Participant{Name: "B"}
	assert.Len(t, rec.Participants, 1)
	assert.NotNil(t, c.PendingRequests)
}
