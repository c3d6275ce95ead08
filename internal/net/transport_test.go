package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSpace/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	srv := NewServer(store, session.NewService(store, nil), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func newTestClient(t *testing.T, ts *httptest.Server, user string) *Client {
	t.Helper()
	c, err := NewClient(ts.URL, user, nil)
	require.NoError(t, err)
	return c
}

func TestDirectoryOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	host := newTestClient(t, ts, "host")
	guest := newTestClient(t, ts, "guest")

	rec, err := host.Create(ctx, "host", "Ada")
	require.NoError(t, err)
	code := rec.ShortCode
	assert.Equal(t, session.PermDraw, rec.PermissionOf("host"))

	rec, err = guest.Join(ctx, strings.ToUpper(code), "guest", "Grace")
	require.NoError(t, err)
	assert.Equal(t, session.PermPending, rec.PermissionOf("guest"))

	_, err = guest.Resolve(ctx, "guest", code, "guest", true)
	assert.ErrorIs(t, err, session.ErrForbidden)

	rec, err = host.Resolve(ctx, "host", code, "guest", true)
	require.NoError(t, err)
	assert.Equal(t, session.PermWatch, rec.PermissionOf("guest"))

	assert.ErrorIs(t, guest.WriteDrawing(ctx, code, "[]"), session.ErrForbidden, "watchers cannot write")

	_, err = host.SetPermission(ctx, "host", code, "guest", "admin")
	assert.ErrorIs(t, err, session.ErrInvalid)
	rec, err = host.SetPermission(ctx, "host", code, "guest", session.PermDraw)
	require.NoError(t, err)
	assert.Equal(t, session.PermDraw, rec.PermissionOf("guest"))

	data := `[{"type":"circle","id":"c","x":1,"y":2,"radius":3,"color":"#fff","lineWidth":1}]`
	require.NoError(t, guest.WriteDrawing(ctx, code, data))
	rec, err = guest.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, data, rec.DrawingData)

	assert.ErrorIs(t, guest.Leave(ctx, code, "host"), session.ErrForbidden)
	require.NoError(t, guest.Leave(ctx, code, "guest"))
	rec, err = host.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, session.PermNone, rec.PermissionOf("guest"))

	_, err = host.Get(ctx, "zzzzz")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStatus(t *testing.T) {
	ts, store := newTestServer(t)
	require.NoError(t, store.Create(context.Background(), session.Record{ShortCode: "abcde"}))

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var st statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 1, st.Sessions)
	assert.Zero(t, st.Watchers)
}

func TestBadBody(t *testing.T) {
	ts, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/sessions", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set(UserHeader, "host")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWatchStreamsRecords(t *testing.T) {
	ts, store := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	host := newTestClient(t, ts, "host")
	rec, err := host.Create(ctx, "host", "Ada")
	require.NoError(t, err)

	var mu sync.Mutex
	var got []string
	require.NoError(t, host.Subscribe(ctx, rec.ShortCode, func(r session.Record) {
		mu.Lock()
		got = append(got, r.DrawingData)
		mu.Unlock()
	}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "[]"
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, host.WriteDrawing(ctx, rec.ShortCode, `[{"type":"path","id":"p","path":[{"x":0,"y":0}],"color":"#000","lineWidth":2}]`))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2 && strings.Contains(got[len(got)-1], `"id":"p"`)
	}, 2*time.Second, 5*time.Millisecond)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = host.Subscribe(ctx, "zzzzz", func(session.Record) {})
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(session.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusOf(session.ErrExists))
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
}
