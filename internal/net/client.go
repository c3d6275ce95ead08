package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"GridSpace/internal/session"
)

const redialInterval = time.Second

// Client talks to a Server. It implements session.Store for the board and
// session.Directory for the lobby.
type Client struct {
	base *url.URL
	user string
	http *http.Client
	log  *slog.Logger
}

var (
	_ session.Store     = (*Client)(nil)
	_ session.Directory = (*Client)(nil)
)

// NewClient returns a client for the server at addr (host:port or a full
// http URL) acting as user.
func NewClient(addr, user string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw := addr
	if !hasScheme(raw) {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server address %q: %w", addr, err)
	}
	return &Client{
		base: base,
		user: user,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  logger.With("component", "client", "server", base.Host),
	}, nil
}

func hasScheme(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func (c *Client) Get(ctx context.Context, code string) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodGet, c.user, nil, &rec, "sessions", code)
	return rec, err
}

func (c *Client) WriteDrawing(ctx context.Context, code, data string) error {
	return c.do(ctx, http.MethodPut, c.user, drawingRequest{DrawingData: data}, nil, "sessions", code, "drawing")
}

func (c *Client) Create(ctx context.Context, hostID, name string) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodPost, hostID, nameRequest{Name: name}, &rec, "sessions")
	return rec, err
}

func (c *Client) Join(ctx context.Context, code, userID, name string) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodPost, userID, nameRequest{Name: name}, &rec, "sessions", session.NormalizeCode(code), "requests")
	return rec, err
}

func (c *Client) Resolve(ctx context.Context, actor, code, userID string, approve bool) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodPost, actor, resolveRequest{Approve: approve}, &rec, "sessions", code, "requests", userID)
	return rec, err
}

func (c *Client) SetPermission(ctx context.Context, actor, code, userID string, perm session.Permission) (session.Record, error) {
	var rec session.Record
	err := c.do(ctx, http.MethodPut, actor, permissionRequest{Permission: perm}, &rec, "sessions", code, "participants", userID)
	return rec, err
}

// Leave removes userID from the session, acting as the client's own user.
func (c *Client) Leave(ctx context.Context, code, userID string) error {
	return c.do(ctx, http.MethodDelete, c.user, nil, nil, "sessions", code, "participants", userID)
}

// Subscribe opens the watch stream. The first dial happens before Subscribe
// returns so an unknown session is reported as session.ErrNotFound; after
// that the stream is redialed until ctx is done.
func (c *Client) Subscribe(ctx context.Context, code string, fn func(session.Record)) error {
	conn, err := c.dial(ctx, code)
	if err != nil {
		return err
	}
	go func() {
		for {
			err := c.stream(ctx, conn, fn)
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("watch stream lost", "code", code, "err", err)
			for conn = nil; conn == nil; {
				if !sleep(ctx, redialInterval) {
					return
				}
				if conn, err = c.dial(ctx, code); err != nil {
					c.log.Debug("redial failed", "code", code, "err", err)
				}
			}
		}
	}()
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Client) dial(ctx context.Context, code string) (*websocket.Conn, error) {
	u := c.base.JoinPath("sessions", code, "watch")
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	header := http.Header{}
	header.Set(UserHeader, c.user)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, fmt.Errorf("watch %s: %w", code, responseError(resp))
		}
		return nil, fmt.Errorf("watch %s: %w", code, err)
	}
	return conn, nil
}

// stream reads records until the connection fails or ctx is done.
func (c *Client) stream(ctx context.Context, conn *websocket.Conn, fn func(session.Record)) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var rec session.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			c.log.Warn("bad record on watch stream", "err", err)
			continue
		}
		fn(rec.Clone())
	}
}

func (c *Client) do(ctx context.Context, method, actor string, body, out any, path ...string) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	u := c.base.JoinPath(path...)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	req.Header.Set(UserHeader, actor)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %w", method, u.Path, responseError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, u.Path, err)
	}
	return nil
}

// responseError maps an error response back to the session sentinels.
func responseError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}
	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = session.ErrNotFound
	case http.StatusForbidden:
		sentinel = session.ErrForbidden
	case http.StatusBadRequest:
		sentinel = session.ErrInvalid
	case http.StatusConflict:
		sentinel = session.ErrExists
	default:
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, sentinel)
}
