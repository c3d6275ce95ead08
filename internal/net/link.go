package net

import (
	"fmt"
	"net/url"
	"strings"

	"GridSpace/internal/session"
)

// Scheme prefixes share links.
const Scheme = "gridspace://"

// Link points at a session. Addr is empty when only the code is known and
// the server has to be found by browsing.
type Link struct {
	Addr string
	Code string
}

func (l Link) String() string {
	if l.Addr == "" {
		return Scheme + l.Code
	}
	return Scheme + l.Addr + "/" + l.Code
}

// IsLink reports whether s looks like a share link.
func IsLink(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseLink accepts gridspace://host:port/code and gridspace://code.
func ParseLink(s string) (Link, error) {
	if !IsLink(s) {
		return Link{}, fmt.Errorf("%q is not a %s link", s, Scheme)
	}
	u, err := url.Parse(strings.TrimSuffix(s, "/"))
	if err != nil {
		return Link{}, fmt.Errorf("parse link: %w", err)
	}
	var l Link
	if p := strings.Trim(u.Path, "/"); p != "" {
		l = Link{Addr: u.Host, Code: p}
	} else {
		l = Link{Code: u.Host}
	}
	l.Code = session.NormalizeCode(l.Code)
	if !session.ValidCode(l.Code) {
		return Link{}, fmt.Errorf("link %q has no valid session code: %w", s, session.ErrInvalid)
	}
	return l, nil
}
