package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// IdentityProvider supplies the opaque, stable id of the local user.
type IdentityProvider interface {
	UserID() string
}

// StaticIdentity is a fixed user id.
type StaticIdentity string

func (s StaticIdentity) UserID() string { return string(s) }

// LoadIdentity reads the user id stored at path, creating a new random one
// on first use.
func LoadIdentity(path string) (StaticIdentity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			return StaticIdentity(id), nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read identity: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return StaticIdentity(id), nil
}
