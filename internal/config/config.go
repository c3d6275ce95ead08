// Package config loads settings from the environment and an optional .env
// file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DBPath       string
	Name         string
	MDNS         bool
	LogLevel     slog.Level
	IdentityPath string
}

// Load reads .env files (missing ones are skipped) and then the
// environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	mdns, err := strconv.ParseBool(getEnv("GRIDSPACE_MDNS", "true"))
	if err != nil {
		return nil, fmt.Errorf("GRIDSPACE_MDNS: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("GRIDSPACE_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("GRIDSPACE_LOG_LEVEL: %w", err)
	}

	return &Config{
		Addr:         getEnv("GRIDSPACE_ADDR", ":8888"),
		DBPath:       getEnv("GRIDSPACE_DB", "gridspace.db"),
		Name:         getEnv("GRIDSPACE_NAME", defaultName()),
		MDNS:         mdns,
		LogLevel:     level,
		IdentityPath: getEnv("GRIDSPACE_IDENTITY", defaultIdentityPath()),
	}, nil
}

// Port returns the numeric port of Addr.
func (c *Config) Port() (int, error) {
	i := strings.LastIndex(c.Addr, ":")
	if i < 0 {
		return 0, fmt.Errorf("address %q has no port", c.Addr)
	}
	return strconv.Atoi(c.Addr[i+1:])
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "guest"
}

func defaultIdentityPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gridspace", "identity")
}
