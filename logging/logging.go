// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	mu    sync.RWMutex
	root  = slog.Default()
	level = new(slog.LevelVar)
)

// ParseLevel converts a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "invalid log level %q", s)
	}
	return l, nil
}

// Init installs the root logger. format is "text" or "json"; the level is
// parsed with ParseLevel. The logger also becomes slog's default.
//
// Arguments:
// - levelName: The minimum level to emit.
// - format: The handler format.
//
// Returns:
// - error if the level or format is unknown.
//
// @example
// if err := logging.Init("debug", "json"); err != nil {
// log.Fatal(err)
// }
func Init(levelName, format string) error {
	return InitWriter(os.Stderr, levelName, format)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, levelName, format string) error {
	l, err := ParseLevel(levelName)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return errors.Errorf("invalid log format %q", format)
	}

	mu.Lock()
	defer mu.Unlock()
	level.Set(l)
	root = slog.New(handler)
	slog.SetDefault(root)
	return nil
}

// SetLevel changes the minimum level of the root logger in place.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Module returns a logger tagged with module=name.
func Module(name string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With(slog.String("module", name))
}
