// Package log is the process-wide structured logger for go-mocap.
//
// Packages take a child logger with Component at construction time. The
// handler is chosen once by Init: JSON when GO_ENV=production or
// MOCAP_LOG_FORMAT=json, text otherwise, always on stderr so the
// commands' own stdout lines stay readable.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	current atomic.Pointer[slog.Logger]
	level   = new(slog.LevelVar)
	once    sync.Once
)

// ParseLevel maps "debug", "info", "warn" and "error" onto slog levels.
// Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func jsonFormat() bool {
	return os.Getenv("GO_ENV") == "production" || strings.EqualFold(os.Getenv("MOCAP_LOG_FORMAT"), "json")
}

// Init installs the global handler at the given level. Later calls only
// change the level.
func Init(lvl string) {
	level.Set(ParseLevel(lvl))
	once.Do(func() {
		install(os.Stderr, jsonFormat())
	})
}

// SetOutput redirects logging to w, mainly for tests.
func SetOutput(w io.Writer, json bool) {
	once.Do(func() {})
	install(w, json)
}

func install(w io.Writer, json bool) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		h = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(h)
	current.Store(l)
	slog.SetDefault(l)
}

// L returns the global logger, initializing it at info level on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init("info")
	return current.Load()
}

// Component returns a logger tagged with component=name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }
