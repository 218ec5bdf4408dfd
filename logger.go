package tagframe

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. Enabled reports false, so a silent store
// never formats tag attributes.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var silent = slog.New(nopHandler{})

// loggerPtr is shared by every Store and by backends that call Logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(silent)
}

// SetLogger sets the logger for tagframe and for backends that log through
// Logger. Nothing is logged until SetLogger is called; nil silences logging
// again. It may be called while stores are in use.
//
// Records carry the buffer type, viewport and frame as attributes:
//   - [slog.LevelDebug]: every tag set and retrieved
//   - [slog.LevelInfo]: lookups of frames nobody has tagged yet
//   - [slog.LevelWarn]: backend trouble that does not fail the call
//   - [slog.LevelError]: missing required tags, rejected SetTag calls
//
// Example:
//
//	// Report missing tags and rejected calls:
//	tagframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelWarn,
//	})))
//
//	// Trace every tag of every frame:
//	tagframe.SetLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	loggerPtr.Store(l)
}

// Logger returns the logger set with SetLogger. Backend packages log
// through it so one call configures the whole stack.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
