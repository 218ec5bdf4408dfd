package native

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/tagframe"
)

// override is the logger set with SetLogger, or nil.
var override atomic.Pointer[slog.Logger]

// slogger returns the backend logger: the override if one is set, otherwise
// whatever tagframe.SetLogger configured.
func slogger() *slog.Logger {
	if l := override.Load(); l != nil {
		return l
	}
	return tagframe.Logger()
}

// SetLogger routes native backend logs to l instead of tagframe.Logger.
// Pass nil to follow tagframe.Logger again.
//
// Example:
//
//	// Keep the store quiet but watch clone pool evictions:
//	native.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	override.Store(l)
}
