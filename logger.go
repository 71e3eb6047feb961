package sprite

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for sprite and the devices of every
// open renderer. By default sprite produces no log output.
//
// Pass nil to restore the silent default.
//
// Log levels used by sprite:
//   - [slog.LevelDebug]: flush reasons, pipeline creation, texture uploads
//   - [slog.LevelInfo]: renderer selected, shader installed, video mode
//   - [slog.LevelWarn]: backend fallback, invalid shaders, degraded features
//   - [slog.LevelError]: device failures while flushing a batch
//
// Example:
//
//	sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	devices := make([]any, 0, len(liveDevices))
	for d := range liveDevices {
		devices = append(devices, d)
	}
	liveMu.Unlock()
	for _, d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by sprite.
// Sub-packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// liveDevices holds the devices of open renderers so that SetLogger can
// reach them.
var (
	liveMu      sync.Mutex
	liveDevices = make(map[any]struct{})
)

func trackDevice(d any) {
	liveMu.Lock()
	liveDevices[d] = struct{}{}
	liveMu.Unlock()
	propagateLogger(d, Logger())
}

func untrackDevice(d any) {
	liveMu.Lock()
	delete(liveDevices, d)
	liveMu.Unlock()
}

func propagateLogger(d any, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
