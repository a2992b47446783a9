package logger

import (
	"io"
	"log/slog"
	"os"
)

// L is the global structured logger. It is initialised to stderr by default;
// stdout is reserved for the inventory document itself.
var L *slog.Logger

func init() {
	L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Init configures the global logger. If logFile is non-empty the output is
// written to both stderr and the file. Verbose lowers the level to debug.
// Returns a cleanup function that must be deferred by the caller.
func Init(logFile string, verbose bool) (func(), error) {
	writers := []io.Writer{os.Stderr}
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		cleanup = func() { f.Close() }
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	w := io.MultiWriter(writers...)
	L = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(L)
	return cleanup, nil
}
