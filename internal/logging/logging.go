package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Setup(level string) {
	SetupWriter(os.Stdout, level)
}

// SetupWriter installs a JSON slog handler writing to w as the default logger.
func SetupWriter(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	slog.SetDefault(slog.New(handler).With("service", "landcover-timeline"))
}

func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
