package logging

import (
	"log/slog"
	"os"
)

// Setup installs the default slog logger for the given service
func Setup(service string, debug bool) *slog.Logger {
	var opts *slog.HandlerOptions
	if debug {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts)).With(
		slog.String("service", service),
	)
	slog.SetDefault(logger)
	return logger
}
