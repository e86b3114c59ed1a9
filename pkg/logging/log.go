package logging

import (
	"log/slog"
	"os"
)

// Logger is usable before Init so packages and tests can log unconditionally.
var Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func Init(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "prod" {
		Logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		opts.Level = slog.LevelDebug
		Logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(Logger)
}
