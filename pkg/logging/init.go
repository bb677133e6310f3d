package logging

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// Initialize installs the default slog logger. Driver logs go to stderr;
// stdout stays reserved for simulator output passthrough.
func Initialize(loggingType string, logLevelName string) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(logLevelName)); err != nil {
		return fmt.Errorf("could not parse log level: %v", err)
	}

	var logHandler slog.Handler
	switch loggingType {
	case JSON:
		logHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	case Text:
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	case Tint:
		logHandler = tint.NewHandler(os.Stderr, &tint.Options{Level: logLevel})
	default:
		return fmt.Errorf("unknown logging type: %s", loggingType)
	}

	slog.SetDefault(slog.New(logHandler))
	return nil
}
