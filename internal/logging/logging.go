// Package logging builds the logrus logger used by hrmon.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to out at the given level ("debug", "info",
// ...) in the given format (see ParseFormat).
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed at parsing log level: %w", err)
	}
	formatter, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(formatter)
	return logger, nil
}

// ParseFormat returns the formatter for "text" or "json". An empty format
// means text.
func ParseFormat(format string) (logrus.Formatter, error) {
	switch format {
	case "", "text":
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q, want text or json", format)
	}
}
