package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"
)

// ParseLogLevel parses a level name. Unknown names fall back to info.
func ParseLogLevel(lvl string) logrus.Level {
	switch lvl {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLogFormatter parses a formatter name.
func ParseLogFormatter(format string) (logrus.Formatter, error) {
	switch format {
	case "", "text":
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ConfigureLogging applies the log settings to the standard logger.
func (c *RelayConfig) ConfigureLogging() error {
	formatter, err := ParseLogFormatter(c.LogFormat)
	if err != nil {
		return err
	}
	logrus.SetFormatter(formatter)
	logrus.SetLevel(ParseLogLevel(c.LogLevel))
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
