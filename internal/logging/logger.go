// Package logging builds the process logger from configuration.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hmans/todograph/internal/config"
)

// New returns a logrus logger configured from cfg.
// When cfg.File is set, output goes to a rotated file instead of stderr.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	logger.SetOutput(out)

	return logger, nil
}

// PanicLogger reports resolver panics recovered by the GraphQL engine.
type PanicLogger struct {
	Log logrus.FieldLogger
}

// LogPanic implements the graphql-go log.Logger interface.
func (p *PanicLogger) LogPanic(_ context.Context, value interface{}) {
	p.Log.WithField("panic", value).Error("graphql: resolver panic")
}
