// Package logging configures the logrus logger shared by the CLI and server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level and an optional rotated log file.
type Options struct {
	Level      string // logrus level name, "info" when empty
	File       string // rotated log file; console only when empty
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	JSON       bool
}

// New builds a logger writing to console and, when File is set, to a
// rotated file as well. The returned closer releases the file.
func New(console io.Writer, opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if console == nil {
		console = os.Stderr
	}
	if opts.File == "" {
		logger.SetOutput(console)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("could not create log directory: %w", err)
	}
	fileWriter := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}
	logger.SetOutput(io.MultiWriter(console, fileWriter))
	logger.WithField("file", opts.File).Debug("Logging to file")
	return logger, fileWriter, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
