// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger shared by all wavelink
// components. Output goes to stderr by default, optionally mirrored to a
// rotating file and a remote syslog collector.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"grimm.is/wavelink/internal/errors"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, mirrors output to a rotating log file.
	File       string
	MaxSizeMB  int // rotate after this size; 0 means 10
	MaxBackups int
	MaxAgeDays int
	// Syslog optionally forwards output to a remote collector.
	Syslog SyslogConfig
}

// Logger is a leveled key/value logger.
type Logger struct {
	l       *charmlog.Logger
	closers []io.Closer
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level := charmlog.InfoLevel
	if cfg.Level != "" {
		parsed, err := charmlog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindValidation, "invalid log level %q", cfg.Level)
		}
		level = parsed
	}

	writers := []io.Writer{os.Stderr}
	var closers []io.Closer

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize == 0 {
			maxSize = 10
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		writers = append(writers, rotator)
		closers = append(closers, rotator)
	}

	if cfg.Syslog.Enabled {
		sw, err := NewSyslogWriter(cfg.Syslog)
		if err != nil {
			return nil, err
		}
		writers = append(writers, sw)
		closers = append(closers, sw)
	}

	l := charmlog.NewWithOptions(io.MultiWriter(writers...), charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return &Logger{l: l, closers: closers}, nil
}

// NewNop returns a logger that discards everything. Tests use it.
func NewNop() *Logger {
	l := charmlog.NewWithOptions(io.Discard, charmlog.Options{})
	return &Logger{l: l}
}

// With returns a logger that prepends the given key/value pairs to every
// record.
func (lg *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: lg.l.With(keyvals...), closers: nil}
}

func (lg *Logger) Debug(msg string, keyvals ...any) { lg.l.Debug(msg, keyvals...) }
func (lg *Logger) Info(msg string, keyvals ...any)  { lg.l.Info(msg, keyvals...) }
func (lg *Logger) Warn(msg string, keyvals ...any)  { lg.l.Warn(msg, keyvals...) }
func (lg *Logger) Error(msg string, keyvals ...any) { lg.l.Error(msg, keyvals...) }

// Close releases file and network sinks. The base logger owns them;
// loggers derived via With do not.
func (lg *Logger) Close() error {
	var first error
	for _, c := range lg.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
