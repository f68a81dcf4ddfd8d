// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for TeamSync services.
//
// Built on the standard library slog package. By default logs go to stderr
// as JSON; setting Config.LogDir additionally writes a per-service daily
// file. The returned Logger can be installed as the process default so that
// plain slog calls throughout the codebase inherit the configuration.
//
// This package does NOT redact sensitive data. Callers must keep tokens and
// credentials out of log attributes:
//
//	// BAD: logs the token
//	logger.Info("auth", "token", token)
//
//	// GOOD: log metadata only
//	logger.Info("auth", "token_present", token != "")
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string onto a Level. Unknown strings default to
// Info so a typo in an env var never silences errors.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config controls logger construction.
type Config struct {
	// Level is the minimum severity emitted.
	Level Level

	// Service names the emitting service; it becomes a "service" attribute
	// on every record and the log file name prefix.
	Service string

	// LogDir, when non-empty, enables file logging alongside stderr. The
	// directory is created if missing. Supports a leading ~.
	LogDir string
}

// Logger wraps slog with an owned log file. Close flushes and releases the
// file; the zero value is not usable, construct via New or Default.
type Logger struct {
	*slog.Logger
	file *os.File
}

// Default returns a stderr-only JSON logger at Info level.
func Default(service string) *Logger {
	l, _ := New(Config{Level: LevelInfo, Service: service})
	return l
}

// New builds a logger from the config. File logging failures degrade to
// stderr-only rather than failing startup.
func New(cfg Config) (*Logger, error) {
	var out io.Writer = os.Stderr
	var file *os.File

	if cfg.LogDir != "" {
		dir, err := expandHome(cfg.LogDir)
		if err == nil {
			err = os.MkdirAll(dir, 0750)
		}
		if err == nil {
			name := fmt.Sprintf("%s_%s.log", cfg.Service, time.Now().Format("2006-01-02"))
			file, err = os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: file output disabled: %v\n", err)
		} else {
			out = io.MultiWriter(os.Stderr, file)
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level.slogLevel()})
	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return &Logger{Logger: logger, file: file}, nil
}

// SetAsDefault installs this logger as the slog process default.
func (l *Logger) SetAsDefault() {
	slog.SetDefault(l.Logger)
}

// Close releases the log file if one is open.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func expandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}
