// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for portfolio components.
//
// Built on slog, with two destinations: stderr for CLI compatibility
// (Unix convention: stdout stays clean for command output) and an
// optional JSON log file per service and day.
//
// Basic usage:
//
//	logger := logging.Default()
//	logger.Info("patch applied", "user_id", userID)
//
// With file logging:
//
//	logger, err := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    LogDir:  "~/.aleutian/logs",
//	    Service: "portfolioctl",
//	})
//	defer logger.Close()
//
// This package does NOT redact sensitive data; callers must keep tokens
// and PII out of log attributes.
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

func (l Level) toSlogLevel() slog.Level {
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

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// Level. Unknown names default to Info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// Config configures a Logger. The zero value logs Info+ to stderr as text.
type Config struct {
	// Level is the minimum severity to emit.
	Level Level

	// LogDir optionally enables file logging. Supports ~ expansion.
	// Files are named {service}_{date}.log and written as JSON.
	LogDir string

	// Service names the component for the log file name.
	// Defaults to "portfolio".
	Service string

	// JSON switches the stderr stream to JSON format.
	JSON bool
}

// Logger wraps slog.Logger with optional file output.
//
// Thread Safety: safe for concurrent use; slog handles locking.
type Logger struct {
	*slog.Logger
	file *os.File
}

// Default returns a stderr-only logger at Info level.
func Default() *Logger {
	logger, _ := New(Config{})
	return logger
}

// New creates a logger from the config. The error is non-nil only when
// file logging was requested and the file could not be opened; the
// returned logger still works on stderr in that case.
func New(cfg Config) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var writer io.Writer = os.Stderr
	var file *os.File
	var fileErr error

	if cfg.LogDir != "" {
		file, fileErr = openLogFile(cfg.LogDir, cfg.Service)
		if file != nil {
			writer = io.MultiWriter(os.Stderr, file)
		}
	}

	var handler slog.Handler
	if cfg.JSON || file != nil {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{Logger: slog.New(handler), file: file}, fileErr
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func openLogFile(dir, service string) (*os.File, error) {
	if service == "" {
		service = "portfolio"
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("expand log dir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
