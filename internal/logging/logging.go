// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package logging builds the process wide slog logger.
//
// Everything logs through the slog default logger. The CLI installs a
// configured one once at startup via [Setup]. Logs go to stderr or to a
// size rotated file, never to stdout, which belongs to the wrapped
// tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Supported log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Supported log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Supported log sinks.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Config holds the logging settings.
type Config struct {
	// Level is the minimum level that is logged. One of "debug",
	// "info", "warn" or "error".
	Level string `yaml:"level" env:"FORGE_LOG_LEVEL" env-default:"info"`
	// Format of the records, "text" or "json".
	Format string `yaml:"format" env:"FORGE_LOG_FORMAT" env-default:"text"`
	// Output is the sink, "stderr" or "file".
	Output string `yaml:"output" env:"FORGE_LOG_OUTPUT" env-default:"stderr"`
	// FilePath is the log file for the "file" output.
	FilePath string `yaml:"filePath" env:"FORGE_LOG_FILE"`
	// MaxSize is the file size in megabytes before rotation.
	MaxSize int `yaml:"maxSize" env:"FORGE_LOG_MAX_SIZE" env-default:"100"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"maxBackups" env:"FORGE_LOG_MAX_BACKUPS" env-default:"3"`
	// MaxAge is the age of rotated files in days before removal.
	MaxAge int `yaml:"maxAge" env:"FORGE_LOG_MAX_AGE" env-default:"7"`
	// Compress rotated files with gzip.
	Compress bool `yaml:"compress" env:"FORGE_LOG_COMPRESS" env-default:"true"`
}

// Setup installs the configured logger as the process default.
func Setup(cfg Config) {
	slog.SetDefault(New(cfg))
}

// New returns a logger for the configuration.
func New(cfg Config) *slog.Logger {
	return NewWithWriter(cfg, writer(cfg))
}

// NewWithWriter returns a logger for the configuration writing to w.
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler

	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func writer(cfg Config) io.Writer {
	switch cfg.Output {
	case OutputFile:
		return fileWriter(cfg)
	default:
		return os.Stderr
	}
}

// fileWriter returns a size rotated file writer. Any setup problem is
// reported once and falls back to stderr, since there is no logger yet
// to report through.
func fileWriter(cfg Config) io.Writer {
	if cfg.FilePath == "" {
		fmt.Fprintln(os.Stderr, "log file path empty, logging to stderr")

		return os.Stderr
	}

	if dir := filepath.Dir(cfg.FilePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			fmt.Fprintf(os.Stderr,
				"create log directory: %v, logging to stderr\n", err)

			return os.Stderr
		}
	}

	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

func parseLevel(level string) slog.Level {
	switch level {
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
