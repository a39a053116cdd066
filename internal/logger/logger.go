package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely logs are written.
type Options struct {
	Level string
	// File, when set, receives a plain-text copy of every record and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Setup(opts Options) {
	slog.SetDefault(New(os.Stderr, opts))
}

// New builds a logger writing colorized output to w, plus the rotating file from opts.
func New(w io.Writer, opts Options) *slog.Logger {
	logLevel := ParseLevel(opts.Level)

	handler := tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})

	if strings.TrimSpace(opts.File) == "" {
		return slog.New(handler)
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	fileWriter := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize, // megabytes
		MaxBackups: maxBackups,
		MaxAge:     28, // days
		Compress:   true,
	}
	fileHandler := slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: logLevel})

	return slog.New(&fanout{handlers: []slog.Handler{handler, fileHandler}})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
