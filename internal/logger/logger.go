package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ekisa-team/vani/internal/env"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "logs/vani.log"

type options struct {
	out       io.Writer
	level     slog.Level
	logFile   string
	logToFile bool
}

// Option configures the logger built by New.
type Option func(*options)

// WithLogToFile enables writing logs to a rotating file next to the console output.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the rotating log file path.
func WithLogFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.logFile = path
		}
	}
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithOutput replaces the console writer (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// New builds a slog.Logger for the given environment. Development gets a
// colored tint handler, everything else gets JSON.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		out:     os.Stdout,
		level:   slog.LevelInfo,
		logFile: defaultLogFile,
	}
	if environment == env.Development {
		o.level = slog.LevelDebug
	}
	for _, opt := range opts {
		opt(o)
	}

	w := o.out
	if o.logToFile {
		w = io.MultiWriter(o.out, &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	var handler slog.Handler
	if environment == env.Development {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      o.level,
			TimeFormat: time.Kitchen,
			NoColor:    o.logToFile,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.level})
	}

	return slog.New(handler)
}
