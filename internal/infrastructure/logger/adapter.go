package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mpc-refresher/internal/application/port/output"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	Level string
	// Dir receives one JSON log file per run. Empty sends JSON to stderr.
	Dir string
	// Development adds a human-readable console core on stderr.
	Development bool
}

type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	path  string
	// file is set on the root logger only; derived loggers share it.
	file *os.File
}

// NewLoggerAdapter builds a zap logger for a run named name. The log file is
// <dir>/<timestamp>_<name>.log.
func NewLoggerAdapter(name string, cfg Config) (*LoggerAdapter, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var (
		cores []zapcore.Core
		path  string
		file  *os.File
	)

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig())

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}

		filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(name))
		path = filepath.Join(cfg.Dir, filename)

		file, err = os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.Lock(file), level))
	} else {
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.Lock(os.Stderr), level))
	}

	if cfg.Development {
		devEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(devEncoder, zapcore.Lock(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	return &LoggerAdapter{
		sugar: logger.Sugar(),
		path:  path,
		file:  file,
	}, nil
}

// NewNop returns a logger that discards everything. Used by tests and as a
// fallback when the log file cannot be created.
func NewNop() *LoggerAdapter {
	return &LoggerAdapter{sugar: zap.NewNop().Sugar()}
}

// Path is the log file location, empty when logging to stderr.
func (l *LoggerAdapter) Path() string {
	return l.path
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{
		sugar: l.sugar.With(key, value),
		path:  l.path,
	}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	return &LoggerAdapter{
		sugar: l.sugar.With(args...),
		path:  l.path,
	}
}

// Close flushes buffered entries and closes the log file. Sync on a terminal
// returns EINVAL on some platforms, which is not worth reporting.
func (l *LoggerAdapter) Close() error {
	if l.sugar == nil {
		return nil
	}
	syncErr := l.sugar.Sync()
	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	if syncErr != nil {
		return syncErr
	}
	return err
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "run"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
