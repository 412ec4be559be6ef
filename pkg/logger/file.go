package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the operations log.
const (
	DefaultMaxSizeMB  = 5
	DefaultMaxBackups = 2
)

const fileTimeLayout = "2006-01-02 15:04:05"

// FileOptions configures a FileLogger.
type FileOptions struct {
	// Path is the log file location. Its directory is created if missing.
	Path string
	// MaxSizeMB is the size in megabytes at which the file is rotated.
	// Zero selects DefaultMaxSizeMB.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Zero selects
	// DefaultMaxBackups.
	MaxBackups int
	// Debug enables Debug output.
	Debug bool
}

// FileLogger writes "[time] [LEVEL] message" lines to a size-rotated file.
type FileLogger struct {
	sugar  *zap.SugaredLogger
	sink   *lumberjack.Logger
	closed bool
}

// NewFileLogger opens (or creates) the rotating log file described by opts.
func NewFileLogger(opts FileOptions) (*FileLogger, error) {
	if opts.Path == "" {
		return nil, errors.New("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = DefaultMaxSizeMB
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = DefaultMaxBackups
	}
	sink := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(fileTimeLayout) + "]")
		},
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		},
	}
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(sink), level)
	return &FileLogger{
		sugar: zap.New(core).Sugar(),
		sink:  sink,
	}, nil
}

func (f *FileLogger) Debug(format string, args ...interface{}) {
	f.sugar.Debugf(format, args...)
}

func (f *FileLogger) Info(format string, args ...interface{}) {
	f.sugar.Infof(format, args...)
}

func (f *FileLogger) Warning(format string, args ...interface{}) {
	f.sugar.Warnf(format, args...)
}

func (f *FileLogger) Error(format string, args ...interface{}) {
	f.sugar.Errorf(format, args...)
}

// Close flushes buffered entries and closes the log file.
func (f *FileLogger) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	_ = f.sugar.Sync()
	return f.sink.Close()
}

var _ Logger = (*FileLogger)(nil)
