// Package logging builds the zap logger used across the editor from the
// logging section of the configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"evalgo.org/schemaeditor/internal/config"
)

var encoderConfig = zapcore.EncoderConfig{
	MessageKey:     "m",
	LevelKey:       "l",
	TimeKey:        "t",
	NameKey:        "n",
	CallerKey:      "c",
	StacktraceKey:  "s",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
	EncodeName:     zapcore.FullNameEncoder,
}

// levelRange enables the levels in [min, max].
type levelRange struct {
	min zapcore.Level
	max zapcore.Level
}

func (r levelRange) Enabled(level zapcore.Level) bool {
	return level >= r.min && level <= r.max
}

// New builds a logger writing to the process streams.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	return NewWithWriters(cfg, os.Stdout, os.Stderr)
}

// NewWithWriters builds a logger for cfg. With output "stdout", errors go
// to errOut and everything below error goes to out. With output "stderr"
// every entry goes to errOut, which keeps stdout free for command output.
func NewWithWriters(cfg config.LoggingConfig, out, errOut io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "text", "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid logging format %q", cfg.Format)
	}

	errSink := zapcore.Lock(zapcore.AddSync(errOut))
	var core zapcore.Core
	switch cfg.Output {
	case "stdout":
		core = zapcore.NewTee(
			zapcore.NewCore(encoder, errSink, levelRange{min: maxLevel(level, zapcore.ErrorLevel), max: zapcore.FatalLevel}),
			zapcore.NewCore(encoder.Clone(), zapcore.Lock(zapcore.AddSync(out)), levelRange{min: level, max: zapcore.WarnLevel}),
		)
	case "stderr", "":
		core = zapcore.NewCore(encoder, errSink, levelRange{min: level, max: zapcore.FatalLevel})
	default:
		return nil, fmt.Errorf("invalid logging output %q", cfg.Output)
	}

	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func maxLevel(a, b zapcore.Level) zapcore.Level {
	if a > b {
		return a
	}
	return b
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
