package ui

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the printf-style logger handed to every component.
type Logger struct {
	Debug bool
	s     *zap.SugaredLogger
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg
}

// NewLogger writes to stderr so command output on stdout stays clean.
// Debug messages are dropped unless debug is set.
func NewLogger(debug bool) *Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)

	return FromCore(core, debug)
}

func FromCore(core zapcore.Core, debug bool) *Logger {
	return &Logger{Debug: debug, s: zap.New(core).Sugar()}
}

func NopLogger() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.s.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s.Errorf(format, args...)
}

// Named returns a child logger whose lines carry name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Debug: l.Debug, s: l.s.Named(name)}
}

func (l *Logger) Sync() {
	_ = l.s.Sync()
}
