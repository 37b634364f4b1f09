package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// ConsoleLogger writes human-readable log lines to stderr.
// Verbose maps to zap's debug level and is only emitted in verbose mode.
type ConsoleLogger struct {
	sugar *zap.SugaredLogger
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if term.IsTerminal(int(os.Stderr.Fd())) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return NewConsoleLoggerWithCore(core)
}

// NewConsoleLoggerWithCore wraps an existing zap core. Tests pass an observer core.
func NewConsoleLoggerWithCore(core zapcore.Core) *ConsoleLogger {
	return &ConsoleLogger{sugar: zap.New(core).Named("usaccidents").Sugar()}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries.
func (l *ConsoleLogger) Sync() error {
	return l.sugar.Sync()
}
