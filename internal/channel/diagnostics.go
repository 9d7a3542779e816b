package channel

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// DiagnosticSink returns the writer backends print diagnostics to. Each line
// becomes a debug entry of logger, so nothing a backend prints reaches stdout.
func DiagnosticSink(logger *zap.Logger) *zapio.Writer {
	return &zapio.Writer{Log: logger.Named("diagnostics"), Level: zapcore.DebugLevel}
}

var redirectOnce sync.Once

// RedirectStdLog routes the standard library's log package into logger.
// Only the first call has an effect and the redirect is never undone.
func RedirectStdLog(logger *zap.Logger) {
	redirectOnce.Do(func() {
		_ = zap.RedirectStdLog(logger.Named("stdlog"))
	})
}
