package cli

import "go.uber.org/zap"

// debugLogger wraps zap for verbose diagnostics around session
// lifecycle and command plumbing.
type debugLogger struct {
	sugared *zap.SugaredLogger
	zlog    *zap.Logger
}

func newDebugLogger(globals *Globals) *debugLogger {
	if globals == nil || !globals.Verbose {
		return &debugLogger{}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	logger, _ := cfg.Build()
	return &debugLogger{
		sugared: logger.Sugar(),
		zlog:    logger,
	}
}

func (l *debugLogger) Debug(format string, args ...interface{}) {
	if l.sugared == nil {
		return
	}
	l.sugared.Debugf(format, args...)
}

// Zap exposes the underlying logger for insight.WithLogger wiring; nil
// when verbose mode is off.
func (l *debugLogger) Zap() *zap.Logger {
	return l.zlog
}
