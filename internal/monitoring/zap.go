package monitoring

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds a production zap logger writing to stderr. verbose
// lowers the level to debug.
func NewZapLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// UseZap routes Logf and Debugf through l. Debug output is only emitted when
// l is enabled at debug level.
func UseZap(l *zap.Logger) {
	s := l.Sugar()
	SetLogger(s.Infof)
	if l.Core().Enabled(zapcore.DebugLevel) {
		SetDebugLogger(s.Debugf)
		return
	}
	SetDebugLogger(nil)
}
