package diag

import "go.uber.org/zap"

// ZapSink adapts a zap logger to the Sink interface.
type ZapSink struct {
	sugar *zap.SugaredLogger
}

// NewZapSink wraps logger as a Sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{sugar: logger.Sugar()}
}

// Log forwards to the zap level matching the severity.
func (z *ZapSink) Log(level Severity, msg string) {
	switch level {
	case Debug:
		z.sugar.Debug(msg)
	case Info:
		z.sugar.Info(msg)
	case Warning:
		z.sugar.Warn(msg)
	default:
		z.sugar.Error(msg)
	}
}
