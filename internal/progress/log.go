package progress

import (
	"go.uber.org/zap"
)

// Log writes phase changes, failures and completions to a zap logger.
// Percent updates are logged at debug level only.
type Log struct {
	log *zap.Logger
}

// NewLog creates a logging sink.
func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

// Publish implements Sink.
func (l *Log) Publish(e Event) {
	fields := []zap.Field{
		zap.String("job", e.JobID),
		zap.String("link", e.Link),
		zap.String("phase", string(e.Phase)),
	}
	if e.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", e.Attempt))
	}

	switch e.Phase {
	case PhaseError:
		fields = append(fields, zap.Error(e.Err), zap.Bool("final", e.Final))
		l.log.Error(e.Message, fields...)
	case PhaseFinished:
		l.log.Info(e.Message, fields...)
	default:
		if e.HasPercent() {
			fields = append(fields, zap.Float64("percent", e.Percent), zap.String("eta", e.ETAString()))
			l.log.Debug(e.Message, fields...)
			return
		}
		l.log.Info(e.Message, fields...)
	}
}
