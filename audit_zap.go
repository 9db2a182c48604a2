package autologin

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink is an AuditSink that writes each event as a structured zap
// entry. Failures log at warn level, everything else at info.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink describes the newzapsink operation and its observable behavior.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Emit describes the emit operation and its observable behavior.
func (s *ZapSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.AttemptID != "" {
		fields = append(fields, zap.String("attempt_id", event.AttemptID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.TokenPrefix != "" {
		fields = append(fields, zap.String("token_prefix", event.TokenPrefix))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String("meta_"+k, v))
	}

	if event.Success {
		s.logger.Info("audit", fields...)
		return
	}
	s.logger.Warn("audit", fields...)
}
