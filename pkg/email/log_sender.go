package email

import (
	"context"
	"log/slog"
)

// LogSender implements EmailSender for environments without Postmark
// credentials. Messages are logged instead of delivered.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a development email sender that writes every
// message to the given logger.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email delivery skipped, no provider configured",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag))
	return nil
}
