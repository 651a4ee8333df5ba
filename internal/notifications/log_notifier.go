package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes outgoing mail to the log instead of sending it. Used when SMTP is not configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendVerificationEmail(ctx context.Context, in VerificationEmail) error {
	n.log.InfoContext(ctx, "notification.verification_email",
		"email", in.Email,
		"name", in.Name,
		"link", in.Link,
	)
	return nil
}
