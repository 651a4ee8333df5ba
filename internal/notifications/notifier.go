package notifications

import "context"

type VerificationEmail struct {
	Email string
	Name  string
	Link  string
}

type Notifier interface {
	SendVerificationEmail(ctx context.Context, in VerificationEmail) error
}
