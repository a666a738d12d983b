package email

import (
	"context"
)

// Service delivers the email leg of critical-alert notifications.
type Service interface {
	SendAlert(ctx context.Context, to []string, subject string, body string) error
}
