// Package mailer delivers redemption codes to payers over SMTP.
package mailer

import "context"

// Service sends a plain-text message to a single recipient.
type Service interface {
	Send(ctx context.Context, subject, to, body string) error
}
