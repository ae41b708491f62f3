package mailer

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Noop drops every message. Used when SMTP credentials are not
// configured so that webhook processing still succeeds.
type Noop struct{}

func (Noop) Send(ctx context.Context, subject, to, body string) error {
	log.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("Email transport not configured, skipping send")
	return nil
}
