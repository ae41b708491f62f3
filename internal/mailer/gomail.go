package mailer

import (
	"context"

	"github.com/go-gomail/gomail"
)

// Gomail sends mail through an SMTP account (Gmail app passwords in
// the default deployment).
type Gomail struct {
	dialer *gomail.Dialer
	from   string
}

func NewGomail(host string, port int, username, password, from string) *Gomail {
	d := gomail.NewDialer(host, port, username, password)
	// Port 465 is implicit TLS; 587 negotiates STARTTLS on its own.
	d.SSL = port == 465
	if from == "" {
		from = username
	}
	return &Gomail{dialer: d, from: from}
}

func (g *Gomail) Send(ctx context.Context, subject, to, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return g.dialer.DialAndSend(m)
}
