package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
)

// Mailgun delivers mail directly through the Mailgun API. Used by the
// queue worker, and as the gateway when no relay is configured.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

func (m *Mailgun) Send(ctx context.Context, recipient, subject, text string) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	msg := client.NewMessage(m.Sender, subject, text, recipient)
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, _, err := client.Send(c, msg); err != nil {
		return autherr.Upstream("mail delivery failed", err)
	}
	return nil
}

var _ Gateway = (*Mailgun)(nil)
