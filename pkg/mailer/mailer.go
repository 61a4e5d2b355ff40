package mailer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/wneessen/go-mail"

	"github.com/pubdesk/pubdesk/pkg/configuration"
)

// Notifier delivers a plain-text notification to a single recipient.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

type smtpNotifier struct {
	client *mail.Client
	from   string
}

// NewSMTPNotifier builds a Notifier backed by the configured SMTP relay.
func NewSMTPNotifier(opts configuration.SMTPOptions) (Notifier, error) {
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
	}
	if opts.User != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.User),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return &smtpNotifier{client: client, from: opts.From}, nil
}

func (n *smtpNotifier) Notify(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return errors.Wrap(err, "invalid sender address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to send mail")
	}
	return nil
}
