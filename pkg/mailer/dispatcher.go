package mailer

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/pubdesk/pubdesk/pkg/outbox"
)

// Envelope is the JSON payload stored in notification_outbox for deferred
// delivery.
type Envelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type dispatcher struct {
	notifier Notifier
}

// NewDispatcher adapts a Notifier to the outbox relay. Payloads that cannot
// be decoded are reported as errors so the relay eventually dead-letters
// them instead of looping forever on a malformed row.
func NewDispatcher(notifier Notifier) outbox.Dispatcher {
	return &dispatcher{notifier: notifier}
}

func (d *dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return errors.Wrap(err, "failed to decode notification envelope")
	}
	if env.To == "" {
		return errors.New("notification envelope missing recipient")
	}
	return d.notifier.Notify(ctx, env.To, env.Subject, env.Body)
}
