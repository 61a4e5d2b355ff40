package mailer_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubdesk/pubdesk/pkg/mailer"
	"github.com/pubdesk/pubdesk/pkg/outbox"
)

type recordingNotifier struct {
	to      string
	subject string
	body    string
	calls   int
}

func (r *recordingNotifier) Notify(_ context.Context, to, subject, body string) error {
	r.calls++
	r.to = to
	r.subject = subject
	r.body = body
	return nil
}

func TestDispatcher_Dispatch(t *testing.T) {
	notifier := &recordingNotifier{}
	d := mailer.NewDispatcher(notifier)

	payload, err := json.Marshal(mailer.Envelope{
		To:      "checker@example.com",
		Subject: "Approval required",
		Body:    "A new request awaits your decision.",
	})
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), outbox.DispatchedMessage{
		Meta:    outbox.Meta{Topic: "notification.send", EventID: uuid.New()},
		Payload: payload,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "checker@example.com", notifier.to)
	assert.Equal(t, "Approval required", notifier.subject)
}

func TestDispatcher_Dispatch_MalformedPayload(t *testing.T) {
	notifier := &recordingNotifier{}
	d := mailer.NewDispatcher(notifier)

	err := d.Dispatch(context.Background(), outbox.DispatchedMessage{
		Meta:    outbox.Meta{Topic: "notification.send", EventID: uuid.New()},
		Payload: []byte("{not json"),
	})
	require.Error(t, err)
	assert.Zero(t, notifier.calls)
}

func TestDispatcher_Dispatch_MissingRecipient(t *testing.T) {
	notifier := &recordingNotifier{}
	d := mailer.NewDispatcher(notifier)

	err := d.Dispatch(context.Background(), outbox.DispatchedMessage{
		Meta:    outbox.Meta{Topic: "notification.send", EventID: uuid.New()},
		Payload: []byte(`{"subject":"x","body":"y"}`),
	})
	require.Error(t, err)
	assert.Zero(t, notifier.calls)
}
