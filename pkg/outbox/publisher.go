package outbox

import (
	"context"
	"fmt"

	"github.com/pubdesk/pubdesk/pkg/repo"
)

const tableName = "notification_outbox"

type Publisher interface {
	Enqueue(ctx context.Context, tx repo.Tx, msg Message) (sequence int64, err error)
}

type publisher struct {
	m *metrics
}

func NewPublisher() Publisher {
	return &publisher{m: getMetrics()}
}

func (p *publisher) Enqueue(ctx context.Context, tx repo.Tx, msg Message) (int64, error) {
	if msg.EventID == uuidZero() {
		return 0, fmt.Errorf("%w: event_id is required", ErrInvalidConfig)
	}
	if msg.Topic == "" {
		return 0, fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}

	q := `INSERT INTO ` + tableName + ` (topic, payload, event_id, available_at)
	 VALUES ($1, $2, $3, now())
	 ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
	 RETURNING sequence`

	var sequence int64
	if err := tx.QueryRow(ctx, q, msg.Topic, msg.Payload, msg.EventID).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("outbox enqueue: %w", err)
	}

	p.m.enqueueTotal.WithLabelValues(msg.Topic).Inc()

	return sequence, nil
}
