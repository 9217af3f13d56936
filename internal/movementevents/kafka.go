// Package movementevents publishes committed movements to Kafka.
package movementevents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/ledgerbank/ledger-api/internal/domain"
)

// Topic is the Kafka topic committed movements are published to.
const Topic = "movement_committed"

const publishTimeout = 5 * time.Second

// MovementCommitted is the event payload for one committed movement.
type MovementCommitted struct {
	MovementID     int64       `json:"movement_id"`
	AccountID      int32       `json:"account_id"`
	Owner          string      `json:"owner"`
	Kind           domain.Kind `json:"kind"`
	Amount         string      `json:"amount"`
	Description    string      `json:"description"`
	CounterpartyID *int32      `json:"counterparty_id,omitempty"`
	TransferID     string      `json:"transfer_id,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// Publisher writes movement events to Kafka.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Publisher connected to the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// MovementCommitted implements the ledger notifier interface.
//
// Errors are logged and swallowed: event publication is a side channel and
// must never surface to the financial caller.
func (p *Publisher) MovementCommitted(ctx context.Context, owner string, movement domain.Movement) {
	l := zerolog.Ctx(ctx)

	event := MovementCommitted{
		MovementID:     movement.ID,
		AccountID:      movement.AccountID,
		Owner:          owner,
		Kind:           movement.Kind,
		Amount:         movement.Amount,
		Description:    movement.Description,
		CounterpartyID: movement.CounterpartyID,
		TransferID:     movement.TransferID,
		OccurredAt:     movement.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		l.Error().Err(err).Send()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		// Keyed by account so each account's events stay in commit order
		// within a partition.
		Key:   []byte(owner),
		Value: data,
	})
	if err != nil {
		l.Error().Err(err).Send()
	}
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
