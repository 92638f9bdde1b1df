package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

const topicTransactionCompleted = "transaction_completed"

// TransactionEvent is the wire form of a committed ledger transaction.
type TransactionEvent struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Amount        string    `json:"amount"`
	Kind          string    `json:"transaction_type"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher emits transaction-completed events to Kafka. Events are queued
// in memory and written by a background worker, so a slow or unavailable
// broker never delays the ledger operation that produced the event. The
// queue is bounded; on overflow events are dropped with a warning.
type Publisher struct {
	writer *kafka.Writer
	queue  chan *domain.Transaction
	done   chan struct{}
}

func NewPublisher(brokers []string) *Publisher {
	p := &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topicTransactionCompleted,
			Balancer: &kafka.LeastBytes{},
		},
		queue: make(chan *domain.Transaction, 128),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishTransactionCompleted enqueues an event without blocking the caller.
func (p *Publisher) PublishTransactionCompleted(txn *domain.Transaction) {
	select {
	case p.queue <- txn:
	default:
		slog.Warn("Event queue full, dropping event", "transaction_id", txn.ID)
	}
}

func (p *Publisher) run() {
	for {
		select {
		case txn := <-p.queue:
			p.write(txn)
		case <-p.done:
			return
		}
	}
}

func (p *Publisher) write(txn *domain.Transaction) {
	event := TransactionEvent{
		TransactionID: txn.ID.String(),
		UserID:        txn.UserID.String(),
		Amount:        txn.Amount.String(),
		Kind:          string(txn.Kind),
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal transaction event", "error", err, "transaction_id", txn.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	})
	if err != nil {
		slog.Error("Failed to publish transaction event", "error", err, "transaction_id", txn.ID)
	}
}

// Close stops the worker and releases the Kafka writer. Queued events that
// were not yet written are dropped.
func (p *Publisher) Close() error {
	close(p.done)
	return p.writer.Close()
}
