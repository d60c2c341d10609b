package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// CounterEvent is emitted for every issuance and booking so downstream
// consumers (notifications, reporting) see the counter activity stream.
type CounterEvent struct {
	Type        string    `json:"type"`
	PassID      string    `json:"pass_id"`
	RecordRef   string    `json:"record_ref"`
	Phone       string    `json:"phone"`
	Counter     string    `json:"counter"`
	Source      string    `json:"source,omitempty"`
	Destination string    `json:"destination,omitempty"`
	PaymentType string    `json:"payment_type,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	At          time.Time `json:"at"`
}

const (
	EventPassIssued   = "pass_issued"
	EventTicketBooked = "ticket_booked"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
