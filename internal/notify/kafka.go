// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaConfig configures the Kafka transport. A separate mail service
// consumes the topic and performs delivery.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Username     string
	Password     string
	WriteTimeout time.Duration
}

// kafkaEnvelope is the wire format published to the topic.
type kafkaEnvelope struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes messages to a Kafka topic.
type KafkaDispatcher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaDispatcher builds a synchronous Kafka producer.
func NewKafkaDispatcher(cfg KafkaConfig) (*KafkaDispatcher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, oops.Code("NOTIFY_INVALID_CONFIG").Errorf("at least one kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, oops.Code("NOTIFY_INVALID_CONFIG").Errorf("kafka topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.Username != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
			TLS:  &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	return newKafkaDispatcher(w), nil
}

func newKafkaDispatcher(w messageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{writer: w, now: time.Now}
}

// Send publishes msg keyed by recipient, so messages to one address stay ordered.
func (k *KafkaDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	now := k.now().UTC()
	value, err := json.Marshal(kafkaEnvelope{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
		SentAt:  now,
	})
	if err != nil {
		return oops.Code("NOTIFY_ENCODE_FAILED").With("transport", "kafka").Wrap(err)
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Time:  now,
	}); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("transport", "kafka").Wrap(err)
	}
	return nil
}

// Close flushes and closes the producer.
func (k *KafkaDispatcher) Close() error {
	if err := k.writer.Close(); err != nil {
		return oops.With("transport", "kafka").Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ Dispatcher = (*KafkaDispatcher)(nil)
