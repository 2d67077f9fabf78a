package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/apache/pulsar-client-go/pulsar"
)

// ErrConsumerClosed is returned by ReceiveMessage once the consumer is closed.
var ErrConsumerClosed = errors.New("consumer closed")

type EventConsumer struct {
	client   pulsar.Client
	consumer pulsar.Consumer
}

// NewEventConsumer initializes the Pulsar client and consumer.
func NewEventConsumer(pulsarURL, topic, subscription string) (*EventConsumer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: pulsarURL})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:                       topic,
		SubscriptionName:            subscription,
		Type:                        pulsar.Shared,
		SubscriptionInitialPosition: pulsar.SubscriptionPositionEarliest,
		DLQ: &pulsar.DLQPolicy{
			MaxDeliveries:   3,
			DeadLetterTopic: topic + "-dlq",
		},
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar consumer: %w", err)
	}

	return &EventConsumer{client: client, consumer: consumer}, nil
}

// ReceiveMessage retrieves a message from Pulsar.
func (c *EventConsumer) ReceiveMessage(ctx context.Context) (pulsar.Message, error) {
	msg, err := c.consumer.Receive(ctx)
	if err != nil {
		var pulsarErr *pulsar.Error
		if errors.As(err, &pulsarErr) && pulsarErr.Result() == pulsar.ConsumerClosed {
			return nil, ErrConsumerClosed
		}
		return nil, fmt.Errorf("failed to receive message: %w", err)
	}
	return msg, nil
}

// DecodeSubmission unmarshals a message published by EventPublisher.
func DecodeSubmission(payload []byte) (models.Submission, error) {
	var submission models.Submission
	if err := json.Unmarshal(payload, &submission); err != nil {
		return submission, fmt.Errorf("could not decode submission: %w", err)
	}
	return submission, nil
}

// Ack acknowledges a message.
func (c *EventConsumer) Ack(msg pulsar.Message) {
	c.consumer.Ack(msg)
}

// Nack negatively acknowledges a message.
func (c *EventConsumer) Nack(msg pulsar.Message) {
	c.consumer.Nack(msg)
}

// Close cleans up the Pulsar consumer and client.
func (c *EventConsumer) Close() {
	c.consumer.Close()
	c.client.Close()
}
