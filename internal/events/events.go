package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/rs/zerolog"
)

// Producer is the subset of pulsar.Producer the publisher needs.
type Producer interface {
	Send(ctx context.Context, msg *pulsar.ProducerMessage) (pulsar.MessageID, error)
	Close()
}

// EventPublisher forwards received submissions to a Pulsar topic.
type EventPublisher struct {
	client   pulsar.Client
	producer Producer
}

// NewEventPublisher initializes the Pulsar client and producer.
func NewEventPublisher(pulsarURL, topic string) (*EventPublisher, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: pulsarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: topic,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar producer: %w", err)
	}

	return &EventPublisher{
		client:   client,
		producer: producer,
	}, nil
}

// NewEventPublisherWithProducer wraps an existing producer.
func NewEventPublisherWithProducer(producer Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// Record publishes the submission as JSON, keyed by its id.
func (p *EventPublisher) Record(ctx context.Context, submission models.Submission) error {
	message, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("could not serialize submission: %w", err)
	}

	msgID, err := p.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:       submission.ID.String(),
		Payload:   message,
		EventTime: submission.ReceivedAt,
		Properties: map[string]string{
			"contentType": "application/json",
		},
	})
	if err != nil {
		return fmt.Errorf("could not send submission to Pulsar: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("submission_id", submission.ID.String()).
		Str("message_id", fmt.Sprint(msgID)).Msg("Submission sent to Pulsar")
	return nil
}

// Close closes the Pulsar producer and client.
func (p *EventPublisher) Close() {
	p.producer.Close()
	if p.client != nil {
		p.client.Close()
	}
}
