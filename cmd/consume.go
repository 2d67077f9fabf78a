package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EO-DataHub/eodhp-echo-service/api/services"
	"github.com/EO-DataHub/eodhp-echo-service/internal/events"
	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var subscription string

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Follow the Pulsar topic and log each submission received by the server",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()

		if appCfg.Pulsar.URL == "" {
			log.Fatal().Msg("pulsar.url must be set in the config to consume submissions")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Initialize event consumer
		consumer, err := events.NewEventConsumer(appCfg.Pulsar.URL, appCfg.Pulsar.Topic, subscription)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event consumer")
		}
		defer consumer.Close()

		log.Info().Str("topic", appCfg.Pulsar.Topic).Str("subscription", subscription).
			Msg("Waiting for messages...")

		retry := backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(500*time.Millisecond),
			backoff.WithMaxInterval(30*time.Second),
			backoff.WithMaxElapsedTime(0),
		)

		if err := consumeSubmissions(ctx, consumer, retry); err != nil {
			log.Error().Err(err).Msg("Stopped consuming messages")
		}
	},
}

// messageSource is the part of events.EventConsumer the consume loop needs.
type messageSource interface {
	ReceiveMessage(ctx context.Context) (pulsar.Message, error)
	Ack(msg pulsar.Message)
	Nack(msg pulsar.Message)
}

// consumeSubmissions logs every submission from source until ctx is done.
// Receive errors are retried after a delay taken from retry, which is reset
// by each successful receive.
func consumeSubmissions(ctx context.Context, source messageSource, retry backoff.BackOff) error {
	logCtx := log.Logger.WithContext(ctx)

	for {
		msg, err := source.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, events.ErrConsumerClosed) {
				return err
			}

			delay := retry.NextBackOff()
			if delay == backoff.Stop {
				return fmt.Errorf("giving up receiving messages: %w", err)
			}
			log.Error().Err(err).Dur("retry_in", delay).Msg("Error receiving message")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		retry.Reset()

		submission, err := events.DecodeSubmission(msg.Payload())
		if err != nil {
			log.Error().Err(err).Str("key", msg.Key()).Msg("Discarding undecodable message")
			source.Nack(msg)
			continue
		}

		services.LogRecorder{}.Record(logCtx, submission)
		source.Ack(msg)
	}
}

func init() {
	rootCmd.AddCommand(consumeCmd)
	consumeCmd.Flags().StringVar(&subscription, "subscription", "echo-service-consume",
		"Pulsar subscription name")
}
