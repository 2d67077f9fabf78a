package services

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/rs/zerolog"
)

// Recorder is an observability sink for received payloads.
type Recorder interface {
	Record(ctx context.Context, submission models.Submission) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, submission models.Submission) error

func (f RecorderFunc) Record(ctx context.Context, submission models.Submission) error {
	return f(ctx, submission)
}

// LogRecorder writes received payloads to the request logger.
type LogRecorder struct{}

func (LogRecorder) Record(ctx context.Context, submission models.Submission) error {
	event := zerolog.Ctx(ctx).Info().
		Str("submission_id", submission.ID.String()).
		Time("received_at", submission.ReceivedAt).
		Str("remote_addr", submission.RemoteAddr).
		Str("content_type", submission.ContentType)

	// One log entry per line, whatever layout the caller sent
	var compact bytes.Buffer
	if err := json.Compact(&compact, submission.Payload); err != nil {
		event = event.Str("received_data", string(submission.Payload))
	} else {
		event = event.RawJSON("received_data", compact.Bytes())
	}

	event.Msg("Received data")
	return nil
}

// NamedRecorder is a Recorder with a name used in logs.
type NamedRecorder struct {
	Name     string
	Recorder Recorder
}

// DispatcherOptions configures a Dispatcher. Zero values fall back to defaults.
type DispatcherOptions struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

const (
	defaultQueueSize     = 256
	defaultWorkers       = 2
	defaultRecordTimeout = 10 * time.Second
)

type job struct {
	logger     zerolog.Logger
	submission models.Submission
}

// Dispatcher fans submissions out to remote sinks in the background.
// Record never blocks: when the queue is full the submission is dropped.
type Dispatcher struct {
	recorders []NamedRecorder
	timeout   time.Duration
	queue     chan job
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker pool for the given recorders.
func NewDispatcher(opts DispatcherOptions, recorders ...NamedRecorder) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRecordTimeout
	}

	d := &Dispatcher{
		recorders: recorders,
		timeout:   opts.Timeout,
		queue:     make(chan job, opts.QueueSize),
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}

	return d
}

// Record queues the submission for every recorder. Errors are never
// returned for sink failures; they are logged by the workers.
func (d *Dispatcher) Record(ctx context.Context, submission models.Submission) error {
	if len(d.recorders) == 0 {
		return nil
	}

	logger := zerolog.Ctx(ctx).With().Logger()

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		logger.Warn().Str("submission_id", submission.ID.String()).
			Msg("Dispatcher closed, submission not forwarded")
		return nil
	}

	select {
	case d.queue <- job{logger: logger, submission: submission}:
	default:
		logger.Warn().Str("submission_id", submission.ID.String()).
			Msg("Recorder queue full, submission dropped")
	}
	return nil
}

// Close stops accepting submissions and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for j := range d.queue {
		for _, nr := range d.recorders {
			d.deliver(j, nr)
		}
	}
}

func (d *Dispatcher) deliver(j job, nr NamedRecorder) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	ctx = j.logger.WithContext(ctx)
	if err := nr.Recorder.Record(ctx, j.submission); err != nil {
		j.logger.Error().Err(err).Str("recorder", nr.Name).
			Str("submission_id", j.submission.ID.String()).
			Msg("Failed to record submission")
		return
	}
	j.logger.Debug().Str("recorder", nr.Name).
		Str("submission_id", j.submission.ID.String()).
		Msg("Submission recorded")
}
