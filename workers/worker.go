package workers

import (
	"context"
	"errors"
	"time"

	"task_app_backend/models"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	eventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_events_processed_total",
			Help: "Total number of task change events processed",
		},
		[]string{"type", "status"},
	)
	eventProcessingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "task_event_processing_duration_seconds",
			Help:    "Histogram of task event processing times",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(eventsProcessed)
	prometheus.MustRegister(eventProcessingTime)
}

const MaxRetries = 3

const (
	pollTimeout  = time.Second
	errorBackoff = time.Second
)

type EventSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*models.TaskEvent, error)
	Publish(ctx context.Context, event models.TaskEvent) error
	RegisterWorker(ctx context.Context, id string) error
	DeregisterWorker(ctx context.Context, id string) error
}

// Handler processes one event. A returned error schedules a retry.
type Handler func(ctx context.Context, event models.TaskEvent) error

// LogHandler records each event in the activity log.
func LogHandler(logger log.FieldLogger) Handler {
	return func(_ context.Context, event models.TaskEvent) error {
		logger.WithFields(log.Fields{
			"event":    event.ID,
			"type":     event.Type,
			"task":     event.TaskID,
			"priority": event.Priority,
			"at":       event.OccurredAt,
		}).Info("Task event")
		return nil
	}
}

type Worker struct {
	ID      string
	source  EventSource
	handler Handler
	log     log.FieldLogger
}

func NewWorker(id string, source EventSource, handler Handler, logger log.FieldLogger) *Worker {
	return &Worker{ID: id, source: source, handler: handler, log: logger.WithField("worker", id)}
}

// Start consumes events until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	if err := w.source.RegisterWorker(ctx, w.ID); err != nil {
		w.log.WithError(err).Warn("Failed to register worker")
	} else {
		w.log.Info("Worker registered")
	}
	defer func() {
		// ctx is already done here.
		if err := w.source.DeregisterWorker(context.Background(), w.ID); err != nil {
			w.log.WithError(err).Warn("Failed to deregister worker")
			return
		}
		w.log.Info("Worker deregistered")
	}()

	for {
		if ctx.Err() != nil {
			w.log.Info("Worker stopping gracefully")
			return
		}

		event, err := w.source.Dequeue(ctx, pollTimeout)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.WithError(err).Error("Failed to dequeue event")
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}

		w.process(ctx, event)
	}
}

func (w *Worker) process(ctx context.Context, event *models.TaskEvent) {
	startTime := time.Now()
	entry := w.log.WithFields(log.Fields{
		"event": event.ID,
		"task":  event.TaskID,
	})

	if err := w.handler(ctx, *event); err != nil {
		entry.WithError(err).Warn("Failed to process event")
		event.Retries++

		if event.Retries < MaxRetries {
			if err := w.source.Publish(ctx, *event); err != nil {
				entry.WithError(err).Error("Failed to re-enqueue event")
			}
		} else {
			entry.Error("Giving up on event")
			eventsProcessed.WithLabelValues(string(event.Type), "failed").Inc()
		}
	} else {
		eventsProcessed.WithLabelValues(string(event.Type), "completed").Inc()
	}

	eventProcessingTime.Observe(time.Since(startTime).Seconds())
}
