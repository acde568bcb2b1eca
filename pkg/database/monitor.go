package database

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/VideoTubeGo/pkg/database"

var (
	mongoCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mongo_command_duration_seconds",
			Help:    "MongoDB command round-trip time in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "command", "status"},
	)

	mongoCommandsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mongo_commands_in_flight",
			Help: "MongoDB commands sent and not yet answered",
		},
		[]string{"service"},
	)
)

// CommandObserver traces, measures and logs every command the driver
// sends. Commands slower than the threshold are logged at warn; a zero
// threshold disables slow command logging.
type CommandObserver struct {
	service   string
	threshold time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer

	mu    sync.Mutex
	spans map[int64]trace.Span
}

// NewCommandObserver creates an observer for the given service.
func NewCommandObserver(service string, threshold time.Duration, logger *slog.Logger) *CommandObserver {
	return &CommandObserver{
		service:   service,
		threshold: threshold,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		spans:     make(map[int64]trace.Span),
	}
}

// Monitor returns the driver hook to pass to NewMongoClient.
func (o *CommandObserver) Monitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started:   o.started,
		Succeeded: o.succeeded,
		Failed:    o.failed,
	}
}

func (o *CommandObserver) started(ctx context.Context, evt *event.CommandStartedEvent) {
	mongoCommandsInFlight.WithLabelValues(o.service).Inc()

	_, span := o.tracer.Start(ctx, "mongo."+evt.CommandName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.name", evt.DatabaseName),
			attribute.String("db.operation", evt.CommandName),
		),
	)

	o.mu.Lock()
	o.spans[evt.RequestID] = span
	o.mu.Unlock()
}

func (o *CommandObserver) succeeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	o.finish(ctx, evt.CommandFinishedEvent, nil)
}

func (o *CommandObserver) failed(ctx context.Context, evt *event.CommandFailedEvent) {
	o.finish(ctx, evt.CommandFinishedEvent, errors.New(evt.Failure))
}

func (o *CommandObserver) finish(ctx context.Context, evt event.CommandFinishedEvent, err error) {
	mongoCommandsInFlight.WithLabelValues(o.service).Dec()

	status := "ok"
	if err != nil {
		status = "error"
	}
	mongoCommandDuration.WithLabelValues(o.service, evt.CommandName, status).Observe(evt.Duration.Seconds())

	o.mu.Lock()
	span, ok := o.spans[evt.RequestID]
	delete(o.spans, evt.RequestID)
	o.mu.Unlock()
	if ok {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}

	if o.threshold > 0 && o.logger != nil && evt.Duration >= o.threshold {
		attrs := []any{
			slog.String("command", evt.CommandName),
			slog.String("database", evt.DatabaseName),
			slog.Duration("duration", evt.Duration),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		o.logger.WarnContext(ctx, "slow mongo command", attrs...)
	}
}

// pending reports spans still open (used in tests).
func (o *CommandObserver) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}
