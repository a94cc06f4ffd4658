package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/arvarik/linq-go/internal/config"
	"github.com/arvarik/linq-go/linq"
)

// receiver verifies webhook deliveries and queues them for the workers.
// Deliveries are acknowledged before processing; when the queue is full the
// delivery is refused with 503 so the sender retries it later.
type receiver struct {
	verifier *linq.WebhookVerifier
	queue    chan *linq.WebhookEvent
	proc     *eventProcessor
	logger   logrus.FieldLogger

	deliveries *prometheus.CounterVec
	queued     prometheus.Gauge
}

func newReceiver(cfg config.WebhookConfig, proc *eventProcessor, reg prometheus.Registerer, logger logrus.FieldLogger) *receiver {
	r := &receiver{
		verifier: &linq.WebhookVerifier{Secret: cfg.SigningSecret, Tolerance: cfg.Tolerance},
		queue:    make(chan *linq.WebhookEvent, cfg.QueueSize),
		proc:     proc,
		logger:   logger,
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linq_webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries received, by result.",
		}, []string{"result"}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "linq_webhook",
			Name:      "queue_length",
			Help:      "Verified events waiting for a worker.",
		}),
	}
	reg.MustRegister(r.deliveries, r.queued)
	return r
}

func (r *receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := r.verifier.ParseRequest(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, linq.ErrInvalidWebhookSignature) || errors.Is(err, linq.ErrMissingSignature) {
			status = http.StatusUnauthorized
		}
		r.deliveries.WithLabelValues("rejected").Inc()
		r.logger.WithError(err).Warn("rejected webhook delivery")
		http.Error(w, http.StatusText(status), status)
		return
	}

	select {
	case r.queue <- event:
		r.queued.Inc()
		r.deliveries.WithLabelValues("accepted").Inc()
		w.WriteHeader(http.StatusOK)
	default:
		r.deliveries.WithLabelValues("dropped").Inc()
		r.logger.WithField("event_id", event.EventID).Warn("worker pool full, refusing delivery")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	}
}

// work processes queued events until ctx is done.
func (r *receiver) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-r.queue:
			r.queued.Dec()
			r.proc.process(ctx, event)
		}
	}
}

// eventProcessor handles one verified event. With a client configured it
// marks chats as read when a message arrives.
type eventProcessor struct {
	client *linq.Client
	logger logrus.FieldLogger
}

func (p *eventProcessor) process(ctx context.Context, event *linq.WebhookEvent) {
	logger := p.logger.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"event_id":   event.EventID,
		"trace_id":   event.TraceID,
	})

	data, err := event.DecodeData()
	if err != nil {
		logger.WithError(err).Error("failed to decode event data")
		return
	}
	logger.Info("received webhook event")

	msg, ok := data.(*linq.MessageEventData)
	if !ok || event.EventType != linq.EventMessageReceived || p.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.client.Chats.MarkAsRead(ctx, msg.ChatID); err != nil {
		logger.WithError(err).WithField("chat_id", msg.ChatID).Error("failed to mark chat as read")
		return
	}
	logger.WithField("chat_id", msg.ChatID).Debug("marked chat as read")
}
