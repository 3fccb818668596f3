package worker

import (
	"context"
	"log"

	"stockcount-service/internal/broker"
	"stockcount-service/internal/models"
	"stockcount-service/internal/redisclient"
)

// ActivityWorker keeps the Redis live-activity counters in step with the scan
// event stream. The counters are advisory dashboard data; reconciliation
// always recomputes from the ledger, so losing or rebuilding them is safe.
type ActivityWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	redis        *redisclient.Client
}

// NewActivityWorker creates a new activity worker
func NewActivityWorker(consumer *broker.Consumer, redis *redisclient.Client) *ActivityWorker {
	eventHandler := broker.NewEventHandler()

	w := &ActivityWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		redis:        redis,
	}

	// ItemsImported is deliberately not registered: importing expected
	// lines has no effect on scan activity, so those events fall through
	// HandleMessage's default branch. They stay on the topic for other
	// consumers (exporters, audit).
	eventHandler.OnScanRecorded(w.handleScanRecorded)
	eventHandler.OnSessionClosed(w.handleSessionClosed)

	return w
}

func (w *ActivityWorker) handleScanRecorded(ctx context.Context, event *models.ScanRecordedEvent) error {
	return w.redis.RecordActivity(ctx, event.InvoiceNumber, event.Barcode, event.Quantity, event.Timestamp)
}

func (w *ActivityWorker) handleSessionClosed(ctx context.Context, event *models.SessionClosedEvent) error {
	return w.redis.ClearActivity(ctx, event.InvoiceNumber)
}

// Start starts the worker
func (w *ActivityWorker) Start(ctx context.Context) error {
	log.Println("Starting activity worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ActivityWorker) Stop() error {
	log.Println("Stopping activity worker...")
	return w.consumer.Close()
}
