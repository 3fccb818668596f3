package service

import (
	"context"
	"fmt"
	"time"

	"stockcount-service/internal/broker"
	"stockcount-service/internal/models"
	"stockcount-service/internal/redisclient"
	"stockcount-service/internal/store"
	"stockcount-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scanStore is the ledger's storage collaborator.
type scanStore interface {
	AppendScan(ctx context.Context, ev *models.ScanEvent) error
	GetScansByInvoice(ctx context.Context, invoiceNumber string) ([]models.ScanEvent, error)
	ClearScans(ctx context.Context, invoiceNumber string) (int64, error)
}

// scanCache is the Redis collaborator: retry dedupe, close lock and the
// live-activity counters maintained by the activity worker.
type scanCache interface {
	ClaimScanKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseScanKey(ctx context.Context, key string) error
	GetActivity(ctx context.Context, invoiceNumber string) (int64, time.Time, error)
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// scanEventPublisher publishes ledger lifecycle events.
type scanEventPublisher interface {
	PublishScanRecorded(ctx context.Context, event *models.ScanRecordedEvent) error
	PublishSessionClosed(ctx context.Context, event *models.SessionClosedEvent) error
}

// ScanService owns the append-only scan ledger: validated appends, ordered
// reads and the bulk clear on session close. It is the only writer of scan
// events; nothing in the codebase mutates or deletes a single event.
type ScanService struct {
	store          scanStore
	redis          scanCache
	eventPublisher scanEventPublisher
	logger         *zap.Logger
	dedupeTTL      time.Duration
	closeLockTTL   time.Duration
}

// NewScanService creates a new scan service
func NewScanService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	dedupeTTL, closeLockTTL time.Duration,
) *ScanService {
	return &ScanService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		dedupeTTL:      dedupeTTL,
		closeLockTTL:   closeLockTTL,
	}
}

// RecordScanRequest represents one scan submission
type RecordScanRequest struct {
	InvoiceNumber  string  `json:"invoice_number" binding:"required"`
	UserID         string  `json:"user_id" binding:"required"`
	Barcode        string  `json:"barcode"`
	Quantity       float64 `json:"quantity"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

func validateScan(req *RecordScanRequest) error {
	if req.InvoiceNumber == "" {
		return ErrEmptyInvoiceNumber
	}
	if req.Barcode == "" {
		return ErrEmptyBarcode
	}
	if req.Quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	return nil
}

// RecordScan validates and appends one scan event. Rejected submissions
// change no state. The append itself is a single INSERT, so concurrent
// devices scanning into the same invoice never lose a write.
func (s *ScanService) RecordScan(ctx context.Context, req *RecordScanRequest) (*models.ScanEvent, error) {
	if err := validateScan(req); err != nil {
		util.ScansRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	ctx, span := util.StartSpan(ctx, "ScanService.RecordScan")
	defer span.End()

	var claimed bool
	if req.IdempotencyKey != "" {
		ok, err := s.redis.ClaimScanKey(ctx, req.IdempotencyKey, s.dedupeTTL)
		if err != nil {
			// Dedupe is best effort; a Redis fault must not block counting.
			s.logger.Warn("Scan dedupe check failed, accepting scan",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Error(err))
		} else if !ok {
			util.ScansDedupedTotal.Inc()
			return nil, ErrDuplicateScan
		} else {
			claimed = true
		}
	}

	event := &models.ScanEvent{
		ID:            uuid.New().String(),
		InvoiceNumber: req.InvoiceNumber,
		UserID:        req.UserID,
		Barcode:       req.Barcode,
		Quantity:      req.Quantity,
		RecordedAt:    time.Now().UTC(),
	}

	if err := s.store.AppendScan(ctx, event); err != nil {
		// Nothing was stored, so the claim must not survive: a retry with
		// the same key has to reach the ledger, not bounce as a duplicate.
		if claimed {
			if derr := s.redis.ReleaseScanKey(context.Background(), req.IdempotencyKey); derr != nil {
				s.logger.Warn("Failed to release scan idempotency key",
					zap.String("idempotency_key", req.IdempotencyKey),
					zap.Error(derr))
			}
		}
		util.StorageFaultsTotal.WithLabelValues("append_scan").Inc()
		s.logger.Error("Failed to append scan event",
			zap.String("invoice_number", req.InvoiceNumber),
			zap.Error(err))
		return nil, fmt.Errorf("failed to append scan: %w", err)
	}

	util.ScansRecordedTotal.Inc()

	published := &models.ScanRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeScanRecorded,
			Timestamp: time.Now(),
		},
		ScanID:        event.ID,
		InvoiceNumber: event.InvoiceNumber,
		UserID:        event.UserID,
		Barcode:       event.Barcode,
		Quantity:      event.Quantity,
	}
	if err := s.eventPublisher.PublishScanRecorded(ctx, published); err != nil {
		s.logger.Error("Failed to publish ScanRecorded event", zap.Error(err))
	}

	return event, nil
}

// EventsFor returns an invoice's scan events, oldest first.
func (s *ScanService) EventsFor(ctx context.Context, invoiceNumber string) ([]models.ScanEvent, error) {
	events, err := s.store.GetScansByInvoice(ctx, invoiceNumber)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_scans").Inc()
		s.logger.Error("Failed to read scan events",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read scan events: %w", err)
	}
	return events, nil
}

// Activity returns an invoice's live scan count and last-activity time from
// the Redis cache the activity worker maintains. Advisory dashboard data;
// reconciliation never reads it.
func (s *ScanService) Activity(ctx context.Context, invoiceNumber string) (int64, time.Time, error) {
	if invoiceNumber == "" {
		return 0, time.Time{}, ErrEmptyInvoiceNumber
	}

	scanCount, lastActivity, err := s.redis.GetActivity(ctx, invoiceNumber)
	if err != nil {
		s.logger.Warn("Failed to read live activity",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return 0, time.Time{}, fmt.Errorf("failed to read live activity: %w", err)
	}
	return scanCount, lastActivity, nil
}

// CloseSession removes every scan event for the invoice in one statement.
// A short Redis lock keeps two concurrent closers from racing.
func (s *ScanService) CloseSession(ctx context.Context, invoiceNumber, closedBy string) (int64, error) {
	if invoiceNumber == "" {
		return 0, ErrEmptyInvoiceNumber
	}

	ctx, span := util.StartSpan(ctx, "ScanService.CloseSession")
	defer span.End()

	lockKey := fmt.Sprintf("close:%s", invoiceNumber)
	locked, err := s.redis.AcquireLock(ctx, lockKey, s.closeLockTTL)
	if err != nil {
		s.logger.Warn("Close lock unavailable, proceeding without it",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
	} else if !locked {
		return 0, ErrCloseInProgress
	} else {
		defer func() {
			if err := s.redis.ReleaseLock(context.Background(), lockKey); err != nil {
				s.logger.Warn("Failed to release close lock", zap.Error(err))
			}
		}()
	}

	cleared, err := s.store.ClearScans(ctx, invoiceNumber)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("clear_scans").Inc()
		s.logger.Error("Failed to clear scan events",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return 0, fmt.Errorf("failed to clear scan events: %w", err)
	}

	util.SessionsClosedTotal.Inc()
	s.logger.Info("Session closed",
		zap.String("invoice_number", invoiceNumber),
		zap.Int64("events_cleared", cleared))

	closedEvent := &models.SessionClosedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSessionClosed,
			Timestamp: time.Now(),
		},
		InvoiceNumber: invoiceNumber,
		ClosedBy:      closedBy,
		EventsCleared: cleared,
	}
	if err := s.eventPublisher.PublishSessionClosed(ctx, closedEvent); err != nil {
		s.logger.Error("Failed to publish SessionClosed event", zap.Error(err))
	}

	return cleared, nil
}

func rejectionReason(err error) string {
	switch err {
	case ErrEmptyInvoiceNumber:
		return "empty_invoice"
	case ErrEmptyBarcode:
		return "empty_barcode"
	case ErrNonPositiveQuantity:
		return "non_positive_quantity"
	default:
		return "invalid"
	}
}
