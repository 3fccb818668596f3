package service

import (
	"context"
	"fmt"
	"time"

	"stockcount-service/internal/models"
	"stockcount-service/internal/recon"
	"stockcount-service/internal/store"
	"stockcount-service/internal/util"

	"go.uber.org/zap"
)

// ReconService snapshots storage state and feeds it to the pure
// reconciliation core. Reports are derived on every call, never cached, so a
// view can never go stale against the ledger.
type ReconService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReconService creates a new reconciliation service
func NewReconService(store *store.Store) *ReconService {
	return &ReconService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// BuildReport computes the reconciliation report for one invoice from a
// fresh storage snapshot.
func (rs *ReconService) BuildReport(ctx context.Context, invoiceNumber string) (models.Report, error) {
	ctx, span := util.StartSpan(ctx, "ReconService.BuildReport")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReportComputeLatency.Observe(time.Since(start).Seconds())
	}()

	items, err := rs.store.GetInvoiceItems(ctx, invoiceNumber)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_items").Inc()
		rs.logger.Error("Failed to read invoice items",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return models.Report{InvoiceNumber: invoiceNumber}, fmt.Errorf("failed to read invoice items: %w", err)
	}

	events, err := rs.store.GetScansByInvoice(ctx, invoiceNumber)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_scans").Inc()
		rs.logger.Error("Failed to read scan events",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return models.Report{InvoiceNumber: invoiceNumber}, fmt.Errorf("failed to read scan events: %w", err)
	}

	entries, err := rs.store.GetCatalog(ctx)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_catalog").Inc()
		rs.logger.Error("Failed to read catalog", zap.Error(err))
		return models.Report{InvoiceNumber: invoiceNumber}, fmt.Errorf("failed to read catalog: %w", err)
	}

	report := recon.ComputeReport(items, events, recon.NewCatalog(entries))
	report.InvoiceNumber = invoiceNumber

	util.ReportsComputedTotal.Inc()
	return report, nil
}

// Sessions summarizes scan activity across all invoices for the dashboard.
func (rs *ReconService) Sessions(ctx context.Context) ([]models.SessionSummary, error) {
	ctx, span := util.StartSpan(ctx, "ReconService.Sessions")
	defer span.End()

	events, err := rs.store.GetAllScans(ctx)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_scans").Inc()
		rs.logger.Error("Failed to read scan events", zap.Error(err))
		return nil, fmt.Errorf("failed to read scan events: %w", err)
	}

	return recon.Summarize(events), nil
}
