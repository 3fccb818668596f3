package store

import (
	"context"

	"stockcount-service/internal/models"
)

// AppendScan appends one scan event to an invoice's ledger. A single INSERT
// is the atomic append: concurrent writers on the same invoice serialize in
// the database and no event is ever lost. There is deliberately no update or
// single-row delete for scan_events anywhere in this package.
func (s *Store) AppendScan(ctx context.Context, ev *models.ScanEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_events (id, invoice_number, user_id, barcode, quantity, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.InvoiceNumber, ev.UserID, ev.Barcode, ev.Quantity, ev.RecordedAt)
	return err
}

// GetScansByInvoice retrieves an invoice's scan events oldest first
func (s *Store) GetScansByInvoice(ctx context.Context, invoiceNumber string) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM scan_events WHERE invoice_number = $1 ORDER BY recorded_at, id", invoiceNumber)
	return events, err
}

// GetAllScans retrieves the full multi-invoice ledger oldest first
func (s *Store) GetAllScans(ctx context.Context) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM scan_events ORDER BY recorded_at, id")
	return events, err
}

// ClearScans removes every scan event for an invoice in one statement and
// returns how many were removed. Used on session close; irreversible.
func (s *Store) ClearScans(ctx context.Context, invoiceNumber string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM scan_events WHERE invoice_number = $1", invoiceNumber)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
