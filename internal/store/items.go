package store

import (
	"context"
	"database/sql"
	"fmt"

	"stockcount-service/internal/models"
)

// ReplaceInvoiceItems replaces an invoice's expected lines in one
// transaction, keeping the importer's input order in the position column.
func (s *Store) ReplaceInvoiceItems(ctx context.Context, invoiceNumber string, items []models.InvoiceItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM invoice_items WHERE invoice_number = $1", invoiceNumber); err != nil {
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}

	for i, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_items
			 (invoice_number, position, barcode, system_code, name, invoice_quantity, conversion_factor)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			invoiceNumber, i, item.Barcode, item.SystemCode, item.Name,
			item.InvoiceQuantity, item.ConversionFactor)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetInvoiceItems retrieves an invoice's lines in document order
func (s *Store) GetInvoiceItems(ctx context.Context, invoiceNumber string) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM invoice_items WHERE invoice_number = $1 ORDER BY position", invoiceNumber)
	return items, err
}

// GetInvoiceItemByID retrieves one invoice line
func (s *Store) GetInvoiceItemByID(ctx context.Context, id int64) (*models.InvoiceItem, error) {
	var item models.InvoiceItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM invoice_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice item not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantities corrects an invoice line's expected quantity and
// conversion factor. Numeric validation happens in the service layer before
// this runs.
func (s *Store) UpdateItemQuantities(ctx context.Context, id int64, invoiceQuantity, conversionFactor float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invoice_items SET invoice_quantity = $1, conversion_factor = $2, updated_at = NOW() WHERE id = $3",
		invoiceQuantity, conversionFactor, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("invoice item not found: %d", id)
	}
	return nil
}
