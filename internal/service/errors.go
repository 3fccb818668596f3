package service

import "errors"

// Validation rejections. All leave stored state untouched and are reported
// to the caller as the rejection reason.
var (
	ErrEmptyInvoiceNumber      = errors.New("invoice number must not be empty")
	ErrEmptyBarcode            = errors.New("barcode must not be empty")
	ErrNonPositiveQuantity     = errors.New("quantity must be positive")
	ErrDuplicateScan           = errors.New("scan already recorded for this idempotency key")
	ErrNotAuthorized           = errors.New("role is not allowed to edit invoice items")
	ErrInvalidInvoiceQuantity  = errors.New("invoice quantity must not be negative")
	ErrInvalidConversionFactor = errors.New("conversion factor must be positive")
	ErrCloseInProgress         = errors.New("session close already in progress")
)
