package models

import "time"

// Event types
const (
	EventTypeScanRecorded  = "SCAN_RECORDED"
	EventTypeSessionClosed = "SESSION_CLOSED"
	EventTypeItemsImported = "ITEMS_IMPORTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanRecordedEvent published after a scan is appended to the ledger
type ScanRecordedEvent struct {
	BaseEvent
	ScanID        string  `json:"scan_id"`
	InvoiceNumber string  `json:"invoice_number"`
	UserID        string  `json:"user_id"`
	Barcode       string  `json:"barcode"`
	Quantity      float64 `json:"quantity"`
}

// SessionClosedEvent published when an invoice's ledger is cleared
type SessionClosedEvent struct {
	BaseEvent
	InvoiceNumber string `json:"invoice_number"`
	ClosedBy      string `json:"closed_by"`
	EventsCleared int64  `json:"events_cleared"`
}

// ItemsImportedEvent published after a bulk invoice-item import
type ItemsImportedEvent struct {
	BaseEvent
	InvoiceNumber string `json:"invoice_number"`
	ItemCount     int    `json:"item_count"`
}
