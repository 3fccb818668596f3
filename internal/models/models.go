package models

import "time"

// CatalogEntry maps a known product to its barcode. Loaded in bulk by an
// external importer; read-only to the reconciliation core.
type CatalogEntry struct {
	Barcode    string `db:"barcode" json:"barcode"`
	SystemCode string `db:"system_code" json:"system_code"`
	Name       string `db:"name" json:"name"`
}

// InvoiceItem is one expected line on an incoming goods invoice. Barcode and
// SystemCode are optional; empty string or "-" means absent.
type InvoiceItem struct {
	ID               int64     `db:"id" json:"id"`
	InvoiceNumber    string    `db:"invoice_number" json:"invoice_number"`
	Position         int       `db:"position" json:"position"`
	Barcode          string    `db:"barcode" json:"barcode"`
	SystemCode       string    `db:"system_code" json:"system_code"`
	Name             string    `db:"name" json:"name"`
	InvoiceQuantity  float64   `db:"invoice_quantity" json:"invoice_quantity"`
	ConversionFactor float64   `db:"conversion_factor" json:"conversion_factor"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ScanEvent is one physical scan action. Events are append-only: never
// mutated or individually deleted, removed only by a bulk clear of the
// invoice's whole set on session close.
type ScanEvent struct {
	ID            string    `db:"id" json:"id"`
	InvoiceNumber string    `db:"invoice_number" json:"invoice_number"`
	UserID        string    `db:"user_id" json:"user_id"`
	Barcode       string    `db:"barcode" json:"barcode"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}

// ReconciliationRow is a derived report line, recomputed on every query.
type ReconciliationRow struct {
	SystemCode        string  `json:"system_code"`
	Barcode           string  `json:"barcode"`
	Name              string  `json:"name"`
	InvoiceQuantity   float64 `json:"invoice_quantity"`
	ConversionFactor  float64 `json:"conversion_factor"`
	ConvertedQuantity float64 `json:"converted_quantity"`
	CountedQuantity   float64 `json:"counted_quantity"`
	Difference        float64 `json:"difference"`
	Status            string  `json:"status"`
}

// ExtraItem is a scanned quantity that matched no invoice line.
type ExtraItem struct {
	Barcode         string  `json:"barcode"`
	Name            string  `json:"name"`
	CountedQuantity float64 `json:"counted_quantity"`
}

// Report is the full reconciliation result for one invoice.
type Report struct {
	InvoiceNumber string              `json:"invoice_number"`
	Rows          []ReconciliationRow `json:"rows"`
	Extras        []ExtraItem         `json:"extras"`
}

// SessionSummary describes one invoice's accumulated scan activity.
type SessionSummary struct {
	InvoiceNumber     string    `json:"invoice_number"`
	LastActivity      time.Time `json:"last_activity"`
	TotalItemsScanned int       `json:"total_items_scanned"`
	UsersInvolved     []string  `json:"users_involved"`
}

// Row statuses, fully determined by the sign of Difference.
const (
	StatusMatch   = "MATCH"
	StatusMissing = "MISSING"
	StatusSurplus = "SURPLUS"
)

// Caller roles for the edit capability check.
const (
	RoleAdmin     = "ADMIN"
	RoleValidator = "VALIDATOR"
	RoleCounter   = "COUNTER"
)

// CanEditItems reports whether a role may correct invoice quantities and
// conversion factors.
func CanEditItems(role string) bool {
	return role == RoleAdmin || role == RoleValidator
}
