package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockcount-service/internal/broker"
	"stockcount-service/internal/expr"
	"stockcount-service/internal/models"
	"stockcount-service/internal/store"
	"stockcount-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// itemStore is the storage collaborator for the expected side of the count.
type itemStore interface {
	ReplaceInvoiceItems(ctx context.Context, invoiceNumber string, items []models.InvoiceItem) error
	GetInvoiceItems(ctx context.Context, invoiceNumber string) ([]models.InvoiceItem, error)
	GetInvoiceItemByID(ctx context.Context, id int64) (*models.InvoiceItem, error)
	UpdateItemQuantities(ctx context.Context, id int64, invoiceQuantity, conversionFactor float64) error
	ReplaceCatalog(ctx context.Context, entries []models.CatalogEntry) error
}

// itemEventPublisher publishes import lifecycle events.
type itemEventPublisher interface {
	PublishItemsImported(ctx context.Context, event *models.ItemsImportedEvent) error
}

// ItemService manages the expected side of the count: catalog loads, invoice
// item imports and role-gated quantity corrections.
type ItemService struct {
	store          itemStore
	eventPublisher itemEventPublisher
	logger         *zap.Logger
}

// NewItemService creates a new item service
func NewItemService(store *store.Store, eventPublisher *broker.EventPublisher) *ItemService {
	return &ItemService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ImportItemRequest is one expected line from the document importer
type ImportItemRequest struct {
	Barcode          string  `json:"barcode"`
	SystemCode       string  `json:"system_code"`
	Name             string  `json:"name"`
	InvoiceQuantity  float64 `json:"invoice_quantity"`
	ConversionFactor float64 `json:"conversion_factor"`
}

// ImportItems replaces an invoice's expected lines with the importer's
// output. The document shape is trusted (parsing is the collaborator's job);
// only the conversion factor default is applied here.
func (is *ItemService) ImportItems(ctx context.Context, invoiceNumber string, reqs []ImportItemRequest) (int, error) {
	if invoiceNumber == "" {
		return 0, ErrEmptyInvoiceNumber
	}

	ctx, span := util.StartSpan(ctx, "ItemService.ImportItems")
	defer span.End()

	items := make([]models.InvoiceItem, 0, len(reqs))
	for i, req := range reqs {
		factor := req.ConversionFactor
		if factor == 0 {
			factor = 1
		}
		// The document shape is trusted, but the numeric constraints are
		// checked up front so a bad line rejects cleanly instead of
		// aborting the transaction with an opaque storage error.
		if factor < 0 {
			util.ItemEditsRejectedTotal.WithLabelValues("non_positive_factor").Inc()
			return 0, fmt.Errorf("line %d: %w", i, ErrInvalidConversionFactor)
		}
		if req.InvoiceQuantity < 0 {
			util.ItemEditsRejectedTotal.WithLabelValues("negative_quantity").Inc()
			return 0, fmt.Errorf("line %d: %w", i, ErrInvalidInvoiceQuantity)
		}
		items = append(items, models.InvoiceItem{
			InvoiceNumber:    invoiceNumber,
			Barcode:          req.Barcode,
			SystemCode:       req.SystemCode,
			Name:             req.Name,
			InvoiceQuantity:  req.InvoiceQuantity,
			ConversionFactor: factor,
		})
	}

	if err := is.store.ReplaceInvoiceItems(ctx, invoiceNumber, items); err != nil {
		util.StorageFaultsTotal.WithLabelValues("replace_items").Inc()
		is.logger.Error("Failed to import invoice items",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return 0, fmt.Errorf("failed to import invoice items: %w", err)
	}

	util.ItemsImportedTotal.Add(float64(len(items)))
	is.logger.Info("Invoice items imported",
		zap.String("invoice_number", invoiceNumber),
		zap.Int("count", len(items)))

	event := &models.ItemsImportedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemsImported,
			Timestamp: time.Now(),
		},
		InvoiceNumber: invoiceNumber,
		ItemCount:     len(items),
	}
	if err := is.eventPublisher.PublishItemsImported(ctx, event); err != nil {
		is.logger.Error("Failed to publish ItemsImported event", zap.Error(err))
	}

	return len(items), nil
}

// LoadCatalog replaces the product catalog from the external importer
func (is *ItemService) LoadCatalog(ctx context.Context, entries []models.CatalogEntry) error {
	if err := is.store.ReplaceCatalog(ctx, entries); err != nil {
		util.StorageFaultsTotal.WithLabelValues("replace_catalog").Inc()
		is.logger.Error("Failed to load catalog", zap.Error(err))
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	is.logger.Info("Catalog loaded", zap.Int("count", len(entries)))
	return nil
}

// EditItemRequest corrects one invoice line. Both fields accept a plain
// number or an arithmetic expression ("3*24+5"); an empty field keeps the
// stored value.
type EditItemRequest struct {
	Role             string `json:"-"`
	InvoiceQuantity  string `json:"invoice_quantity"`
	ConversionFactor string `json:"conversion_factor"`
}

// resolveEdit evaluates one edit field against the stored value.
func resolveEdit(field string, current float64) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return current, nil
	}
	return expr.Eval(field)
}

// EditItem applies a role-gated quantity/factor correction. Invalid values
// are rejected and the stored values stay untouched.
func (is *ItemService) EditItem(ctx context.Context, itemID int64, req *EditItemRequest) (*models.InvoiceItem, error) {
	if !models.CanEditItems(req.Role) {
		util.ItemEditsRejectedTotal.WithLabelValues("not_authorized").Inc()
		return nil, ErrNotAuthorized
	}

	ctx, span := util.StartSpan(ctx, "ItemService.EditItem")
	defer span.End()

	item, err := is.store.GetInvoiceItemByID(ctx, itemID)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_item").Inc()
		return nil, fmt.Errorf("failed to read invoice item: %w", err)
	}

	quantity, err := resolveEdit(req.InvoiceQuantity, item.InvoiceQuantity)
	if err != nil {
		util.ItemEditsRejectedTotal.WithLabelValues("bad_expression").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidInvoiceQuantity, err)
	}
	factor, err := resolveEdit(req.ConversionFactor, item.ConversionFactor)
	if err != nil {
		util.ItemEditsRejectedTotal.WithLabelValues("bad_expression").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConversionFactor, err)
	}

	if quantity < 0 {
		util.ItemEditsRejectedTotal.WithLabelValues("negative_quantity").Inc()
		return nil, ErrInvalidInvoiceQuantity
	}
	if factor <= 0 {
		util.ItemEditsRejectedTotal.WithLabelValues("non_positive_factor").Inc()
		return nil, ErrInvalidConversionFactor
	}

	if err := is.store.UpdateItemQuantities(ctx, itemID, quantity, factor); err != nil {
		util.StorageFaultsTotal.WithLabelValues("update_item").Inc()
		is.logger.Error("Failed to update invoice item",
			zap.Int64("item_id", itemID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update invoice item: %w", err)
	}

	is.logger.Info("Invoice item corrected",
		zap.Int64("item_id", itemID),
		zap.Float64("invoice_quantity", quantity),
		zap.Float64("conversion_factor", factor))

	item.InvoiceQuantity = quantity
	item.ConversionFactor = factor
	return item, nil
}

// ItemsFor returns an invoice's expected lines in document order.
func (is *ItemService) ItemsFor(ctx context.Context, invoiceNumber string) ([]models.InvoiceItem, error) {
	items, err := is.store.GetInvoiceItems(ctx, invoiceNumber)
	if err != nil {
		util.StorageFaultsTotal.WithLabelValues("read_items").Inc()
		return nil, fmt.Errorf("failed to read invoice items: %w", err)
	}
	return items, nil
}
