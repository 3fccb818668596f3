package service

import (
	"context"
	"fmt"
	"testing"

	"stockcount-service/internal/models"
	"stockcount-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItemStore struct {
	items   map[int64]*models.InvoiceItem
	byInv   map[string][]models.InvoiceItem
	catalog []models.CatalogEntry
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{
		items: make(map[int64]*models.InvoiceItem),
		byInv: make(map[string][]models.InvoiceItem),
	}
}

func (f *fakeItemStore) ReplaceInvoiceItems(ctx context.Context, invoiceNumber string, items []models.InvoiceItem) error {
	f.byInv[invoiceNumber] = items
	return nil
}

func (f *fakeItemStore) GetInvoiceItems(ctx context.Context, invoiceNumber string) ([]models.InvoiceItem, error) {
	return f.byInv[invoiceNumber], nil
}

func (f *fakeItemStore) GetInvoiceItemByID(ctx context.Context, id int64) (*models.InvoiceItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("invoice item not found: %d", id)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemStore) UpdateItemQuantities(ctx context.Context, id int64, invoiceQuantity, conversionFactor float64) error {
	item, ok := f.items[id]
	if !ok {
		return fmt.Errorf("invoice item not found: %d", id)
	}
	item.InvoiceQuantity = invoiceQuantity
	item.ConversionFactor = conversionFactor
	return nil
}

func (f *fakeItemStore) ReplaceCatalog(ctx context.Context, entries []models.CatalogEntry) error {
	f.catalog = entries
	return nil
}

type fakeItemPublisher struct {
	imported []*models.ItemsImportedEvent
}

func (f *fakeItemPublisher) PublishItemsImported(ctx context.Context, event *models.ItemsImportedEvent) error {
	f.imported = append(f.imported, event)
	return nil
}

func newTestItemService(st *fakeItemStore) *ItemService {
	return &ItemService{
		store:          st,
		eventPublisher: &fakeItemPublisher{},
		logger:         util.GetLogger(),
	}
}

func TestResolveEdit(t *testing.T) {
	got, err := resolveEdit("", 7)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got, "empty field keeps the stored value")

	got, err = resolveEdit("12", 7)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)

	got, err = resolveEdit("3*24+5", 7)
	require.NoError(t, err)
	assert.Equal(t, 77.0, got)

	_, err = resolveEdit("3*+", 7)
	assert.Error(t, err)
}

func TestEditItemRequiresCapability(t *testing.T) {
	is := &ItemService{}

	for _, role := range []string{models.RoleCounter, "", "GUEST"} {
		_, err := is.EditItem(context.Background(), 1, &EditItemRequest{Role: role, InvoiceQuantity: "5"})
		assert.ErrorIs(t, err, ErrNotAuthorized, role)
	}
}

func TestEditItemRejectionKeepsStoredValues(t *testing.T) {
	st := newFakeItemStore()
	st.items[1] = &models.InvoiceItem{ID: 1, InvoiceQuantity: 10, ConversionFactor: 2}
	is := newTestItemService(st)

	_, err := is.EditItem(context.Background(), 1, &EditItemRequest{
		Role: models.RoleAdmin, ConversionFactor: "0",
	})
	assert.ErrorIs(t, err, ErrInvalidConversionFactor)

	_, err = is.EditItem(context.Background(), 1, &EditItemRequest{
		Role: models.RoleAdmin, InvoiceQuantity: "2-5",
	})
	assert.ErrorIs(t, err, ErrInvalidInvoiceQuantity)

	assert.Equal(t, 10.0, st.items[1].InvoiceQuantity)
	assert.Equal(t, 2.0, st.items[1].ConversionFactor)
}

func TestEditItemAppliesExpression(t *testing.T) {
	st := newFakeItemStore()
	st.items[1] = &models.InvoiceItem{ID: 1, InvoiceQuantity: 10, ConversionFactor: 2}
	is := newTestItemService(st)

	item, err := is.EditItem(context.Background(), 1, &EditItemRequest{
		Role: models.RoleValidator, InvoiceQuantity: "3*24+5",
	})
	require.NoError(t, err)
	assert.Equal(t, 77.0, item.InvoiceQuantity)
	assert.Equal(t, 2.0, item.ConversionFactor, "empty field keeps the stored factor")
	assert.Equal(t, 77.0, st.items[1].InvoiceQuantity)
}

func TestCanEditItems(t *testing.T) {
	assert.True(t, models.CanEditItems(models.RoleAdmin))
	assert.True(t, models.CanEditItems(models.RoleValidator))
	assert.False(t, models.CanEditItems(models.RoleCounter))
	assert.False(t, models.CanEditItems("admin"))
}

func TestImportItemsRequiresInvoiceNumber(t *testing.T) {
	is := &ItemService{}

	_, err := is.ImportItems(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyInvoiceNumber)
}

func TestImportItemsRejectsInvalidNumbers(t *testing.T) {
	// A bad line must reject before anything is written, not abort the
	// storage transaction with an opaque constraint error.
	st := newFakeItemStore()
	is := newTestItemService(st)

	_, err := is.ImportItems(context.Background(), "001", []ImportItemRequest{
		{Name: "Good", InvoiceQuantity: 1, ConversionFactor: 1},
		{Name: "Bad factor", InvoiceQuantity: 1, ConversionFactor: -2},
	})
	assert.ErrorIs(t, err, ErrInvalidConversionFactor)

	_, err = is.ImportItems(context.Background(), "001", []ImportItemRequest{
		{Name: "Bad quantity", InvoiceQuantity: -1, ConversionFactor: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidInvoiceQuantity)

	assert.Empty(t, st.byInv["001"], "rejected imports must write nothing")
}

func TestImportItemsDefaultsConversionFactor(t *testing.T) {
	// Factor 0 means "not supplied" in importer output and defaults to 1;
	// it must not trip the positive-factor check.
	st := newFakeItemStore()
	is := newTestItemService(st)

	count, err := is.ImportItems(context.Background(), "001", []ImportItemRequest{
		{Name: "Defaulted", InvoiceQuantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, st.byInv["001"], 1)
	assert.Equal(t, 1.0, st.byInv["001"][0].ConversionFactor)
}
