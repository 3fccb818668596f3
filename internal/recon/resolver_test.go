package recon

import (
	"testing"

	"stockcount-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func testCatalog() Catalog {
	return NewCatalog([]models.CatalogEntry{
		{Barcode: "111", SystemCode: "SC-1", Name: "Flour 1kg"},
		{Barcode: "112", SystemCode: "SC-1", Name: "Flour 1kg (promo pack)"},
		{Barcode: "222", SystemCode: "SC-2", Name: "Sugar 500g"},
	})
}

func TestResolveDirectMatch(t *testing.T) {
	totals := map[string]float64{"111": 4, "222": 2}

	item := models.InvoiceItem{Barcode: "111", SystemCode: "SC-1"}
	counted, consumed := Resolve(item, totals, testCatalog())

	assert.Equal(t, 4.0, counted)
	assert.Equal(t, []string{"111"}, consumed)
}

func TestResolveIndirectMatchSumsSharedSystemCode(t *testing.T) {
	totals := map[string]float64{"111": 4, "112": 3}

	// No barcode on the invoice line, only the internal code.
	item := models.InvoiceItem{SystemCode: "SC-1"}
	counted, consumed := Resolve(item, totals, testCatalog())

	assert.Equal(t, 7.0, counted)
	assert.ElementsMatch(t, []string{"111", "112"}, consumed)
}

func TestResolveDirectWinsOverIndirect(t *testing.T) {
	totals := map[string]float64{"111": 4, "112": 3}

	item := models.InvoiceItem{Barcode: "111", SystemCode: "SC-1"}
	counted, consumed := Resolve(item, totals, testCatalog())

	assert.Equal(t, 4.0, counted)
	assert.Equal(t, []string{"111"}, consumed, "direct tier must not fall through to the system-code pool")
}

func TestResolveFallsBackWhenBarcodeUnscanned(t *testing.T) {
	totals := map[string]float64{"112": 3}

	item := models.InvoiceItem{Barcode: "111", SystemCode: "SC-1"}
	counted, consumed := Resolve(item, totals, testCatalog())

	assert.Equal(t, 3.0, counted)
	assert.Equal(t, []string{"112"}, consumed)
}

func TestResolveNoMatch(t *testing.T) {
	totals := map[string]float64{"999": 5}

	counted, consumed := Resolve(models.InvoiceItem{Barcode: "111", SystemCode: "SC-9"}, totals, testCatalog())

	assert.Zero(t, counted)
	assert.Empty(t, consumed)
}

func TestResolveTreatsSentinelsAsAbsent(t *testing.T) {
	totals := map[string]float64{"-": 5, "": 2, "111": 1}

	counted, consumed := Resolve(models.InvoiceItem{Barcode: "-", SystemCode: ""}, totals, testCatalog())
	assert.Zero(t, counted)
	assert.Empty(t, consumed)

	counted, _ = Resolve(models.InvoiceItem{Barcode: "-", SystemCode: "SC-1"}, totals, testCatalog())
	assert.Equal(t, 1.0, counted)
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	totals := map[string]float64{"111": 4, "112": 3}

	Resolve(models.InvoiceItem{SystemCode: "SC-1"}, totals, testCatalog())

	assert.Equal(t, map[string]float64{"111": 4, "112": 3}, totals)
}
