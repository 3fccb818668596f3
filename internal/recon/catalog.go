package recon

import "stockcount-service/internal/models"

// Catalog is an indexed, read-only view over the product catalog used by the
// resolver. Build one from the externally supplied entries and pass it by
// value; it is never mutated after construction.
type Catalog struct {
	byBarcode      map[string]models.CatalogEntry
	barcodesByCode map[string][]string
}

// NewCatalog indexes catalog entries by barcode and by system code. Barcodes
// sharing a system code keep their input order.
func NewCatalog(entries []models.CatalogEntry) Catalog {
	c := Catalog{
		byBarcode:      make(map[string]models.CatalogEntry, len(entries)),
		barcodesByCode: make(map[string][]string),
	}
	for _, e := range entries {
		barcode := Normalize(e.Barcode)
		if barcode == "" {
			continue
		}
		if _, exists := c.byBarcode[barcode]; exists {
			continue
		}
		c.byBarcode[barcode] = e
		if code := Normalize(e.SystemCode); code != "" {
			c.barcodesByCode[code] = append(c.barcodesByCode[code], barcode)
		}
	}
	return c
}

// NameFor returns the catalog name for a barcode, or "unknown" if the barcode
// is not in the catalog.
func (c Catalog) NameFor(barcode string) string {
	if e, ok := c.byBarcode[barcode]; ok {
		return e.Name
	}
	return "unknown"
}

// BarcodesForCode returns every catalog barcode registered under a system
// code, in catalog order.
func (c Catalog) BarcodesForCode(systemCode string) []string {
	return c.barcodesByCode[Normalize(systemCode)]
}

// Normalize maps the absent-value sentinels (empty string and "-") to the
// empty string and returns any other identifier unchanged.
func Normalize(id string) string {
	if id == "-" {
		return ""
	}
	return id
}
