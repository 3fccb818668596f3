package recon

import "stockcount-service/internal/models"

// Resolve decides which scanned quantity belongs to one invoice item. Two
// tiers, first hit wins:
//
//  1. direct: the item's own barcode is present in scanTotals
//  2. indirect: the item carries a system code; sum the totals of every
//     catalog barcode registered under that code
//
// It returns the counted quantity and the set of barcodes that supplied it.
// Resolve never mutates scanTotals; consumption is the aggregator's job.
func Resolve(item models.InvoiceItem, scanTotals map[string]float64, catalog Catalog) (float64, []string) {
	if barcode := Normalize(item.Barcode); barcode != "" {
		if qty, ok := scanTotals[barcode]; ok {
			return qty, []string{barcode}
		}
	}

	if code := Normalize(item.SystemCode); code != "" {
		var counted float64
		var consumed []string
		for _, barcode := range catalog.BarcodesForCode(code) {
			qty, ok := scanTotals[barcode]
			if !ok {
				continue
			}
			counted += qty
			consumed = append(consumed, barcode)
		}
		if len(consumed) > 0 {
			return counted, consumed
		}
	}

	return 0, nil
}
