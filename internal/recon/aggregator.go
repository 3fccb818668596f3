package recon

import "stockcount-service/internal/models"

// ComputeReport reconciles one invoice's line items against its scan ledger.
// It is a pure function of its inputs: same snapshot in, identical report
// out, no I/O, no shared state.
//
// Items are processed in input order and each resolved barcode is removed
// from the scan pool before the next item is considered, so every scanned
// unit is attributed to at most one row. When two items share a system code
// the earlier one drains the pool first; the later one may legitimately
// report zero counted. Whatever survives the pass becomes the extras list.
func ComputeReport(items []models.InvoiceItem, events []models.ScanEvent, catalog Catalog) models.Report {
	totals, order := scanTotals(events)

	rows := make([]models.ReconciliationRow, 0, len(items))
	for _, item := range items {
		counted, consumed := Resolve(item, totals, catalog)
		for _, barcode := range consumed {
			delete(totals, barcode)
		}

		converted := item.InvoiceQuantity * item.ConversionFactor
		difference := counted - converted

		rows = append(rows, models.ReconciliationRow{
			SystemCode:        Normalize(item.SystemCode),
			Barcode:           Normalize(item.Barcode),
			Name:              item.Name,
			InvoiceQuantity:   item.InvoiceQuantity,
			ConversionFactor:  item.ConversionFactor,
			ConvertedQuantity: converted,
			CountedQuantity:   counted,
			Difference:        difference,
			Status:            statusFor(difference),
		})
	}

	extras := make([]models.ExtraItem, 0)
	for _, barcode := range order {
		qty, ok := totals[barcode]
		if !ok {
			continue
		}
		extras = append(extras, models.ExtraItem{
			Barcode:         barcode,
			Name:            catalog.NameFor(barcode),
			CountedQuantity: qty,
		})
	}

	return models.Report{Rows: rows, Extras: extras}
}

// scanTotals sums quantity per barcode and records each barcode's first
// appearance so the extras list comes out in a stable order.
func scanTotals(events []models.ScanEvent) (map[string]float64, []string) {
	totals := make(map[string]float64, len(events))
	order := make([]string, 0, len(events))
	for _, ev := range events {
		if _, seen := totals[ev.Barcode]; !seen {
			order = append(order, ev.Barcode)
		}
		totals[ev.Barcode] += ev.Quantity
	}
	return totals, order
}

func statusFor(difference float64) string {
	switch {
	case difference < 0:
		return models.StatusMissing
	case difference > 0:
		return models.StatusSurplus
	default:
		return models.StatusMatch
	}
}
