package recon

import (
	"sort"

	"stockcount-service/internal/models"
)

// Summarize groups the full multi-invoice scan ledger into per-invoice
// activity summaries, most recently active first. TotalItemsScanned counts
// scan actions, not scanned units. Users are listed once each, in the order
// they first appeared.
func Summarize(events []models.ScanEvent) []models.SessionSummary {
	byInvoice := make(map[string]*models.SessionSummary)
	seenUsers := make(map[string]map[string]bool)
	order := make([]string, 0)

	for _, ev := range events {
		summary, ok := byInvoice[ev.InvoiceNumber]
		if !ok {
			summary = &models.SessionSummary{
				InvoiceNumber: ev.InvoiceNumber,
				LastActivity:  ev.RecordedAt,
			}
			byInvoice[ev.InvoiceNumber] = summary
			seenUsers[ev.InvoiceNumber] = make(map[string]bool)
			order = append(order, ev.InvoiceNumber)
		}

		summary.TotalItemsScanned++
		if ev.RecordedAt.After(summary.LastActivity) {
			summary.LastActivity = ev.RecordedAt
		}
		if !seenUsers[ev.InvoiceNumber][ev.UserID] {
			seenUsers[ev.InvoiceNumber][ev.UserID] = true
			summary.UsersInvolved = append(summary.UsersInvolved, ev.UserID)
		}
	}

	summaries := make([]models.SessionSummary, 0, len(order))
	for _, invoice := range order {
		summaries = append(summaries, *byInvoice[invoice])
	}

	// Stable sort keeps first-appearance order for equal timestamps.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})

	return summaries
}
