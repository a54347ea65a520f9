package derive

import (
	"komal-desk/internal/models"
)

// DefaultRetentionDays is how long completed orders are kept before they
// become eligible for cleanup
const DefaultRetentionDays = 31

// UpsertItem adds item to items, replacing the quantity and notes of an
// existing line with the same product and unit.
func UpsertItem(items []models.OrderItem, item models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items), len(items)+1)
	copy(out, items)

	for i := range out {
		if out[i].ProductID == item.ProductID && out[i].Unit == item.Unit {
			out[i].Quantity = item.Quantity
			out[i].Notes = item.Notes
			if item.ProductName != "" {
				out[i].ProductName = item.ProductName
			}
			if item.BrandName != "" {
				out[i].BrandName = item.BrandName
			}
			return out
		}
	}
	return append(out, item)
}

// RemoveItem drops the line for productID and unit
func RemoveItem(items []models.OrderItem, productID string, unit models.Unit) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == productID && it.Unit == unit {
			continue
		}
		out = append(out, it)
	}
	return out
}

// TotalItems sums item quantities
func TotalItems(items []models.OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// PruneEmpty drops zero-quantity lines
func PruneEmpty(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out
}

// EligibleForCleanup reports whether o is a completed order dated at least
// retentionDays before today
func EligibleForCleanup(o models.Order, today models.Date, retentionDays int) bool {
	if o.Status != models.OrderStatusCompleted || o.Date.IsZero() {
		return false
	}
	return !o.Date.After(today.AddDays(-retentionDays))
}

// CleanupCandidates returns the ids of every eligible order
func CleanupCandidates(orders []models.Order, today models.Date, retentionDays int) []string {
	ids := make([]string, 0)
	for _, o := range orders {
		if EligibleForCleanup(o, today, retentionDays) {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
