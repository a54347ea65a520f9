// Package derive computes the lists the screens render. Every function is
// pure: inputs are never modified and identical inputs give identical output.
package derive

import (
	"sort"
	"strings"
	"time"

	"komal-desk/internal/models"
)

// DateBucket selects orders by how recent their date is
type DateBucket string

// Date buckets. The empty bucket passes every order.
const (
	BucketAll   DateBucket = ""
	BucketToday DateBucket = "today"
	BucketWeek  DateBucket = "week"
	BucketMonth DateBucket = "month"
)

// Valid reports whether b is a known bucket
func (b DateBucket) Valid() bool {
	switch b {
	case BucketAll, BucketToday, BucketWeek, BucketMonth:
		return true
	default:
		return false
	}
}

// OrderFilter holds the order list dimensions. Zero values mean "all".
type OrderFilter struct {
	Bit    string        `json:"bit"`
	Status models.Status `json:"status"`
	Date   DateBucket    `json:"date"`
}

// RetailerFilter holds the retailer list dimensions
type RetailerFilter struct {
	Bit string `json:"bit"`
}

// ProductFilter holds the product list dimensions
type ProductFilter struct {
	BrandName string `json:"brandName"`
}

// FilterOrders returns the orders passing every active dimension, in
// source order.
func FilterOrders(orders []models.Order, f OrderFilter, search string, now time.Time) []models.Order {
	cutoff, bucketed := bucketStart(f.Date, now)
	needle := normalize(search)

	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if f.Bit != "" && o.Bit != f.Bit {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if bucketed && (o.Date.IsZero() || o.Date.Before(cutoff)) {
			continue
		}
		if !matches(needle, o.CounterName) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// FilterRetailers returns the retailers in the selected bit whose name
// matches search.
func FilterRetailers(retailers []models.Retailer, f RetailerFilter, search string) []models.Retailer {
	needle := normalize(search)

	out := make([]models.Retailer, 0, len(retailers))
	for _, r := range retailers {
		if f.Bit != "" && r.Bit != f.Bit {
			continue
		}
		if !matches(needle, r.Name) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterProducts returns the products of the selected brand whose product
// or brand name matches search.
func FilterProducts(products []models.Product, f ProductFilter, search string) []models.Product {
	needle := normalize(search)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.BrandName != "" && p.BrandName != f.BrandName {
			continue
		}
		if !matches(needle, p.Name, p.BrandName) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterBrands returns the brands whose name matches search
func FilterBrands(brands []models.Brand, search string) []models.Brand {
	needle := normalize(search)

	out := make([]models.Brand, 0, len(brands))
	for _, b := range brands {
		if matches(needle, b.Name) {
			out = append(out, b)
		}
	}
	return out
}

// SortNewestFirst returns a copy of orders ordered by date and time,
// newest first. Orders with equal keys keep their source order.
func SortNewestFirst(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	copy(out, orders)

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c > 0
		}
		return clockMinutes(out[i].Time) > clockMinutes(out[j].Time)
	})
	return out
}

// RecentOrders returns the n newest orders
func RecentOrders(orders []models.Order, n int) []models.Order {
	sorted := SortNewestFirst(orders)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// StartOfWeek returns the Sunday on or before day
func StartOfWeek(day models.Date) models.Date {
	wd := day.In(time.UTC).Weekday()
	return day.AddDays(-int(wd))
}

func bucketStart(b DateBucket, now time.Time) (models.Date, bool) {
	today := models.DateOf(now)
	switch b {
	case BucketToday:
		return today, true
	case BucketWeek:
		return StartOfWeek(today), true
	case BucketMonth:
		return models.Date{Year: today.Year, Month: today.Month, Day: 1}, true
	default:
		return models.Date{}, false
	}
}

func normalize(search string) string {
	return strings.ToLower(strings.TrimSpace(search))
}

func matches(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "03:04 PM", "3:04:05 PM", "3:04PM"}

// clockMinutes converts an order time into minutes after midnight.
// Unparsable or missing times sort as midnight.
func clockMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Hour()*60 + t.Minute()
		}
	}
	return 0
}
