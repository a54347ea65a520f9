package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The remote API exchanges amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Order statuses
const (
	OrderStatusPending   Status = "Pending"
	OrderStatusCompleted Status = "Completed"
)

// Status is the lifecycle state of an order
type Status string

// Valid reports whether s is a known order status
func (s Status) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

// Item units
const (
	UnitPiece Unit = "Pc"
	UnitOuter Unit = "Outer"
	UnitCase  Unit = "Case"
)

// Unit is the packaging unit an item is ordered in
type Unit string

// Valid reports whether u is a known unit
func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitOuter, UnitCase:
		return true
	default:
		return false
	}
}

// Order represents a retailer order
type Order struct {
	ID          string          `json:"id"`
	CounterName string          `json:"counterName"`
	Bit         string          `json:"bit"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Date        Date            `json:"date"`
	Time        string          `json:"time,omitempty"`
	Status      Status          `json:"status"`
	OrderNumber string          `json:"orderNumber,omitempty"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem represents a line in an order. ProductID and Unit together
// identify an item within one order.
type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	BrandName   string `json:"brandName,omitempty"`
	Unit        Unit   `json:"unit"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

// Product represents a catalog product
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BrandID   string `json:"brandId"`
	BrandName string `json:"brandName"`
	Order     int    `json:"order"`
}

// Brand represents a product brand. ProductCount is computed by the server.
type Brand struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	ProductCount int    `json:"productCount"`
	Order        int    `json:"order"`
}

// Retailer represents a shop placing orders
type Retailer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Bit   string `json:"bit"`
}

// Entity kinds
const (
	EntityOrder    = "order"
	EntityProduct  = "product"
	EntityBrand    = "brand"
	EntityRetailer = "retailer"
)

// MutationRecord is one journal line for a dispatched mutation
type MutationRecord struct {
	ID        int64     `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Entity    string    `db:"entity" json:"entity"`
	Verb      string    `db:"verb" json:"verb"`
	EntityID  string    `db:"entity_id" json:"entity_id"`
	Outcome   string    `db:"outcome" json:"outcome"`
	Message   string    `db:"message" json:"message,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Mutation outcomes
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailed  = "FAILED"
)

// CleanupRun records one confirmed bulk cleanup
type CleanupRun struct {
	ID        int64     `db:"id" json:"id"`
	PlanID    string    `db:"plan_id" json:"plan_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Entity    string    `db:"entity" json:"entity"`
	Deleted   int       `db:"deleted" json:"deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
