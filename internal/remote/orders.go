package remote

import (
	"context"
	"net/http"

	"komal-desk/internal/models"

	"github.com/shopspring/decimal"
)

// OrderQuery holds the server-side order filters. Empty fields are omitted.
type OrderQuery struct {
	Bit    string
	Status models.Status
	Search string
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	CounterName string             `json:"counterName"`
	Bit         string             `json:"bit"`
	TotalItems  int                `json:"totalItems"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Items       []models.OrderItem `json:"items"`
}

// UpdateOrderRequest is the body of PUT /orders/{id}. Nil fields are not sent.
type UpdateOrderRequest struct {
	Items       []models.OrderItem `json:"items,omitempty"`
	TotalItems  *int               `json:"totalItems,omitempty"`
	TotalAmount *decimal.Decimal   `json:"totalAmount,omitempty"`
	Date        *models.Date       `json:"date,omitempty"`
	Status      models.Status      `json:"status,omitempty"`
}

// CleanupResult is returned by bulk delete endpoints
type CleanupResult struct {
	DeletedCount int    `json:"deletedCount"`
	Message      string `json:"message,omitempty"`
}

// ListOrders fetches orders, optionally filtered by the server
func (c *Client) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	var orders []models.Order
	query := filterQuery("bit", q.Bit, "status", string(q.Status), "search", q.Search)
	if err := c.do(ctx, "ListOrders", http.MethodGet, "/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order
func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "GetOrder", http.MethodGet, "/orders/"+escape(id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder creates an order
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "CreateOrder", http.MethodPost, "/orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder updates an order
func (c *Client) UpdateOrder(ctx context.Context, id string, req *UpdateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "UpdateOrder", http.MethodPut, "/orders/"+escape(id), nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrderStatus changes only the status of an order
func (c *Client) SetOrderStatus(ctx context.Context, id string, status models.Status) (*models.Order, error) {
	var order models.Order
	body := map[string]models.Status{"status": status}
	if err := c.do(ctx, "SetOrderStatus", http.MethodPatch, "/orders/"+escape(id)+"/status", nil, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder deletes one order
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteOrder", http.MethodDelete, "/orders/"+escape(id), nil, nil, nil)
}

// DeleteOrders removes a batch of orders in one request
func (c *Client) DeleteOrders(ctx context.Context, ids []string) (*CleanupResult, error) {
	var result CleanupResult
	body := map[string][]string{"orderIds": ids}
	if err := c.do(ctx, "DeleteOrders", http.MethodPost, "/orders/delete-old-completed", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
