package remote

import (
	"context"
	"net/http"

	"komal-desk/internal/models"
)

// RetailerInput is the body of POST and PUT /retailers
type RetailerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Bit   string `json:"bit"`
}

// ListRetailers fetches retailers, optionally filtered by bit and search
func (c *Client) ListRetailers(ctx context.Context, bit, search string) ([]models.Retailer, error) {
	var retailers []models.Retailer
	query := filterQuery("bit", bit, "search", search)
	if err := c.do(ctx, "ListRetailers", http.MethodGet, "/retailers", query, nil, &retailers); err != nil {
		return nil, err
	}
	return retailers, nil
}

// CreateRetailer creates a retailer
func (c *Client) CreateRetailer(ctx context.Context, in *RetailerInput) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := c.do(ctx, "CreateRetailer", http.MethodPost, "/retailers", nil, in, &retailer); err != nil {
		return nil, err
	}
	return &retailer, nil
}

// UpdateRetailer updates a retailer
func (c *Client) UpdateRetailer(ctx context.Context, id string, in *RetailerInput) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := c.do(ctx, "UpdateRetailer", http.MethodPut, "/retailers/"+escape(id), nil, in, &retailer); err != nil {
		return nil, err
	}
	return &retailer, nil
}

// DeleteRetailer deletes a retailer
func (c *Client) DeleteRetailer(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteRetailer", http.MethodDelete, "/retailers/"+escape(id), nil, nil, nil)
}

// UniqueBits lists the bits in use by retailers
func (c *Client) UniqueBits(ctx context.Context) ([]string, error) {
	var bits []string
	if err := c.do(ctx, "UniqueBits", http.MethodGet, "/retailers/bits/unique", nil, nil, &bits); err != nil {
		return nil, err
	}
	return bits, nil
}
