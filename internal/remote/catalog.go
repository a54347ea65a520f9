package remote

import (
	"context"
	"net/http"

	"komal-desk/internal/models"
)

// ProductInput is the body of POST and PUT /products
type ProductInput struct {
	Name      string `json:"name"`
	BrandID   string `json:"brandId"`
	BrandName string `json:"brandName"`
}

// BrandInput is the body of POST and PUT /brands
type BrandInput struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// ProductRank places one product in the custom ordering
type ProductRank struct {
	ProductID string `json:"productId"`
	Order     int    `json:"order"`
}

// BrandRank places one brand in the custom ordering
type BrandRank struct {
	BrandID string `json:"brandId"`
	Order   int    `json:"order"`
}

// ListProducts fetches products, optionally filtered by brand and search
func (c *Client) ListProducts(ctx context.Context, brand, search string) ([]models.Product, error) {
	var products []models.Product
	query := filterQuery("brand", brand, "search", search)
	if err := c.do(ctx, "ListProducts", http.MethodGet, "/products", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, "GetProduct", http.MethodGet, "/products/"+escape(id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a product
func (c *Client) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, "CreateProduct", http.MethodPost, "/products", nil, in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct updates a product
func (c *Client) UpdateProduct(ctx context.Context, id string, in *ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, "UpdateProduct", http.MethodPut, "/products/"+escape(id), nil, in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a product. The server may delete the brand too
// when this was its last product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteProduct", http.MethodDelete, "/products/"+escape(id), nil, nil, nil)
}

// UniqueBrandNames lists the distinct brand names used by products
func (c *Client) UniqueBrandNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, "UniqueBrandNames", http.MethodGet, "/products/brands/unique", nil, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ReorderProducts persists the product ordering
func (c *Client) ReorderProducts(ctx context.Context, ranks []ProductRank) error {
	body := map[string][]ProductRank{"productOrders": ranks}
	return c.do(ctx, "ReorderProducts", http.MethodPut, "/products/order", nil, body, nil)
}

// ListBrands fetches brands with their product counts
func (c *Client) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := c.do(ctx, "ListBrands", http.MethodGet, "/brands", nil, nil, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// CreateBrand creates a brand
func (c *Client) CreateBrand(ctx context.Context, in *BrandInput) (*models.Brand, error) {
	var brand models.Brand
	if err := c.do(ctx, "CreateBrand", http.MethodPost, "/brands", nil, in, &brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

// UpdateBrand updates a brand
func (c *Client) UpdateBrand(ctx context.Context, id string, in *BrandInput) (*models.Brand, error) {
	var brand models.Brand
	if err := c.do(ctx, "UpdateBrand", http.MethodPut, "/brands/"+escape(id), nil, in, &brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

// DeleteBrand deletes a brand
func (c *Client) DeleteBrand(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteBrand", http.MethodDelete, "/brands/"+escape(id), nil, nil, nil)
}

// CleanupBrands asks the server to delete every brand without products
func (c *Client) CleanupBrands(ctx context.Context) (*CleanupResult, error) {
	var result CleanupResult
	if err := c.do(ctx, "CleanupBrands", http.MethodPost, "/brands/cleanup", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReorderBrands persists the brand ordering
func (c *Client) ReorderBrands(ctx context.Context, ranks []BrandRank) error {
	body := map[string][]BrandRank{"brandOrders": ranks}
	return c.do(ctx, "ReorderBrands", http.MethodPut, "/brands/order", nil, body, nil)
}
