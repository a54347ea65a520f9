package service

import (
	"context"
	"time"

	"komal-desk/internal/debounce"
	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/redisclient"
	"komal-desk/internal/remote"
)

// OrderAPI is the part of the Komal API used by the orders screen
type OrderAPI interface {
	ListOrders(ctx context.Context, q remote.OrderQuery) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateOrder(ctx context.Context, req *remote.CreateOrderRequest) (*models.Order, error)
	UpdateOrder(ctx context.Context, id string, req *remote.UpdateOrderRequest) (*models.Order, error)
	SetOrderStatus(ctx context.Context, id string, status models.Status) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	DeleteOrders(ctx context.Context, ids []string) (*remote.CleanupResult, error)
}

// ProductAPI is the part of the Komal API used by the products screen
type ProductAPI interface {
	ListProducts(ctx context.Context, brand, search string) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, in *remote.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in *remote.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UniqueBrandNames(ctx context.Context) ([]string, error)
	ReorderProducts(ctx context.Context, ranks []remote.ProductRank) error
}

// BrandAPI is the part of the Komal API used by the brands screen
type BrandAPI interface {
	ListBrands(ctx context.Context) ([]models.Brand, error)
	CreateBrand(ctx context.Context, in *remote.BrandInput) (*models.Brand, error)
	UpdateBrand(ctx context.Context, id string, in *remote.BrandInput) (*models.Brand, error)
	DeleteBrand(ctx context.Context, id string) error
	CleanupBrands(ctx context.Context) (*remote.CleanupResult, error)
	ReorderBrands(ctx context.Context, ranks []remote.BrandRank) error
}

// RetailerAPI is the part of the Komal API used by the retailers screen
type RetailerAPI interface {
	ListRetailers(ctx context.Context, bit, search string) ([]models.Retailer, error)
	CreateRetailer(ctx context.Context, in *remote.RetailerInput) (*models.Retailer, error)
	UpdateRetailer(ctx context.Context, id string, in *remote.RetailerInput) (*models.Retailer, error)
	DeleteRetailer(ctx context.Context, id string) error
	UniqueBits(ctx context.Context) ([]string, error)
}

// Journal records dispatched mutations and cleanups
type Journal interface {
	RecordMutation(ctx context.Context, rec *models.MutationRecord) error
	RecordCleanup(ctx context.Context, run *models.CleanupRun) error
}

// Publisher announces successful mutations to other sessions
type Publisher interface {
	PublishEntityChanged(ctx context.Context, event *models.EntityChangedEvent) error
}

// Locker guards mutations across service instances
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*redisclient.Lock, error)
	ReleaseLock(ctx context.Context, lock *redisclient.Lock) error
}

// Claimer makes a key usable once
type Claimer interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Options tunes screen behaviour
type Options struct {
	SearchWait      time.Duration
	RetentionDays   int
	ReorderRollback bool
	DashboardSize   int
	Now             func() time.Time
}

// DefaultOptions mirrors the production defaults
func DefaultOptions() Options {
	return Options{
		SearchWait:      debounce.DefaultWait,
		RetentionDays:   derive.DefaultRetentionDays,
		ReorderRollback: true,
		DashboardSize:   5,
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SearchWait <= 0 {
		o.SearchWait = d.SearchWait
	}
	if o.RetentionDays <= 0 {
		o.RetentionDays = d.RetentionDays
	}
	if o.DashboardSize <= 0 {
		o.DashboardSize = d.DashboardSize
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}
