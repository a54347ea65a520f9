package service

import (
	"context"
	"fmt"
	"strings"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/remote"

	"go.uber.org/zap"
)

// CascadeNotice is shown after a product delete
const CascadeNotice = "If this was the last product of its brand, the brand has been removed too."

// ProductDraft is the input of the product form. Exactly one of BrandID and
// NewBrandName is set.
type ProductDraft struct {
	Name         string `json:"name"`
	BrandID      string `json:"brandId,omitempty"`
	NewBrandName string `json:"newBrandName,omitempty"`
}

func (d *ProductDraft) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.BrandID = strings.TrimSpace(d.BrandID)
	d.NewBrandName = strings.TrimSpace(d.NewBrandName)

	if d.Name == "" {
		return invalid("name", "product name is required")
	}
	if d.BrandID != "" && d.NewBrandName != "" {
		return invalid("brand", "choose an existing brand or enter a new one, not both")
	}
	if d.BrandID == "" && d.NewBrandName == "" {
		return invalid("brand", "brand is required")
	}
	return nil
}

// ProductScreen is the products list of one session
type ProductScreen struct {
	*listScreen[models.Product, derive.ProductFilter]

	api             ProductAPI
	brands          BrandAPI
	disp            *Dispatcher
	opts            Options
	onApply         func()
	onBrandsChanged func()
}

// NewProductScreen creates an empty products screen
func NewProductScreen(api ProductAPI, brands BrandAPI, disp *Dispatcher, opts Options) *ProductScreen {
	opts = opts.withDefaults()
	return &ProductScreen{
		listScreen: newListScreen(models.EntityProduct, opts.SearchWait, productID, derive.FilterProducts),
		api:        api,
		brands:     brands,
		disp:       disp,
		opts:       opts,
	}
}

func productID(p models.Product) string { return p.ID }

// OnApply registers a hook run after filters are applied
func (s *ProductScreen) OnApply(fn func()) {
	s.onApply = fn
}

// OnBrandsChanged registers a hook run when a product change may have
// created or removed a brand
func (s *ProductScreen) OnBrandsChanged(fn func()) {
	s.onBrandsChanged = fn
}

// Reload fetches products of the committed brand
func (s *ProductScreen) Reload(ctx context.Context) error {
	gen := s.beginLoad()
	products, err := s.api.ListProducts(ctx, s.CommittedFilter().BrandName, "")
	s.finishLoad(gen, products, err)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	return nil
}

// StageFilter replaces the staged filter
func (s *ProductScreen) StageFilter(f derive.ProductFilter) error {
	f.BrandName = strings.TrimSpace(f.BrandName)
	return s.EditFilters(func(staged *derive.ProductFilter) { *staged = f })
}

// ApplyFilters commits the staged filter. The brand is filtered by the
// server, so changing it refetches.
func (s *ProductScreen) ApplyFilters(ctx context.Context) error {
	prev, next, err := s.commitFilters()
	if err != nil {
		return err
	}
	if s.onApply != nil {
		s.onApply()
	}
	if prev.BrandName != next.BrandName {
		return s.Reload(ctx)
	}
	return nil
}

// Restore installs a saved committed filter
func (s *ProductScreen) Restore(f derive.ProductFilter) {
	s.restore(f)
}

// BrandNames lists distinct brand names for the filter dialog
func (s *ProductScreen) BrandNames(ctx context.Context) ([]string, error) {
	names, err := s.api.UniqueBrandNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand names: %w", err)
	}
	return names, nil
}

// Create resolves the brand, creating it if new, then creates the product.
// The two calls are not atomic: a brand created in the first step stays if
// the product call fails.
func (s *ProductScreen) Create(ctx context.Context, draft ProductDraft) (*models.Product, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	brand, err := s.resolveBrand(ctx, draft)
	if err != nil {
		return nil, err
	}

	in := &remote.ProductInput{Name: draft.Name, BrandID: brand.ID, BrandName: brand.Name}
	var created *models.Product
	m := Mutation{Entity: models.EntityProduct, Verb: "create", Action: models.ActionCreated}
	err = s.disp.Do(ctx, m, func(ctx context.Context) error {
		p, err := s.api.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx)
	return created, nil
}

// Get returns a product from the cache, falling back to the server
func (s *ProductScreen) Get(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.find(id); ok {
		return &p, nil
	}
	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// Update edits a product, resolving its brand the same way Create does
func (s *ProductScreen) Update(ctx context.Context, id string, draft ProductDraft) (*models.Product, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	brand, err := s.resolveBrand(ctx, draft)
	if err != nil {
		return nil, err
	}

	in := &remote.ProductInput{Name: draft.Name, BrandID: brand.ID, BrandName: brand.Name}
	var updated *models.Product
	m := Mutation{Entity: models.EntityProduct, Verb: "update", EntityID: id, Action: models.ActionUpdated}
	err = s.disp.Do(ctx, m, func(ctx context.Context) error {
		p, err := s.api.UpdateProduct(ctx, id, in)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx)
	return updated, nil
}

// Delete removes a product and returns the cascade notice. Brand lists are
// refreshed since the server may have removed an empty brand.
func (s *ProductScreen) Delete(ctx context.Context, id string) (string, error) {
	m := Mutation{Entity: models.EntityProduct, Verb: "delete", EntityID: id, Action: models.ActionDeleted}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		return s.api.DeleteProduct(ctx, id)
	})
	if err != nil {
		return "", err
	}

	s.mutateLocal(func(products []models.Product) []models.Product {
		out := products[:0]
		for _, p := range products {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})
	s.afterChange(ctx)
	return CascadeNotice, nil
}

// Reorder sets the custom order of the cached products. ids must list
// every cached product.
func (s *ProductScreen) Reorder(ctx context.Context, ids []string) error {
	rank := func(p models.Product, order int) models.Product {
		p.Order = order
		return p
	}
	persist := func(ctx context.Context, ordered []models.Product) error {
		ranks := make([]remote.ProductRank, len(ordered))
		for i, p := range ordered {
			ranks[i] = remote.ProductRank{ProductID: p.ID, Order: p.Order}
		}
		return s.api.ReorderProducts(ctx, ranks)
	}
	return reorder(ctx, s.listScreen, s.disp, models.EntityProduct, s.opts.ReorderRollback, ids, rank, persist)
}

// resolveBrand returns the brand a draft refers to. A new brand name that
// matches an existing brand, ignoring case, reuses it.
func (s *ProductScreen) resolveBrand(ctx context.Context, draft ProductDraft) (*models.Brand, error) {
	brands, err := s.brands.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load brands: %w", err)
	}

	if draft.BrandID != "" {
		for i := range brands {
			if brands[i].ID == draft.BrandID {
				return &brands[i], nil
			}
		}
		return nil, invalid("brandId", "unknown brand")
	}

	for i := range brands {
		if strings.EqualFold(brands[i].Name, draft.NewBrandName) {
			return &brands[i], nil
		}
	}

	var created *models.Brand
	m := Mutation{Entity: models.EntityBrand, Verb: "create", Action: models.ActionCreated}
	err = s.disp.Do(ctx, m, func(ctx context.Context) error {
		b, err := s.brands.CreateBrand(ctx, &remote.BrandInput{Name: draft.NewBrandName})
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created == nil || created.ID == "" {
		return nil, &MutationError{Verb: "create", Entity: models.EntityBrand, Err: fmt.Errorf("server returned no brand id")}
	}
	s.disp.logger.Info("Created brand for product", zap.String("brand", created.Name), zap.String("brand_id", created.ID))
	return created, nil
}

func (s *ProductScreen) afterChange(ctx context.Context) {
	if err := s.Reload(ctx); err != nil {
		s.disp.logger.Warn("Reload after product change failed", zap.Error(err))
		s.MarkStale()
	}
	if s.onBrandsChanged != nil {
		s.onBrandsChanged()
	}
}
