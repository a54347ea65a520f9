package service

import (
	"context"
	"fmt"
	"strings"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/remote"
	"komal-desk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoFilter is the filter of screens that only search
type NoFilter struct{}

// BrandDraft is the input of the brand form
type BrandDraft struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// BrandScreen is the brands list of one session
type BrandScreen struct {
	*listScreen[models.Brand, NoFilter]

	api  BrandAPI
	disp *Dispatcher
	opts Options
}

// NewBrandScreen creates an empty brands screen
func NewBrandScreen(api BrandAPI, disp *Dispatcher, opts Options) *BrandScreen {
	opts = opts.withDefaults()
	derived := func(brands []models.Brand, _ NoFilter, search string) []models.Brand {
		return derive.FilterBrands(brands, search)
	}
	return &BrandScreen{
		listScreen: newListScreen(models.EntityBrand, opts.SearchWait, brandID, derived),
		api:        api,
		disp:       disp,
		opts:       opts,
	}
}

func brandID(b models.Brand) string { return b.ID }

// Reload fetches every brand with its product count
func (s *BrandScreen) Reload(ctx context.Context) error {
	gen := s.beginLoad()
	brands, err := s.api.ListBrands(ctx)
	s.finishLoad(gen, brands, err)
	if err != nil {
		return fmt.Errorf("failed to load brands: %w", err)
	}
	return nil
}

// Create adds a brand. Names are unique ignoring case.
func (s *BrandScreen) Create(ctx context.Context, draft BrandDraft) (*models.Brand, error) {
	if err := s.validate("", &draft); err != nil {
		return nil, err
	}

	var created *models.Brand
	m := Mutation{Entity: models.EntityBrand, Verb: "create", Action: models.ActionCreated}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		b, err := s.api.CreateBrand(ctx, &remote.BrandInput{Name: draft.Name, Image: draft.Image})
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.reloadAfter(ctx)
	return created, nil
}

// Update renames a brand or changes its image
func (s *BrandScreen) Update(ctx context.Context, id string, draft BrandDraft) (*models.Brand, error) {
	if err := s.validate(id, &draft); err != nil {
		return nil, err
	}

	var updated *models.Brand
	m := Mutation{Entity: models.EntityBrand, Verb: "update", EntityID: id, Action: models.ActionUpdated}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		b, err := s.api.UpdateBrand(ctx, id, &remote.BrandInput{Name: draft.Name, Image: draft.Image})
		if err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.reloadAfter(ctx)
	return updated, nil
}

// Delete removes a brand
func (s *BrandScreen) Delete(ctx context.Context, id string) error {
	m := Mutation{Entity: models.EntityBrand, Verb: "delete", EntityID: id, Action: models.ActionDeleted}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		return s.api.DeleteBrand(ctx, id)
	})
	if err != nil {
		return err
	}
	s.mutateLocal(func(brands []models.Brand) []models.Brand {
		out := brands[:0]
		for _, b := range brands {
			if b.ID != id {
				out = append(out, b)
			}
		}
		return out
	})
	return nil
}

// Cleanup asks the server to delete every brand without products, then
// reloads. Running it with nothing to delete is harmless.
func (s *BrandScreen) Cleanup(ctx context.Context) (*remote.CleanupResult, error) {
	runID := uuid.New().String()

	var result *remote.CleanupResult
	m := Mutation{Entity: models.EntityBrand, Verb: "clean up", Action: models.ActionCleanedUp}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		res, err := s.api.CleanupBrands(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &remote.CleanupResult{}
	}

	util.CleanupDeletedTotal.WithLabelValues(models.EntityBrand).Add(float64(result.DeletedCount))
	s.disp.recordCleanup(ctx, runID, models.EntityBrand, result.DeletedCount)
	s.reloadAfter(ctx)
	return result, nil
}

// Reorder sets the custom order of all brands
func (s *BrandScreen) Reorder(ctx context.Context, ids []string) error {
	rank := func(b models.Brand, order int) models.Brand {
		b.Order = order
		return b
	}
	persist := func(ctx context.Context, ordered []models.Brand) error {
		ranks := make([]remote.BrandRank, len(ordered))
		for i, b := range ordered {
			ranks[i] = remote.BrandRank{BrandID: b.ID, Order: b.Order}
		}
		return s.api.ReorderBrands(ctx, ranks)
	}
	return reorder(ctx, s.listScreen, s.disp, models.EntityBrand, s.opts.ReorderRollback, ids, rank, persist)
}

func (s *BrandScreen) validate(id string, draft *BrandDraft) error {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Image = strings.TrimSpace(draft.Image)
	if draft.Name == "" {
		return invalid("name", "brand name is required")
	}
	for _, b := range s.cached() {
		if b.ID != id && strings.EqualFold(b.Name, draft.Name) {
			return invalid("name", "a brand with this name already exists")
		}
	}
	return nil
}

func (s *BrandScreen) reloadAfter(ctx context.Context) {
	if err := s.Reload(ctx); err != nil {
		s.disp.logger.Warn("Reload after brand change failed", zap.Error(err))
		s.MarkStale()
	}
}
