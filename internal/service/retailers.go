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

// RetailerDraft is the input of the retailer form
type RetailerDraft struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Bit   string `json:"bit"`
}

// validate trims the draft and normalizes the phone to ten digits
func (d *RetailerDraft) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Bit = strings.TrimSpace(d.Bit)
	if d.Name == "" {
		return invalid("name", "retailer name is required")
	}
	phone, ok := normalizePhone(d.Phone)
	if !ok {
		return invalid("phone", "enter a 10 digit phone number")
	}
	d.Phone = phone
	if !models.ValidBit(d.Bit) {
		return invalid("bit", "choose one of the listed bits")
	}
	return nil
}

// normalizePhone strips spaces, dashes and an Indian country prefix
func normalizePhone(raw string) (string, bool) {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(p, "+91"):
		p = p[3:]
	case len(p) == 12 && strings.HasPrefix(p, "91"):
		p = p[2:]
	}
	if len(p) != 10 {
		return "", false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return p, true
}

// RetailerScreen is the retailers list of one session
type RetailerScreen struct {
	*listScreen[models.Retailer, derive.RetailerFilter]

	api     RetailerAPI
	disp    *Dispatcher
	opts    Options
	onApply func()
}

// NewRetailerScreen creates an empty retailers screen
func NewRetailerScreen(api RetailerAPI, disp *Dispatcher, opts Options) *RetailerScreen {
	opts = opts.withDefaults()
	return &RetailerScreen{
		listScreen: newListScreen(models.EntityRetailer, opts.SearchWait, retailerID, derive.FilterRetailers),
		api:        api,
		disp:       disp,
		opts:       opts,
	}
}

func retailerID(r models.Retailer) string { return r.ID }

// OnApply registers a hook run after filters are applied
func (s *RetailerScreen) OnApply(fn func()) {
	s.onApply = fn
}

// Reload fetches every retailer. Bit and search are applied locally.
func (s *RetailerScreen) Reload(ctx context.Context) error {
	gen := s.beginLoad()
	retailers, err := s.api.ListRetailers(ctx, "", "")
	s.finishLoad(gen, retailers, err)
	if err != nil {
		return fmt.Errorf("failed to load retailers: %w", err)
	}
	return nil
}

// StageFilter replaces the staged filter after checking the bit
func (s *RetailerScreen) StageFilter(f derive.RetailerFilter) error {
	if f.Bit != "" && !models.ValidBit(f.Bit) {
		return invalid("bit", "unknown bit")
	}
	return s.EditFilters(func(staged *derive.RetailerFilter) { *staged = f })
}

// ApplyFilters commits the staged filter
func (s *RetailerScreen) ApplyFilters(ctx context.Context) error {
	if _, _, err := s.commitFilters(); err != nil {
		return err
	}
	if s.onApply != nil {
		s.onApply()
	}
	return nil
}

// Restore installs a saved committed filter
func (s *RetailerScreen) Restore(f derive.RetailerFilter) {
	s.restore(f)
}

// Bits returns the closed set of territories
func (s *RetailerScreen) Bits() []string {
	return models.Bits()
}

// BitsInUse returns the bits the server has retailers for
func (s *RetailerScreen) BitsInUse(ctx context.Context) ([]string, error) {
	bits, err := s.api.UniqueBits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bits: %w", err)
	}
	return bits, nil
}

// Create adds a retailer
func (s *RetailerScreen) Create(ctx context.Context, draft RetailerDraft) (*models.Retailer, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}

	var created *models.Retailer
	m := Mutation{Entity: models.EntityRetailer, Verb: "create", Action: models.ActionCreated}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		r, err := s.api.CreateRetailer(ctx, &remote.RetailerInput{Name: draft.Name, Phone: draft.Phone, Bit: draft.Bit})
		if err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Reload(ctx); err != nil {
		s.disp.logger.Warn("Reload after retailer create failed", zap.Error(err))
		s.MarkStale()
	}
	return created, nil
}

// Update edits a retailer in place
func (s *RetailerScreen) Update(ctx context.Context, id string, draft RetailerDraft) (*models.Retailer, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}

	var updated *models.Retailer
	m := Mutation{Entity: models.EntityRetailer, Verb: "update", EntityID: id, Action: models.ActionUpdated}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		r, err := s.api.UpdateRetailer(ctx, id, &remote.RetailerInput{Name: draft.Name, Phone: draft.Phone, Bit: draft.Bit})
		if err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated == nil || updated.ID == "" {
		updated = &models.Retailer{ID: id, Name: draft.Name, Phone: draft.Phone, Bit: draft.Bit}
	}
	rec := *updated
	s.mutateLocal(func(retailers []models.Retailer) []models.Retailer {
		for i := range retailers {
			if retailers[i].ID == rec.ID {
				retailers[i] = rec
				return retailers
			}
		}
		return append(retailers, rec)
	})
	return updated, nil
}

// Delete removes a retailer
func (s *RetailerScreen) Delete(ctx context.Context, id string) error {
	m := Mutation{Entity: models.EntityRetailer, Verb: "delete", EntityID: id, Action: models.ActionDeleted}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		return s.api.DeleteRetailer(ctx, id)
	})
	if err != nil {
		return err
	}
	s.mutateLocal(func(retailers []models.Retailer) []models.Retailer {
		out := retailers[:0]
		for _, r := range retailers {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	})
	return nil
}
