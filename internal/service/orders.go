package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/remote"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderDraft is the input of the order creation flow
type OrderDraft struct {
	CounterName string             `json:"counterName"`
	Bit         string             `json:"bit"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Items       []models.OrderItem `json:"items"`
}

// OrderEdit carries the editable parts of an existing order. Nil fields are
// left unchanged.
type OrderEdit struct {
	Items       []models.OrderItem `json:"items,omitempty"`
	Date        *models.Date       `json:"date,omitempty"`
	TotalAmount *decimal.Decimal   `json:"totalAmount,omitempty"`
}

// OrderScreen is the orders list of one session
type OrderScreen struct {
	*listScreen[models.Order, derive.OrderFilter]

	api     OrderAPI
	disp    *Dispatcher
	claims  Claimer
	opts    Options
	onApply func()

	plansMu sync.Mutex
	plans   map[string]*CleanupPlan
}

// NewOrderScreen creates an empty orders screen. claims may be nil.
func NewOrderScreen(api OrderAPI, disp *Dispatcher, claims Claimer, opts Options) *OrderScreen {
	opts = opts.withDefaults()
	derived := func(items []models.Order, f derive.OrderFilter, search string) []models.Order {
		return derive.FilterOrders(items, f, search, opts.Now())
	}
	return &OrderScreen{
		listScreen: newListScreen(models.EntityOrder, opts.SearchWait, orderID, derived),
		api:        api,
		disp:       disp,
		claims:     claims,
		opts:       opts,
		plans:      make(map[string]*CleanupPlan),
	}
}

func orderID(o models.Order) string { return o.ID }

// OnApply registers a hook run after filters are applied
func (s *OrderScreen) OnApply(fn func()) {
	s.onApply = fn
}

// Reload fetches orders using the committed bit and status as server-side
// filters. A response overtaken by a newer load is dropped.
func (s *OrderScreen) Reload(ctx context.Context) error {
	gen := s.beginLoad()
	f := s.CommittedFilter()
	orders, err := s.api.ListOrders(ctx, remote.OrderQuery{Bit: f.Bit, Status: f.Status})
	s.finishLoad(gen, orders, err)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	return nil
}

// StageFilter replaces the staged filter after checking its dimensions
func (s *OrderScreen) StageFilter(f derive.OrderFilter) error {
	if f.Bit != "" && !models.ValidBit(f.Bit) {
		return invalid("bit", "unknown bit")
	}
	if f.Status != "" && !f.Status.Valid() {
		return invalid("status", "unknown status")
	}
	if !f.Date.Valid() {
		return invalid("date", "unknown date range")
	}
	return s.EditFilters(func(staged *derive.OrderFilter) { *staged = f })
}

// ApplyFilters commits the staged filter. Bit and status are filtered by the
// server, so changing either refetches.
func (s *OrderScreen) ApplyFilters(ctx context.Context) error {
	prev, next, err := s.commitFilters()
	if err != nil {
		return err
	}
	if s.onApply != nil {
		s.onApply()
	}
	if prev.Bit != next.Bit || prev.Status != next.Status {
		return s.Reload(ctx)
	}
	return nil
}

// Restore installs a saved committed filter
func (s *OrderScreen) Restore(f derive.OrderFilter) {
	s.restore(f)
}

// Get returns an order from the cache, falling back to the server
func (s *OrderScreen) Get(ctx context.Context, id string) (*models.Order, error) {
	if o, ok := s.find(id); ok {
		return &o, nil
	}
	o, err := s.api.GetOrder(ctx, id)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// Dashboard returns the n most recent cached orders, newest first
func (s *OrderScreen) Dashboard(n int) []models.Order {
	if n <= 0 {
		n = s.opts.DashboardSize
	}
	return derive.RecentOrders(s.cached(), n)
}

// Create places a new Pending order and reloads the list
func (s *OrderScreen) Create(ctx context.Context, draft OrderDraft) (*models.Order, error) {
	draft.CounterName = strings.TrimSpace(draft.CounterName)
	if draft.CounterName == "" {
		return nil, invalid("counterName", "retailer is required")
	}
	if !models.ValidBit(draft.Bit) {
		return nil, invalid("bit", "unknown bit")
	}
	if draft.TotalAmount.IsNegative() {
		return nil, invalid("totalAmount", "must not be negative")
	}
	items, err := normalizeItems(draft.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalid("items", "add at least one item")
	}

	req := &remote.CreateOrderRequest{
		CounterName: draft.CounterName,
		Bit:         draft.Bit,
		TotalItems:  derive.TotalItems(items),
		TotalAmount: draft.TotalAmount,
		Items:       items,
	}

	var created *models.Order
	m := Mutation{Entity: models.EntityOrder, Verb: "create", Action: models.ActionCreated}
	err = s.disp.Do(ctx, m, func(ctx context.Context) error {
		o, err := s.api.CreateOrder(ctx, req)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Reload(ctx); err != nil {
		s.disp.logger.Warn("Reload after order create failed", zap.Error(err))
		s.MarkStale()
	}
	return created, nil
}

// Update saves item and date edits. The status is never changed here.
func (s *OrderScreen) Update(ctx context.Context, id string, edit OrderEdit) (*models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req := &remote.UpdateOrderRequest{}
	if edit.Items != nil {
		items, err := normalizeItems(edit.Items)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, invalid("items", "an order needs at least one item")
		}
		total := derive.TotalItems(items)
		req.Items = items
		req.TotalItems = &total
	}
	if edit.Date != nil {
		if !edit.Date.Valid() {
			return nil, invalid("date", "invalid date")
		}
		d := *edit.Date
		req.Date = &d
	}
	if edit.TotalAmount != nil {
		if edit.TotalAmount.IsNegative() {
			return nil, invalid("totalAmount", "must not be negative")
		}
		amount := *edit.TotalAmount
		req.TotalAmount = &amount
	}

	var updated *models.Order
	m := Mutation{Entity: models.EntityOrder, Verb: "update", EntityID: id, Action: models.ActionUpdated}
	err = s.disp.Do(ctx, m, func(ctx context.Context) error {
		o, err := s.api.UpdateOrder(ctx, id, req)
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated == nil || updated.ID == "" {
		merged := *current
		if req.Items != nil {
			merged.Items = req.Items
			merged.TotalItems = *req.TotalItems
		}
		if req.Date != nil {
			merged.Date = *req.Date
		}
		if req.TotalAmount != nil {
			merged.TotalAmount = *req.TotalAmount
		}
		updated = &merged
	}
	s.replace(*updated)
	return updated, nil
}

// Complete moves a Pending order to Completed. Completed is terminal.
func (s *OrderScreen) Complete(ctx context.Context, id string) (*models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.OrderStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	var updated *models.Order
	m := Mutation{Entity: models.EntityOrder, Verb: "complete", EntityID: id, Action: models.ActionCompleted}
	err = s.disp.Do(ctx, m, func(ctx context.Context) error {
		o, err := s.api.SetOrderStatus(ctx, id, models.OrderStatusCompleted)
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated == nil || updated.ID == "" {
		merged := *current
		updated = &merged
	}
	updated.Status = models.OrderStatusCompleted
	s.replace(*updated)
	return updated, nil
}

// Delete removes one order
func (s *OrderScreen) Delete(ctx context.Context, id string) error {
	m := Mutation{Entity: models.EntityOrder, Verb: "delete", EntityID: id, Action: models.ActionDeleted}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		return s.api.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	s.mutateLocal(func(orders []models.Order) []models.Order {
		out := orders[:0]
		for _, o := range orders {
			if o.ID != id {
				out = append(out, o)
			}
		}
		return out
	})
	return nil
}

func (s *OrderScreen) replace(o models.Order) {
	s.mutateLocal(func(orders []models.Order) []models.Order {
		for i := range orders {
			if orders[i].ID == o.ID {
				orders[i] = o
				return orders
			}
		}
		return append(orders, o)
	})
}

// normalizeItems folds duplicate product and unit lines into one, keeping
// the last quantity, and drops empty lines.
func normalizeItems(items []models.OrderItem) ([]models.OrderItem, error) {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, invalid("items", "every item needs a product")
		}
		if !it.Unit.Valid() {
			return nil, invalid("items", fmt.Sprintf("unknown unit %q", it.Unit))
		}
		if it.Quantity < 0 {
			return nil, invalid("items", "quantity must not be negative")
		}
		out = derive.UpsertItem(out, it)
	}
	return derive.PruneEmpty(out), nil
}
