package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrders() []models.Order {
	return []models.Order{
		{ID: "o1", CounterName: "Gupta General", Bit: "Bit 1", Status: models.OrderStatusCompleted, Date: day(2024, time.January, 1), TotalItems: 3},
		{ID: "o2", CounterName: "Sharma Kirana", Bit: "Bit 2", Status: models.OrderStatusPending, Date: day(2024, time.January, 1), TotalItems: 1},
		{ID: "o3", CounterName: "Gupta Provisions", Bit: "Bit 1", Status: models.OrderStatusCompleted, Date: day(2024, time.March, 13), TotalItems: 2},
		{ID: "o4", CounterName: "Verma Stores", Bit: "Bit 3", Status: models.OrderStatusCompleted, Date: day(2024, time.February, 12), TotalItems: 4},
	}
}

func newOrderScreen(t *testing.T, api *fakeOrders) (*OrderScreen, *fakeJournal, *fakePublisher) {
	t.Helper()
	journal := &fakeJournal{}
	pub := &fakePublisher{}
	disp := NewDispatcher("s1", journal, pub, nil)
	s := NewOrderScreen(api, disp, &fakeClaims{}, testOptions())
	t.Cleanup(s.Close)
	return s, journal, pub
}

func orderIDs(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestOrderScreenReloadRendersAll(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)

	require.NoError(t, s.Reload(context.Background()))

	v := s.View()
	assert.Equal(t, []string{"o1", "o2", "o3", "o4"}, orderIDs(v.Items))
	assert.Equal(t, 4, v.Cached)
	assert.False(t, v.Loading)
}

func TestStagedFilterDoesNotChangeList(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	s.OpenFilters()
	require.NoError(t, s.StageFilter(derive.OrderFilter{Status: models.OrderStatusCompleted, Date: derive.BucketToday}))

	v := s.View()
	assert.Len(t, v.Items, 4)
	assert.True(t, v.FilterOpen)
	assert.Equal(t, derive.OrderFilter{}, v.Committed)

	s.DismissFilters()
	assert.Equal(t, derive.OrderFilter{}, s.CommittedFilter())
	assert.Len(t, s.View().Items, 4)
}

func TestApplyFiltersRefetchesServerDimensions(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	applied := 0
	s.OnApply(func() { applied++ })

	s.OpenFilters()
	require.NoError(t, s.StageFilter(derive.OrderFilter{Status: models.OrderStatusCompleted, Date: derive.BucketToday}))
	require.NoError(t, s.ApplyFilters(ctx))

	assert.Equal(t, 1, applied)
	assert.Equal(t, 2, api.listCalls())
	assert.Equal(t, models.OrderStatusCompleted, api.queries[1].Status)
	assert.Equal(t, []string{"o3"}, orderIDs(s.View().Items))

	// Date bucket only: no refetch
	s.OpenFilters()
	require.NoError(t, s.EditFilters(func(f *derive.OrderFilter) { f.Date = derive.BucketMonth }))
	require.NoError(t, s.ApplyFilters(ctx))
	assert.Equal(t, 2, api.listCalls())
	assert.Equal(t, []string{"o3"}, orderIDs(s.View().Items))
}

func TestApplyWithClosedDialogFails(t *testing.T) {
	s, _, _ := newOrderScreen(t, &fakeOrders{})
	assert.ErrorIs(t, s.ApplyFilters(context.Background()), ErrFilterClosed)
	assert.ErrorIs(t, s.StageFilter(derive.OrderFilter{}), ErrFilterClosed)
}

func TestStageFilterRejectsUnknownValues(t *testing.T) {
	s, _, _ := newOrderScreen(t, &fakeOrders{})
	s.OpenFilters()
	assert.True(t, IsValidation(s.StageFilter(derive.OrderFilter{Bit: "Nowhere"})))
	assert.True(t, IsValidation(s.StageFilter(derive.OrderFilter{Status: "Cancelled"})))
	assert.True(t, IsValidation(s.StageFilter(derive.OrderFilter{Date: "year"})))
}

func TestSearchIsDebounced(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	require.NoError(t, s.Reload(context.Background()))
	base := s.Version()

	s.SetSearch("g")
	s.SetSearch("gu")
	s.SetSearch("gupta")

	v := s.View()
	assert.Len(t, v.Items, 4)
	assert.Equal(t, "gupta", v.PendingSearch)

	require.Eventually(t, func() bool { return s.View().Search == "gupta" }, time.Second, 5*time.Millisecond)
	v = s.View()
	assert.Equal(t, []string{"o1", "o3"}, orderIDs(v.Items))
	assert.Empty(t, v.PendingSearch)
	assert.Equal(t, base+1, v.Version)
}

func TestCloseDropsPendingSearch(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	require.NoError(t, s.Reload(context.Background()))

	s.SetSearch("verma")
	s.Close()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "", s.View().Search)
}

func TestStaleReloadIsDiscarded(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)

	entered := make(chan struct{})
	release := make(chan struct{})
	api.onList = func(call int) {
		if call == 1 {
			close(entered)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Reload(context.Background())
	}()
	<-entered

	api.mu.Lock()
	api.orders = api.orders[:1]
	api.mu.Unlock()
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, []string{"o1"}, orderIDs(s.View().Items))

	close(release)
	wg.Wait()
	assert.Equal(t, []string{"o1"}, orderIDs(s.View().Items))
}

func TestCreateFoldsItemsAndReloads(t *testing.T) {
	api := &fakeOrders{}
	s, journal, pub := newOrderScreen(t, api)

	draft := OrderDraft{
		CounterName: "  Gupta General ",
		Bit:         "Bit 1",
		TotalAmount: decimal.RequireFromString("450.50"),
		Items: []models.OrderItem{
			{ProductID: "p1", Unit: models.UnitPiece, Quantity: 2},
			{ProductID: "p1", Unit: models.UnitPiece, Quantity: 5},
			{ProductID: "p1", Unit: models.UnitCase, Quantity: 1},
			{ProductID: "p2", Unit: models.UnitOuter, Quantity: 0},
		},
	}
	created, err := s.Create(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, created.Status)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, "Gupta General", req.CounterName)
	assert.Equal(t, 6, req.TotalItems)
	assert.Len(t, req.Items, 2)
	assert.Equal(t, 5, req.Items[0].Quantity)

	assert.Equal(t, []string{"new-order"}, orderIDs(s.View().Items))
	require.Len(t, journal.mutations, 1)
	assert.Equal(t, models.OutcomeSuccess, journal.mutations[0].Outcome)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "ORDER_CREATED", pub.events[0].EventType)
}

func TestCreateValidationSkipsNetwork(t *testing.T) {
	api := &fakeOrders{}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()

	cases := []OrderDraft{
		{Bit: "Bit 1", Items: []models.OrderItem{{ProductID: "p1", Unit: models.UnitPiece, Quantity: 1}}},
		{CounterName: "X", Bit: "Bit 9", Items: []models.OrderItem{{ProductID: "p1", Unit: models.UnitPiece, Quantity: 1}}},
		{CounterName: "X", Bit: "Bit 1", Items: []models.OrderItem{{ProductID: "p1", Unit: "Box", Quantity: 1}}},
		{CounterName: "X", Bit: "Bit 1", Items: []models.OrderItem{{ProductID: "p1", Unit: models.UnitPiece, Quantity: 0}}},
		{CounterName: "X", Bit: "Bit 1", Items: []models.OrderItem{{ProductID: "p1", Unit: models.UnitPiece, Quantity: -1}}},
	}
	for _, draft := range cases {
		_, err := s.Create(ctx, draft)
		assert.True(t, IsValidation(err), "draft %+v", draft)
	}
	assert.Empty(t, api.created)
	assert.Zero(t, api.listCalls())
}

func TestUpdateLeavesStatusAlone(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	newDate := day(2024, time.March, 10)
	updated, err := s.Update(ctx, "o2", OrderEdit{
		Items: []models.OrderItem{{ProductID: "p9", Unit: models.UnitCase, Quantity: 3}},
		Date:  &newDate,
	})
	require.NoError(t, err)

	require.Len(t, api.updates, 1)
	assert.Empty(t, api.updates[0].Status)
	assert.Equal(t, 3, *api.updates[0].TotalItems)
	assert.Equal(t, models.OrderStatusPending, updated.Status)

	o, err := s.Get(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, newDate, o.Date)
	assert.Equal(t, 3, o.TotalItems)
}

func TestCompleteIsOneWay(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, pub := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	o, err := s.Complete(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, o.Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "ORDER_COMPLETED", pub.events[0].EventType)

	_, err = s.Complete(ctx, "o2")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	_, err = s.Complete(ctx, "o1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestDuplicateMutationIsRejectedWhileInFlight(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api.onStatus = func() {
		once.Do(func() { close(entered) })
		<-release
	}

	errc := make(chan error, 1)
	go func() {
		_, err := s.Complete(ctx, "o2")
		errc <- err
	}()
	<-entered

	_, err := s.Complete(ctx, "o2")
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, <-errc)
}

func TestFailedMutationKeepsListAndReportsMessage(t *testing.T) {
	api := &fakeOrders{orders: seedOrders(), deleteErr: errBackend}
	s, journal, pub := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	err := s.Delete(ctx, "o1")
	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "Failed to delete order. Please try again.", merr.UserMessage())
	assert.Len(t, s.View().Items, 4)

	require.Len(t, journal.mutations, 1)
	assert.Equal(t, models.OutcomeFailed, journal.mutations[0].Outcome)
	assert.Empty(t, pub.events)
}

func TestDeleteRemovesLocally(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()
	require.NoError(t, s.Reload(ctx))

	require.NoError(t, s.Delete(ctx, "o2"))
	assert.Equal(t, []string{"o1", "o3", "o4"}, orderIDs(s.View().Items))
	assert.Equal(t, 1, api.listCalls())
}

func TestDashboardNewestFirst(t *testing.T) {
	api := &fakeOrders{orders: seedOrders()}
	s, _, _ := newOrderScreen(t, api)
	require.NoError(t, s.Reload(context.Background()))

	assert.Equal(t, []string{"o3", "o4"}, orderIDs(s.Dashboard(2)))
	assert.Len(t, s.Dashboard(0), 4)
}
