package service

import (
	"context"
	"testing"
	"time"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanupOrders() []models.Order {
	today := models.DateOf(testNow)
	return []models.Order{
		{ID: "old-done", Status: models.OrderStatusCompleted, Date: today.AddDays(-31)},
		{ID: "recent-done", Status: models.OrderStatusCompleted, Date: today.AddDays(-30)},
		{ID: "old-pending", Status: models.OrderStatusPending, Date: today.AddDays(-31), Bit: "Bit 2"},
		{ID: "ancient-done", Status: models.OrderStatusCompleted, Date: day(2023, time.June, 1), Bit: "Bit 4"},
		{ID: "no-date", Status: models.OrderStatusCompleted},
	}
}

func TestPrepareCleanupIgnoresActiveFilter(t *testing.T) {
	api := &fakeOrders{orders: cleanupOrders()}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()

	s.Restore(derive.OrderFilter{Status: models.OrderStatusPending})
	require.NoError(t, s.Reload(ctx))
	assert.Len(t, s.View().Items, 1)

	plan, err := s.PrepareCleanup(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.ElementsMatch(t, []string{"old-done", "ancient-done"}, plan.IDs)
	assert.Equal(t, 2, plan.Count)
	assert.Equal(t, remote.OrderQuery{}, api.queries[len(api.queries)-1])
	assert.Empty(t, api.batches)
}

func TestConfirmCleanupRunsOnce(t *testing.T) {
	api := &fakeOrders{orders: cleanupOrders()}
	s, journal, pub := newOrderScreen(t, api)
	ctx := context.Background()

	plan, err := s.PrepareCleanup(ctx)
	require.NoError(t, err)

	res, err := s.ConfirmCleanup(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.DeletedCount)
	require.Len(t, api.batches, 1)
	assert.ElementsMatch(t, plan.IDs, api.batches[0])
	assert.Len(t, s.View().Items, 3)

	_, err = s.ConfirmCleanup(ctx, plan.ID)
	assert.ErrorIs(t, err, ErrPlanExecuted)
	assert.Len(t, api.batches, 1)

	require.Len(t, journal.cleanups, 1)
	assert.Equal(t, plan.ID, journal.cleanups[0].PlanID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "ORDER_CLEANED_UP", pub.events[0].EventType)
	assert.ElementsMatch(t, plan.IDs, pub.events[0].EntityIDs)
}

func TestEmptyCleanupSendsNothing(t *testing.T) {
	api := &fakeOrders{orders: cleanupOrders()[1:3]}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()

	plan, err := s.PrepareCleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, plan.Count)
	assert.Empty(t, plan.ID)
	assert.Contains(t, plan.Message, "No completed orders")

	_, err = s.ConfirmCleanup(ctx, plan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.Empty(t, api.batches)
}

func TestFailedCleanupIsNotRetried(t *testing.T) {
	api := &fakeOrders{orders: cleanupOrders(), batchErr: errBackend}
	s, _, _ := newOrderScreen(t, api)
	ctx := context.Background()

	plan, err := s.PrepareCleanup(ctx)
	require.NoError(t, err)

	_, err = s.ConfirmCleanup(ctx, plan.ID)
	var merr *MutationError
	require.ErrorAs(t, err, &merr)
	assert.Len(t, api.batches, 1)

	_, err = s.ConfirmCleanup(ctx, plan.ID)
	assert.ErrorIs(t, err, ErrPlanExecuted)
	assert.Len(t, api.batches, 1)
}
