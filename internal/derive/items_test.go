package derive

import (
	"testing"
	"time"

	"komal-desk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertItemLastWriteWins(t *testing.T) {
	var items []models.OrderItem
	items = UpsertItem(items, models.OrderItem{ProductID: "P1", Unit: models.UnitPiece, Quantity: 3})
	items = UpsertItem(items, models.OrderItem{ProductID: "P1", Unit: models.UnitCase, Quantity: 1})
	items = UpsertItem(items, models.OrderItem{ProductID: "P1", Unit: models.UnitPiece, Quantity: 5})

	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, models.UnitCase, items[1].Unit)
}

func TestUpsertItemDoesNotMutateInput(t *testing.T) {
	items := []models.OrderItem{{ProductID: "P1", Unit: models.UnitPiece, Quantity: 3}}
	_ = UpsertItem(items, models.OrderItem{ProductID: "P1", Unit: models.UnitPiece, Quantity: 9})
	assert.Equal(t, 3, items[0].Quantity)
}

func TestTotalsAndPrune(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
		{ProductID: "c", Quantity: 0},
	}

	assert.Equal(t, 5, TotalItems(items))

	pruned := PruneEmpty(items)
	assert.Len(t, pruned, 2)
	assert.Equal(t, 5, TotalItems(pruned))

	assert.Len(t, RemoveItem(items, "b", ""), 2)
}

func TestCleanupEligibilityBoundary(t *testing.T) {
	today := models.Date{Year: 2024, Month: time.March, Day: 31}

	exactly31 := models.Order{ID: "31", Status: models.OrderStatusCompleted, Date: today.AddDays(-31)}
	only30 := models.Order{ID: "30", Status: models.OrderStatusCompleted, Date: today.AddDays(-30)}
	pending := models.Order{ID: "p", Status: models.OrderStatusPending, Date: today.AddDays(-31)}
	undated := models.Order{ID: "u", Status: models.OrderStatusCompleted}

	assert.True(t, EligibleForCleanup(exactly31, today, DefaultRetentionDays))
	assert.False(t, EligibleForCleanup(only30, today, DefaultRetentionDays))
	assert.False(t, EligibleForCleanup(pending, today, DefaultRetentionDays))
	assert.False(t, EligibleForCleanup(undated, today, DefaultRetentionDays))

	got := CleanupCandidates([]models.Order{exactly31, only30, pending, undated}, today, DefaultRetentionDays)
	assert.Equal(t, []string{"31"}, got)
}

func TestCleanupIgnoresTimeOfDay(t *testing.T) {
	today := models.Date{Year: 2024, Month: time.April, Day: 15}

	date, err := models.ParseDate("15/03/2024, 10:30:00 am")
	require.NoError(t, err)
	order := models.Order{ID: "o1", Status: models.OrderStatusCompleted, Date: date}

	assert.True(t, EligibleForCleanup(order, today, DefaultRetentionDays))
}
