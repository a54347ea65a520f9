package service

import (
	"context"
	"fmt"
	"time"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/remote"
	"komal-desk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// planTTL is how long a cleanup plan can wait for confirmation
const planTTL = 15 * time.Minute

// CleanupPlan lists the orders a confirmed cleanup will delete
type CleanupPlan struct {
	ID            string      `json:"id,omitempty"`
	Entity        string      `json:"entity"`
	IDs           []string    `json:"ids"`
	Count         int         `json:"count"`
	RetentionDays int         `json:"retentionDays"`
	Cutoff        models.Date `json:"cutoff"`
	CreatedAt     time.Time   `json:"createdAt"`
	Message       string      `json:"message"`

	executed bool
}

// PrepareCleanup finds completed orders past the retention window. It always
// fetches the full unfiltered order set. A plan with nothing to delete has
// no id and cannot be confirmed.
func (s *OrderScreen) PrepareCleanup(ctx context.Context) (*CleanupPlan, error) {
	ctx, span := util.StartSpan(ctx, "OrderScreen.PrepareCleanup")
	defer span.End()

	all, err := s.api.ListOrders(ctx, remote.OrderQuery{})
	if err != nil {
		util.SpanError(span, err)
		return nil, fmt.Errorf("failed to load orders for cleanup: %w", err)
	}

	today := models.DateOf(s.opts.Now())
	ids := derive.CleanupCandidates(all, today, s.opts.RetentionDays)
	plan := &CleanupPlan{
		Entity:        models.EntityOrder,
		IDs:           ids,
		Count:         len(ids),
		RetentionDays: s.opts.RetentionDays,
		Cutoff:        today.AddDays(-s.opts.RetentionDays),
		CreatedAt:     s.opts.Now(),
	}
	if plan.Count == 0 {
		plan.Message = fmt.Sprintf("No completed orders older than %d days.", s.opts.RetentionDays)
		return plan, nil
	}

	plan.ID = uuid.New().String()
	plan.Message = fmt.Sprintf("Delete %d completed orders older than %d days?", plan.Count, s.opts.RetentionDays)

	s.plansMu.Lock()
	s.expirePlansLocked()
	s.plans[plan.ID] = plan
	s.plansMu.Unlock()
	return plan, nil
}

// ConfirmCleanup deletes the orders of a prepared plan in one batch request
// and reloads the list afterwards. A plan runs at most once, even when the
// batch request fails.
func (s *OrderScreen) ConfirmCleanup(ctx context.Context, planID string) (*remote.CleanupResult, error) {
	s.plansMu.Lock()
	plan, ok := s.plans[planID]
	if !ok || s.opts.Now().Sub(plan.CreatedAt) > planTTL {
		s.plansMu.Unlock()
		return nil, ErrPlanNotFound
	}
	if plan.executed {
		s.plansMu.Unlock()
		return nil, ErrPlanExecuted
	}
	plan.executed = true
	s.plansMu.Unlock()

	if s.claims != nil {
		claimed, err := s.claims.ClaimIdempotencyKey(ctx, "cleanup:"+planID, planTTL)
		if err != nil {
			s.disp.logger.Warn("Cleanup idempotency check unavailable", zap.String("plan_id", planID), zap.Error(err))
		} else if !claimed {
			return nil, ErrPlanExecuted
		}
	}

	var result *remote.CleanupResult
	m := Mutation{
		Entity:   models.EntityOrder,
		Verb:     "delete",
		EntityID: planID,
		Action:   models.ActionCleanedUp,
		IDs:      plan.IDs,
	}
	err := s.disp.Do(ctx, m, func(ctx context.Context) error {
		res, err := s.api.DeleteOrders(ctx, plan.IDs)
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

	util.CleanupDeletedTotal.WithLabelValues(models.EntityOrder).Add(float64(result.DeletedCount))
	s.disp.recordCleanup(ctx, planID, models.EntityOrder, result.DeletedCount)
	s.disp.logger.Info("Order cleanup completed",
		zap.String("plan_id", planID),
		zap.Int("planned", plan.Count),
		zap.Int("deleted", result.DeletedCount))

	if err := s.Reload(ctx); err != nil {
		s.disp.logger.Warn("Reload after cleanup failed", zap.Error(err))
		s.MarkStale()
	}
	return result, nil
}

func (s *OrderScreen) expirePlansLocked() {
	now := s.opts.Now()
	for id, p := range s.plans {
		if now.Sub(p.CreatedAt) > planTTL {
			delete(s.plans, id)
		}
	}
}
