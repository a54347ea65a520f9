package service

import (
	"context"
	"errors"

	"komal-desk/internal/models"
	"komal-desk/internal/util"

	"go.uber.org/zap"
)

// permute returns items arranged in the order of ids. ids must name every
// cached item exactly once.
func permute[T any](items []T, idOf func(T) string, ids []string) ([]T, error) {
	if len(ids) != len(items) {
		return nil, invalid("ids", "reorder must list every item exactly once")
	}
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[idOf(it)] = it
	}
	out := make([]T, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || seen[id] {
			return nil, invalid("ids", "reorder must list every item exactly once")
		}
		seen[id] = true
		out = append(out, it)
	}
	return out, nil
}

// reorder applies a new order locally, then persists it. When persisting
// fails the prior order is restored if rollback is on.
func reorder[T any, F comparable](
	ctx context.Context,
	s *listScreen[T, F],
	disp *Dispatcher,
	entity string,
	rollback bool,
	ids []string,
	rank func(T, int) T,
	persist func(ctx context.Context, ordered []T) error,
) error {
	m := Mutation{Entity: entity, Verb: "reorder", Action: models.ActionReordered}
	release, err := disp.claim(m)
	if err != nil {
		return err
	}
	defer release()

	// The snapshot is taken under the guard so a rollback never undoes
	// another reorder.
	snapshot := s.cached()
	ordered, err := permute(snapshot, s.idOf, ids)
	if err != nil {
		return err
	}
	for i := range ordered {
		ordered[i] = rank(ordered[i], i+1)
	}

	s.mutateLocal(func([]T) []T { return ordered })

	err = disp.run(ctx, m, func(ctx context.Context) error {
		return persist(ctx, ordered)
	})
	if err != nil {
		// A duplicate held elsewhere never reached the server.
		if rollback || errors.Is(err, ErrInFlight) {
			s.mutateLocal(func([]T) []T { return snapshot })
			util.ReorderRollbacksTotal.WithLabelValues(entity).Inc()
			disp.logger.Info("Reorder rolled back", zap.String("entity", entity))
		}
		return err
	}
	return nil
}
