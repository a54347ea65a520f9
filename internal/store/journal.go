package store

import (
	"context"
	"fmt"

	"komal-desk/internal/models"
)

// RecordMutation appends one dispatched mutation to the journal
func (s *Store) RecordMutation(ctx context.Context, rec *models.MutationRecord) error {
	query := `
		INSERT INTO mutation_log (session_id, entity, verb, entity_id, outcome, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	row := s.db.QueryRowxContext(ctx, query,
		rec.SessionID, rec.Entity, rec.Verb, rec.EntityID, rec.Outcome, rec.Message)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to record mutation: %w", err)
	}
	return nil
}

// RecentMutations returns the newest journal entries, optionally limited
// to one entity kind
func (s *Store) RecentMutations(ctx context.Context, entity string, limit int) ([]models.MutationRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	records := []models.MutationRecord{}
	var err error
	if entity == "" {
		err = s.db.SelectContext(ctx, &records,
			"SELECT * FROM mutation_log ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	} else {
		err = s.db.SelectContext(ctx, &records,
			"SELECT * FROM mutation_log WHERE entity = $1 ORDER BY created_at DESC, id DESC LIMIT $2", entity, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}
	return records, nil
}

// RecordCleanup stores a confirmed cleanup. A plan is recorded once.
func (s *Store) RecordCleanup(ctx context.Context, run *models.CleanupRun) error {
	query := `
		INSERT INTO cleanup_runs (plan_id, session_id, entity, deleted)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plan_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, run.PlanID, run.SessionID, run.Entity, run.Deleted)
	if err != nil {
		return fmt.Errorf("failed to record cleanup: %w", err)
	}
	return nil
}

// CleanupRuns lists recorded cleanups, newest first
func (s *Store) CleanupRuns(ctx context.Context, limit int) ([]models.CleanupRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	runs := []models.CleanupRun{}
	err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM cleanup_runs ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleanup runs: %w", err)
	}
	return runs, nil
}
