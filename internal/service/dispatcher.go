package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"komal-desk/internal/broker"
	"komal-desk/internal/models"
	"komal-desk/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// lockTTL bounds how long a crashed instance can block a mutation
const lockTTL = 30 * time.Second

// Mutation describes one user-triggered change
type Mutation struct {
	Entity   string
	Verb     string
	EntityID string
	// Action is the change event emitted on success; empty emits nothing
	Action string
	// IDs lists affected ids when more than EntityID
	IDs []string
}

func (m Mutation) key() string {
	return fmt.Sprintf("%s:%s:%s", m.Entity, m.Verb, m.EntityID)
}

// Dispatcher runs mutations for one session: one attempt, no retry, with a
// guard against the same mutation being submitted twice concurrently.
type Dispatcher struct {
	sessionID string
	journal   Journal
	publisher Publisher
	locker    Locker
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewDispatcher creates a dispatcher. journal, publisher and locker may be nil.
func NewDispatcher(sessionID string, journal Journal, publisher Publisher, locker Locker) *Dispatcher {
	return &Dispatcher{
		sessionID: sessionID,
		journal:   journal,
		publisher: publisher,
		locker:    locker,
		logger:    util.GetLogger().With(zap.String("session_id", sessionID)),
		inFlight:  make(map[string]bool),
	}
}

// Do runs fn once for m. A failure is logged, journaled and returned as a
// *MutationError; nothing is retried.
func (d *Dispatcher) Do(ctx context.Context, m Mutation, fn func(ctx context.Context) error) error {
	release, err := d.claim(m)
	if err != nil {
		return err
	}
	defer release()
	return d.run(ctx, m, fn)
}

// claim takes the in-flight guard for m. The caller must call release.
func (d *Dispatcher) claim(m Mutation) (release func(), err error) {
	if !d.enter(m) {
		util.MutationsRejectedInFlight.WithLabelValues(m.Entity, m.Verb).Inc()
		return nil, ErrInFlight
	}
	return func() { d.leave(m) }, nil
}

// run executes fn for m with the in-flight guard already held
func (d *Dispatcher) run(ctx context.Context, m Mutation, fn func(ctx context.Context) error) error {
	ctx, span := util.StartSpan(ctx, "Dispatcher.Do",
		attribute.String("entity", m.Entity),
		attribute.String("verb", m.Verb),
		attribute.String("entity_id", m.EntityID))
	defer span.End()

	if d.locker != nil {
		lock, err := d.locker.AcquireLock(ctx, d.sessionID+":"+m.key(), lockTTL)
		if err != nil {
			// Redis trouble should not block the user; the local guard still holds.
			d.logger.Warn("Mutation lock unavailable", zap.String("key", m.key()), zap.Error(err))
		} else if lock == nil {
			util.MutationsRejectedInFlight.WithLabelValues(m.Entity, m.Verb).Inc()
			return ErrInFlight
		} else {
			defer func() {
				if err := d.locker.ReleaseLock(context.Background(), lock); err != nil {
					d.logger.Warn("Failed to release mutation lock", zap.Error(err))
				}
			}()
		}
	}

	if err := fn(ctx); err != nil {
		util.SpanError(span, err)
		util.MutationsTotal.WithLabelValues(m.Entity, m.Verb, "failed").Inc()
		d.logger.Error("Mutation failed",
			zap.String("entity", m.Entity),
			zap.String("verb", m.Verb),
			zap.String("entity_id", m.EntityID),
			zap.Error(err))
		d.record(ctx, m, models.OutcomeFailed, err.Error())
		return &MutationError{Verb: m.Verb, Entity: m.Entity, Err: err}
	}

	util.MutationsTotal.WithLabelValues(m.Entity, m.Verb, "success").Inc()
	d.logger.Info("Mutation succeeded",
		zap.String("entity", m.Entity),
		zap.String("verb", m.Verb),
		zap.String("entity_id", m.EntityID))
	d.record(ctx, m, models.OutcomeSuccess, "")
	d.announce(ctx, m)
	return nil
}

func (d *Dispatcher) enter(m Mutation) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[m.key()] {
		return false
	}
	d.inFlight[m.key()] = true
	return true
}

func (d *Dispatcher) leave(m Mutation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, m.key())
}

func (d *Dispatcher) record(ctx context.Context, m Mutation, outcome, message string) {
	if d.journal == nil {
		return
	}
	rec := &models.MutationRecord{
		SessionID: d.sessionID,
		Entity:    m.Entity,
		Verb:      m.Verb,
		EntityID:  m.EntityID,
		Outcome:   outcome,
		Message:   message,
	}
	if err := d.journal.RecordMutation(ctx, rec); err != nil {
		d.logger.Warn("Failed to journal mutation", zap.Error(err))
	}
}

func (d *Dispatcher) announce(ctx context.Context, m Mutation) {
	if d.publisher == nil || m.Action == "" {
		return
	}
	ids := m.IDs
	if len(ids) == 0 && m.EntityID != "" {
		ids = []string{m.EntityID}
	}
	event := broker.NewEntityChanged(d.sessionID, m.Entity, m.Action, ids...)
	if err := d.publisher.PublishEntityChanged(ctx, event); err != nil {
		d.logger.Error("Failed to publish EntityChanged event", zap.Error(err))
	}
}

// recordCleanup journals a confirmed cleanup run
func (d *Dispatcher) recordCleanup(ctx context.Context, planID, entity string, deleted int) {
	if d.journal == nil {
		return
	}
	run := &models.CleanupRun{PlanID: planID, SessionID: d.sessionID, Entity: entity, Deleted: deleted}
	if err := d.journal.RecordCleanup(ctx, run); err != nil {
		d.logger.Warn("Failed to journal cleanup", zap.Error(err))
	}
}
