package worker

import (
	"context"

	"komal-desk/internal/broker"
	"komal-desk/internal/models"
	"komal-desk/internal/util"

	"go.uber.org/zap"
)

// Invalidator refreshes sessions affected by a change
type Invalidator interface {
	Invalidate(ctx context.Context, entity, originSession string)
}

// RefreshWorker applies change events from other sessions and instances to
// the sessions open here
type RefreshWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	sessions     Invalidator
	logger       *zap.Logger
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(consumer *broker.Consumer, sessions Invalidator) *RefreshWorker {
	w := &RefreshWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		sessions:     sessions,
		logger:       util.GetLogger().With(zap.String("component", "refresh_worker")),
	}
	w.eventHandler.OnEntityChanged(w.HandleEntityChanged)
	return w
}

// HandleEntityChanged reloads the affected screens of every other session
func (w *RefreshWorker) HandleEntityChanged(ctx context.Context, event *models.EntityChangedEvent) error {
	w.logger.Debug("Refreshing sessions",
		zap.String("event_type", event.EventType),
		zap.String("origin", event.SessionID),
		zap.Int("ids", len(event.EntityIDs)))
	w.sessions.Invalidate(ctx, event.Entity, event.SessionID)
	return nil
}

// Start starts the worker
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting refresh worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RefreshWorker) Stop() error {
	w.logger.Info("Stopping refresh worker...")
	return w.consumer.Close()
}
