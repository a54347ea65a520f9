package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/service"
	"komal-desk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for an unknown or reaped session
var ErrSessionNotFound = errors.New("session not found")

// State is the part of a session that survives a restart
type State struct {
	Orders    derive.OrderFilter    `json:"orders"`
	Products  derive.ProductFilter  `json:"products"`
	Retailers derive.RetailerFilter `json:"retailers"`
	SavedAt   time.Time             `json:"savedAt"`
}

// StateStore persists session state between visits
type StateStore interface {
	SaveState(ctx context.Context, sessionID string, state interface{}, ttl time.Duration) error
	LoadState(ctx context.Context, sessionID string, out interface{}) (bool, error)
	DeleteState(ctx context.Context, sessionID string) error
}

// Backends groups the remote APIs the screens talk to
type Backends struct {
	Orders    service.OrderAPI
	Products  service.ProductAPI
	Brands    service.BrandAPI
	Retailers service.RetailerAPI
}

// Deps configures a Registry. Everything except Backends may be nil.
type Deps struct {
	Backends  Backends
	Journal   service.Journal
	Publisher service.Publisher
	Locker    service.Locker
	Claims    service.Claimer
	States    StateStore
	Options   service.Options
	// IdleTimeout reaps sessions untouched for this long
	IdleTimeout time.Duration
	// StateTTL bounds how long saved state is kept
	StateTTL time.Duration
}

// Session bundles the screens of one open UI
type Session struct {
	ID        string
	Orders    *service.OrderScreen
	Products  *service.ProductScreen
	Brands    *service.BrandScreen
	Retailers *service.RetailerScreen

	mu       sync.Mutex
	lastSeen time.Time
}

// State captures the committed filters of every screen
func (s *Session) State() State {
	return State{
		Orders:    s.Orders.CommittedFilter(),
		Products:  s.Products.CommittedFilter(),
		Retailers: s.Retailers.CommittedFilter(),
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.Orders.Close()
	s.Products.Close()
	s.Brands.Close()
	s.Retailers.Close()
}

// Registry holds the open sessions of this instance
type Registry struct {
	deps   Deps
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = 30 * time.Minute
	}
	if deps.StateTTL <= 0 {
		deps.StateTTL = 30 * 24 * time.Hour
	}
	if deps.Options.Now == nil {
		deps.Options.Now = time.Now
	}
	return &Registry{
		deps:     deps,
		logger:   util.GetLogger().With(zap.String("component", "session_registry")),
		sessions: make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
}

// Open returns the session with id, creating it when it is not open here.
// A new session with a known id resumes its saved filters. Screens are
// loaded before Open returns; load failures show on the screens.
func (r *Registry) Open(ctx context.Context, id string) (*Session, bool, error) {
	if id != "" {
		if s, err := r.Get(id); err == nil {
			return s, true, nil
		}
		if _, err := uuid.Parse(id); err != nil {
			id = ""
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	s := r.build(id)
	resumed := r.restore(ctx, s)
	r.loadAll(ctx, s)

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		s.close()
		existing.touch(r.deps.Options.Now())
		return existing, true, nil
	}
	r.sessions[id] = s
	r.mu.Unlock()

	util.ActiveSessions.Inc()
	r.logger.Info("Session opened", zap.String("session_id", id), zap.Bool("resumed", resumed))
	return s, resumed, nil
}

// Get returns an open session and marks it active
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(r.deps.Options.Now())
	return s, nil
}

// Close saves the session's state and tears down its screens
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	r.persist(ctx, s)
	s.close()
	util.ActiveSessions.Dec()
	r.logger.Info("Session closed", zap.String("session_id", id))
	return nil
}

// Forget closes a session and drops its saved state
func (r *Registry) Forget(ctx context.Context, id string) error {
	err := r.Close(ctx, id)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	if r.deps.States != nil {
		if derr := r.deps.States.DeleteState(ctx, id); derr != nil {
			return derr
		}
	}
	return err
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Invalidate reloads the screens showing entity in every session except
// origin. Products and brands refresh together since one changes the other.
func (r *Registry) Invalidate(ctx context.Context, entity, origin string) {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		if id != origin {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		var err error
		switch entity {
		case models.EntityOrder:
			err = s.Orders.Reload(ctx)
		case models.EntityRetailer:
			err = s.Retailers.Reload(ctx)
		case models.EntityProduct, models.EntityBrand:
			if err = s.Products.Reload(ctx); err == nil {
				err = s.Brands.Reload(ctx)
			}
		default:
			return
		}
		if err != nil {
			r.logger.Warn("Failed to refresh session",
				zap.String("session_id", s.ID),
				zap.String("entity", entity),
				zap.Error(err))
		}
	}
}

// Reap closes sessions idle for longer than the idle timeout
func (r *Registry) Reap(ctx context.Context) int {
	cutoff := r.deps.Options.Now().Add(-r.deps.IdleTimeout)

	r.mu.RLock()
	idle := make([]string, 0)
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	reaped := 0
	for _, id := range idle {
		if err := r.Close(ctx, id); err == nil {
			reaped++
		}
	}
	if reaped > 0 {
		r.logger.Info("Reaped idle sessions", zap.Int("count", reaped))
	}
	return reaped
}

// StartReaper reaps idle sessions every interval until Stop is called
func (r *Registry) StartReaper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				r.Reap(ctx)
				cancel()
			case <-r.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the reaper and closes every session, saving their state
func (r *Registry) Stop(ctx context.Context) {
	r.stopOnce.Do(func() { close(r.stopChan) })

	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		_ = r.Close(ctx, id)
	}
}

func (r *Registry) build(id string) *Session {
	d := r.deps
	disp := service.NewDispatcher(id, d.Journal, d.Publisher, d.Locker)
	s := &Session{
		ID:        id,
		Orders:    service.NewOrderScreen(d.Backends.Orders, disp, d.Claims, d.Options),
		Products:  service.NewProductScreen(d.Backends.Products, d.Backends.Brands, disp, d.Options),
		Brands:    service.NewBrandScreen(d.Backends.Brands, disp, d.Options),
		Retailers: service.NewRetailerScreen(d.Backends.Retailers, disp, d.Options),
		lastSeen:  d.Options.Now(),
	}

	save := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.persist(ctx, s)
	}
	s.Orders.OnApply(save)
	s.Products.OnApply(save)
	s.Retailers.OnApply(save)
	s.Products.OnBrandsChanged(s.Brands.MarkStale)
	return s
}

func (r *Registry) restore(ctx context.Context, s *Session) bool {
	if r.deps.States == nil {
		return false
	}
	var st State
	found, err := r.deps.States.LoadState(ctx, s.ID, &st)
	if err != nil {
		r.logger.Warn("Failed to load session state", zap.String("session_id", s.ID), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	s.Orders.Restore(st.Orders)
	s.Products.Restore(st.Products)
	s.Retailers.Restore(st.Retailers)
	return true
}

func (r *Registry) persist(ctx context.Context, s *Session) {
	if r.deps.States == nil {
		return
	}
	st := s.State()
	st.SavedAt = r.deps.Options.Now()
	if err := r.deps.States.SaveState(ctx, s.ID, st, r.deps.StateTTL); err != nil {
		r.logger.Warn("Failed to save session state", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (r *Registry) loadAll(ctx context.Context, s *Session) {
	loaders := map[string]func(context.Context) error{
		models.EntityOrder:    s.Orders.Reload,
		models.EntityProduct:  s.Products.Reload,
		models.EntityBrand:    s.Brands.Reload,
		models.EntityRetailer: s.Retailers.Reload,
	}

	var wg sync.WaitGroup
	for name, load := range loaders {
		wg.Add(1)
		go func(name string, load func(context.Context) error) {
			defer wg.Done()
			if err := load(ctx); err != nil {
				r.logger.Warn("Initial load failed",
					zap.String("session_id", s.ID),
					zap.String("screen", name),
					zap.Error(err))
			}
		}(name, load)
	}
	wg.Wait()
}
