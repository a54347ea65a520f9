package service

import (
	"sync"
	"time"

	"komal-desk/internal/debounce"
	"komal-desk/internal/filters"
	"komal-desk/internal/util"
)

// View is a snapshot of what a list screen renders
type View[T any, F any] struct {
	Items         []T    `json:"items"`
	Cached        int    `json:"cached"`
	Version       uint64 `json:"version"`
	Loading       bool   `json:"loading"`
	Stale         bool   `json:"stale"`
	Committed     F      `json:"committed"`
	Staged        F      `json:"staged"`
	FilterOpen    bool   `json:"filterOpen"`
	Search        string `json:"search"`
	PendingSearch string `json:"pendingSearch,omitempty"`
	Error         string `json:"error,omitempty"`
}

// deriveFunc computes the rendered list from the cache
type deriveFunc[T any, F any] func(items []T, f F, search string) []T

// listScreen owns one screen's entity cache, filter staging and debounced
// search. The rendered list is recomputed whenever one of them changes.
type listScreen[T any, F comparable] struct {
	name   string
	idOf   func(T) string
	derive deriveFunc[T, F]
	stage  *filters.Stage[F]
	search *debounce.Debouncer[string]

	mu       sync.RWMutex
	items    []T
	rendered []T
	version  uint64
	gen      uint64
	loading  bool
	stale    bool
	lastErr  string
	applied  string
	typed    string
}

func newListScreen[T any, F comparable](name string, wait time.Duration, idOf func(T) string, derive deriveFunc[T, F]) *listScreen[T, F] {
	var zero F
	s := &listScreen[T, F]{
		name:   name,
		idOf:   idOf,
		derive: derive,
		stage:  filters.NewStage(zero),
		items:  []T{},
	}
	s.rendered = s.derive(s.items, zero, "")
	s.search = debounce.New(wait, s.settleSearch)
	return s
}

// beginLoad starts a load and returns its generation
func (s *listScreen[T, F]) beginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = true
	return s.gen
}

// finishLoad installs the result of load gen. Responses of superseded
// loads are dropped and reported as not applied.
func (s *listScreen[T, F]) finishLoad(gen uint64, items []T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		util.StaleResponsesDiscarded.WithLabelValues(s.name).Inc()
		return false
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		return true
	}
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.stale = false
	s.lastErr = ""
	s.recomputeLocked()
	return true
}

// mutateLocal edits the cache in place after a successful mutation. Loads
// started before the edit may not reflect it, so they are superseded.
func (s *listScreen[T, F]) mutateLocal(fn func([]T) []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = false
	current := make([]T, len(s.items))
	copy(current, s.items)
	s.items = fn(current)
	s.recomputeLocked()
}

func (s *listScreen[T, F]) recomputeLocked() {
	s.rendered = s.derive(s.items, s.stage.Committed(), s.applied)
	s.version++
	util.ListRecomputationsTotal.WithLabelValues(s.name).Inc()
}

func (s *listScreen[T, F]) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

// SetSearch records typed text. The list follows once typing pauses.
func (s *listScreen[T, F]) SetSearch(text string) {
	s.mu.Lock()
	s.typed = text
	s.mu.Unlock()
	s.search.Trigger(text)
}

// FlushSearch applies typed text without waiting for the quiet period
func (s *listScreen[T, F]) FlushSearch() {
	s.search.Flush()
}

func (s *listScreen[T, F]) settleSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = text
	s.recomputeLocked()
}

// MarkStale flags the cache as out of date with the server
func (s *listScreen[T, F]) MarkStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

// View returns what the screen currently renders
func (s *listScreen[T, F]) View() View[T, F] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]T, len(s.rendered))
	copy(items, s.rendered)

	v := View[T, F]{
		Items:      items,
		Cached:     len(s.items),
		Version:    s.version,
		Loading:    s.loading,
		Stale:      s.stale,
		Committed:  s.stage.Committed(),
		Staged:     s.stage.Staged(),
		FilterOpen: s.stage.IsOpen(),
		Search:     s.applied,
		Error:      s.lastErr,
	}
	if s.typed != s.applied {
		v.PendingSearch = s.typed
	}
	return v
}

// Version returns the number of recomputations so far
func (s *listScreen[T, F]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// cached returns a copy of the cache
func (s *listScreen[T, F]) cached() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *listScreen[T, F]) find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if s.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// OpenFilters snapshots the committed filter into the dialog
func (s *listScreen[T, F]) OpenFilters() F {
	return s.stage.Open()
}

// EditFilters changes the dialog's staged filter
func (s *listScreen[T, F]) EditFilters(fn func(*F)) error {
	if !s.stage.Edit(fn) {
		return ErrFilterClosed
	}
	return nil
}

// ClearFilters resets the staged filter to all-inclusive
func (s *listScreen[T, F]) ClearFilters() error {
	if !s.stage.ClearAll() {
		return ErrFilterClosed
	}
	return nil
}

// DismissFilters closes the dialog without applying
func (s *listScreen[T, F]) DismissFilters() {
	s.stage.Dismiss()
}

// commitFilters applies the staged filter and recomputes the list
func (s *listScreen[T, F]) commitFilters() (prev, next F, err error) {
	prev, next, applied := s.stage.Apply()
	if !applied {
		return prev, next, ErrFilterClosed
	}
	s.recompute()
	return prev, next, nil
}

// CommittedFilter returns the filter driving the list
func (s *listScreen[T, F]) CommittedFilter() F {
	return s.stage.Committed()
}

// restore installs a previously saved committed filter
func (s *listScreen[T, F]) restore(f F) {
	s.stage.Restore(f)
	s.recompute()
}

// Close stops the search debouncer. Pending search text is dropped.
func (s *listScreen[T, F]) Close() {
	s.search.Stop()
}
