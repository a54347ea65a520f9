// Package filters keeps the committed and staged copies of a screen's
// filter selections.
package filters

import "sync"

// Stage holds the filter value driving a list (committed) and the working
// copy edited inside the filter dialog (staged). The zero value of F is the
// all-inclusive filter.
type Stage[F comparable] struct {
	mu        sync.Mutex
	committed F
	staged    F
	open      bool
}

// NewStage creates a stage whose committed filter starts at initial
func NewStage[F comparable](initial F) *Stage[F] {
	return &Stage[F]{committed: initial, staged: initial}
}

// Open snapshots committed into staged and marks the dialog open
func (s *Stage[F]) Open() F {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = s.committed
	s.open = true
	return s.staged
}

// Edit changes the staged filter. It reports false when the dialog is closed.
func (s *Stage[F]) Edit(fn func(*F)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return false
	}
	fn(&s.staged)
	return true
}

// ClearAll resets the staged filter to all-inclusive. Committed is untouched.
func (s *Stage[F]) ClearAll() bool {
	return s.Edit(func(f *F) {
		var zero F
		*f = zero
	})
}

// Apply commits the staged filter and closes the dialog. It returns the
// previous and new committed values. Applying with the dialog closed is a no-op.
func (s *Stage[F]) Apply() (prev, next F, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.committed
	if !s.open {
		return prev, prev, false
	}
	s.committed = s.staged
	s.open = false
	return prev, s.committed, true
}

// Dismiss closes the dialog and discards staged edits
func (s *Stage[F]) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = s.committed
	s.open = false
}

// Committed returns the filter driving the list
func (s *Stage[F]) Committed() F {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Staged returns the dialog's working copy
func (s *Stage[F]) Staged() F {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// IsOpen reports whether the dialog is open
func (s *Stage[F]) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Restore sets the committed filter directly, used when resuming a session
func (s *Stage[F]) Restore(f F) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = f
	s.staged = f
	s.open = false
}
