// Package store holds the process-wide UI action state: the active mode,
// the current search query and a loading flag.
//
// A Store is created explicitly and passed to whoever needs it, so tests can
// use isolated instances. Listeners run synchronously after each change.
package store

import (
	"sync"

	"lexshell/pkg/lextypes"
)

// Store is an observable UIActionState container.
type Store struct {
	mu        sync.RWMutex
	state     lextypes.UIActionState
	listeners map[int]func(lextypes.UIActionState)
	nextID    int
}

// New creates a Store with default state: no action, empty query, not loading.
func New() *Store {
	return &Store{
		state: lextypes.UIActionState{
			Action:      lextypes.ActionNone,
			SearchQuery: "",
			IsLoading:   false,
		},
		listeners: make(map[int]func(lextypes.UIActionState)),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() lextypes.UIActionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Action returns the active UI mode.
func (s *Store) Action() lextypes.UIAction {
	return s.State().Action
}

// SearchQuery returns the current search query.
func (s *Store) SearchQuery() string {
	return s.State().SearchQuery
}

// IsLoading reports whether a search is in flight.
func (s *Store) IsLoading() bool {
	return s.State().IsLoading
}

// SetAction switches the active UI mode.
func (s *Store) SetAction(action lextypes.UIAction) {
	s.update(func(st *lextypes.UIActionState) { st.Action = action })
}

// SetSearchQuery records the current search query.
func (s *Store) SetSearchQuery(query string) {
	s.update(func(st *lextypes.UIActionState) { st.SearchQuery = query })
}

// SetIsLoading toggles the loading flag.
func (s *Store) SetIsLoading(loading bool) {
	s.update(func(st *lextypes.UIActionState) { st.IsLoading = loading })
}

// Subscribe registers a listener for state changes and returns its removal function.
func (s *Store) Subscribe(fn func(lextypes.UIActionState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) update(mutate func(*lextypes.UIActionState)) {
	s.mu.Lock()
	before := s.state
	mutate(&s.state)
	after := s.state
	listeners := make([]func(lextypes.UIActionState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range listeners {
		fn(after)
	}
}
