// Package conversation provides the append-only conversation store
// and its structural invariant validation.
//
// Information Hiding:
// - Turn slice ownership and copying hidden behind the Store API
// - Invariant checks encapsulated in Validate
package conversation

import (
	"github.com/sitewright/sitewright/model"
)

// Store holds an ordered, append-only sequence of turns.
//
// A Store belongs to a single orchestrator instance and is not safe for
// concurrent use; callers needing concurrent requests use separate
// orchestrator instances with separate stores.
type Store struct {
	turns []model.Turn
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreFromTurns creates a store seeded with existing history,
// for resuming a persisted session.
func NewStoreFromTurns(turns []model.Turn) *Store {
	s := &Store{turns: make([]model.Turn, len(turns))}
	copy(s.turns, turns)
	return s
}

// Append adds a turn to the end of the conversation.
func (s *Store) Append(turn model.Turn) {
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the turn sequence. Block contents are shared;
// the slice itself is safe to append to.
func (s *Store) Turns() []model.Turn {
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Store) Len() int {
	return len(s.turns)
}

// Last returns the most recent turn, or false if the store is empty.
func (s *Store) Last() (model.Turn, bool) {
	if len(s.turns) == 0 {
		return model.Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}
