// Package memory provides an in-process character store with the same
// semantics as the PostgreSQL store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

// ErrCharacterNameTaken is returned when creating a character with a name already in use.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterStore keeps characters in memory. It is safe for concurrent use;
// every method returns copies.
type CharacterStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*character.Character
	now    func() time.Time
}

// NewCharacterStore returns an empty store.
func NewCharacterStore() *CharacterStore {
	return &CharacterStore{
		byID: make(map[int64]*character.Character),
		now:  time.Now,
	}
}

// Create stores c and returns it with ID and timestamps set.
//
// Precondition: c.Name must be non-empty.
// Postcondition: Returns the created character, or ErrCharacterNameTaken on duplicate.
func (s *CharacterStore) Create(_ context.Context, c *character.Character) (*character.Character, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("creating character: name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Name == c.Name {
			return nil, ErrCharacterNameTaken
		}
	}
	s.nextID++
	stored := *c
	stored.ID = s.nextID
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	stored.Recalculate()
	s.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

// Get returns the character with the given ID.
//
// Postcondition: Returns a copy of the character or ErrCharacterNotFound.
func (s *CharacterStore) Get(_ context.Context, id int64) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, character.ErrCharacterNotFound
	}
	out := *c
	return &out, nil
}

// List returns every character ordered by ID.
//
// Postcondition: Returns a non-nil slice of copies.
func (s *CharacterStore) List(_ context.Context) ([]*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*character.Character, 0, len(s.byID))
	for _, c := range s.byID {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update applies the non-nil fields of u to the character, last write wins.
//
// Postcondition: Returns the updated character or ErrCharacterNotFound.
func (s *CharacterStore) Update(_ context.Context, id int64, u character.Update) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, character.ErrCharacterNotFound
	}
	if !u.IsEmpty() {
		u.Apply(c)
		c.UpdatedAt = s.now()
	}
	out := *c
	return &out, nil
}

// Regenerate applies one regeneration tick to the character.
//
// Postcondition: Returns true iff a pool changed; characters in combat are
// unchanged. Returns ErrCharacterNotFound for an unknown ID.
func (s *CharacterStore) Regenerate(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return false, character.ErrCharacterNotFound
	}
	changed := c.Regenerate()
	if changed {
		c.UpdatedAt = s.now()
	}
	return changed, nil
}
