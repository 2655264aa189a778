// Package gameserver orchestrates farm encounters and periodic character
// regeneration on top of the simulation core.
package gameserver

import (
	"context"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

// CharacterStore is the persistence boundary for characters.
//
// Implementations return character.ErrCharacterNotFound for unknown IDs and
// must be safe for concurrent use.
type CharacterStore interface {
	// Create persists a new character and returns it with its ID set.
	Create(ctx context.Context, c *character.Character) (*character.Character, error)
	// Get returns a snapshot of the character.
	Get(ctx context.Context, id int64) (*character.Character, error)
	// List returns snapshots of every character.
	List(ctx context.Context) ([]*character.Character, error)
	// Update applies a partial update; the last write wins.
	Update(ctx context.Context, id int64, u character.Update) (*character.Character, error)
	// Regenerate applies one regeneration tick and reports whether a pool changed.
	// Characters in combat are left untouched.
	Regenerate(ctx context.Context, id int64) (bool, error)
}
