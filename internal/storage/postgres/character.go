package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

// ErrCharacterNameTaken is returned when creating a character with a name already in use.
var ErrCharacterNameTaken = errors.New("character name already taken")

const characterColumns = `
	id, name, class, level,
	strength, dexterity, intelligence, vitality, energy, luck,
	current_health, max_health, current_mana, max_mana, current_stamina, max_stamina,
	health_regen, mana_regen, experience, stat_points, gold,
	in_combat, afk_farming, created_at, updated_at`

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	a := &c.Attributes
	err := row.Scan(
		&c.ID, &c.Name, &c.Class, &c.Level,
		&a.Strength, &a.Dexterity, &a.Intelligence, &a.Vitality, &a.Energy, &a.Luck,
		&c.CurrentHealth, &c.MaxHealth, &c.CurrentMana, &c.MaxMana, &c.CurrentStamina, &c.MaxStamina,
		&c.HealthRegen, &c.ManaRegen, &c.Experience, &c.StatPoints, &c.Gold,
		&c.InCombat, &c.AFKFarming, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new character and returns it with ID and timestamps set.
// Derived pools are recalculated before insert.
//
// Precondition: c.Name and c.Class must be non-empty.
// Postcondition: Returns the created character with ID set, or ErrCharacterNameTaken on duplicate.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	in := *c
	in.Recalculate()
	a := in.Attributes
	out, err := scanCharacter(r.db.QueryRow(ctx, `
		INSERT INTO characters
			(name, class, level,
			 strength, dexterity, intelligence, vitality, energy, luck,
			 current_health, max_health, current_mana, max_mana, current_stamina, max_stamina,
			 health_regen, mana_regen, experience, stat_points, gold, in_combat, afk_farming)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING `+characterColumns,
		in.Name, in.Class, in.Level,
		a.Strength, a.Dexterity, a.Intelligence, a.Vitality, a.Energy, a.Luck,
		in.CurrentHealth, in.MaxHealth, in.CurrentMana, in.MaxMana, in.CurrentStamina, in.MaxStamina,
		in.HealthRegen, in.ManaRegen, in.Experience, in.StatPoints, in.Gold, in.InCombat, in.AFKFarming,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// Get retrieves a character by its primary key.
//
// Postcondition: Returns the Character or character.ErrCharacterNotFound.
func (r *CharacterRepository) Get(ctx context.Context, id int64) (*character.Character, error) {
	c, err := scanCharacter(r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, character.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// List returns every character ordered by ID.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// Update applies the non-nil fields of u to the character inside a
// transaction. The row is locked while the derived pools are recalculated so
// concurrent partial updates serialize; the last write wins.
//
// Postcondition: Returns the updated character or character.ErrCharacterNotFound.
func (r *CharacterRepository) Update(ctx context.Context, id int64, u character.Update) (*character.Character, error) {
	var out *character.Character
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		c, err := scanCharacter(tx.QueryRow(ctx,
			`SELECT `+characterColumns+` FROM characters WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return character.ErrCharacterNotFound
			}
			return fmt.Errorf("locking character: %w", err)
		}
		if u.IsEmpty() {
			out = c
			return nil
		}
		u.Apply(c)
		a := c.Attributes
		out, err = scanCharacter(tx.QueryRow(ctx, `
			UPDATE characters SET
				level = $2,
				strength = $3, dexterity = $4, intelligence = $5, vitality = $6, energy = $7, luck = $8,
				current_health = $9, max_health = $10, current_mana = $11, max_mana = $12,
				current_stamina = $13, max_stamina = $14, health_regen = $15, mana_regen = $16,
				experience = $17, stat_points = $18, gold = $19,
				in_combat = $20, afk_farming = $21, updated_at = NOW()
			WHERE id = $1
			RETURNING `+characterColumns,
			id, c.Level,
			a.Strength, a.Dexterity, a.Intelligence, a.Vitality, a.Energy, a.Luck,
			c.CurrentHealth, c.MaxHealth, c.CurrentMana, c.MaxMana,
			c.CurrentStamina, c.MaxStamina, c.HealthRegen, c.ManaRegen,
			c.Experience, c.StatPoints, c.Gold,
			c.InCombat, c.AFKFarming,
		))
		if err != nil {
			return fmt.Errorf("updating character: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, character.ErrCharacterNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating character %d: %w", id, err)
	}
	return out, nil
}

// Regenerate applies one regeneration tick through the server-side
// regenerate_character function.
//
// Postcondition: Returns true iff a pool changed; characters in combat are
// unchanged. Returns character.ErrCharacterNotFound for an unknown ID.
func (r *CharacterRepository) Regenerate(ctx context.Context, id int64) (bool, error) {
	var changed int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM regenerate_character($1)`, id).Scan(&changed); err != nil {
		return false, fmt.Errorf("regenerating character %d: %w", id, err)
	}
	if changed > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM characters WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking character %d: %w", id, err)
	}
	if !exists {
		return false, character.ErrCharacterNotFound
	}
	return false, nil
}
