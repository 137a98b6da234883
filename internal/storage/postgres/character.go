package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravenfell/server/internal/game/character"
	"github.com/ravenfell/server/internal/game/inventory"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character with a name already in use.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRepository provides character persistence operations. Equipment,
// backpack contents, and skill cooldowns are stored as JSONB so the schema
// does not change when the item or skill catalogue does.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `id, account_id, name, class_id, level, xp, hp, gold,
	skill_points, hardcore, location, equipment, inventory, skill_cooldowns,
	global_cooldown, created_at, updated_at`

// Create inserts a new character.
//
// Precondition: c must come from character.New; c.AccountID must reference an
// existing account.
// Postcondition: Returns nil on success, or ErrCharacterNameTaken on a
// duplicate name.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	equipment, backpack, cooldowns, err := marshalCharacterState(c)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO characters
			(id, account_id, name, class_id, level, xp, hp, gold,
			 skill_points, hardcore, location, equipment, inventory,
			 skill_cooldowns, global_cooldown, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		c.ID, c.AccountID, c.Name, c.ClassID, c.Level, c.XP, c.HP, c.Gold,
		c.SkillPoints, c.Hardcore, c.Location, equipment, backpack,
		cooldowns, c.GlobalCooldown, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrCharacterNameTaken
		}
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

// GetByID retrieves a character by its primary key.
//
// Postcondition: Returns the Character or ErrCharacterNotFound. The caller is
// expected to run character.Normalize on the result before use.
func (r *CharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// ListByAccount returns all characters for the given account, oldest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters
		 WHERE account_id = $1 ORDER BY created_at ASC`, accountID)
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

// Save persists all mutable character state.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	equipment, backpack, cooldowns, err := marshalCharacterState(c)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET
			level = $2, xp = $3, hp = $4, gold = $5, skill_points = $6,
			location = $7, equipment = $8, inventory = $9,
			skill_cooldowns = $10, global_cooldown = $11, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Level, c.XP, c.HP, c.Gold, c.SkillPoints,
		c.Location, equipment, backpack, cooldowns, c.GlobalCooldown,
	)
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete removes a character permanently. Used for hardcore deaths and
// explicit character deletion.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// backpackDoc is the JSONB shape of the inventory column.
type backpackDoc struct {
	MaxSlots int                      `json:"maxSlots"`
	Items    []inventory.ItemInstance `json:"items"`
}

func marshalCharacterState(c *character.Character) (equipment, backpack, cooldowns []byte, err error) {
	slots := map[string]string{}
	if c.Equipment != nil {
		slots = c.Equipment.Slots()
	}
	equipment, err = json.Marshal(slots)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding equipment: %w", err)
	}

	doc := backpackDoc{MaxSlots: character.DefaultBackpackSlots}
	if c.Backpack != nil {
		doc.MaxSlots = c.Backpack.MaxSlots
		doc.Items = c.Backpack.Items()
	}
	backpack, err = json.Marshal(doc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding inventory: %w", err)
	}

	cds := c.SkillCooldowns
	if cds == nil {
		cds = map[string]int{}
	}
	cooldowns, err = json.Marshal(cds)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding cooldowns: %w", err)
	}
	return equipment, backpack, cooldowns, nil
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var (
		c         character.Character
		equipment []byte
		backpack  []byte
		cooldowns []byte
	)
	if err := row.Scan(
		&c.ID, &c.AccountID, &c.Name, &c.ClassID, &c.Level, &c.XP, &c.HP,
		&c.Gold, &c.SkillPoints, &c.Hardcore, &c.Location,
		&equipment, &backpack, &cooldowns, &c.GlobalCooldown,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	slots := map[string]string{}
	if len(equipment) > 0 {
		if err := json.Unmarshal(equipment, &slots); err != nil {
			return nil, fmt.Errorf("decoding equipment: %w", err)
		}
	}
	c.Equipment = inventory.RestoreEquipment(slots)

	doc := backpackDoc{MaxSlots: character.DefaultBackpackSlots}
	if len(backpack) > 0 {
		if err := json.Unmarshal(backpack, &doc); err != nil {
			return nil, fmt.Errorf("decoding inventory: %w", err)
		}
	}
	if doc.MaxSlots < 1 {
		doc.MaxSlots = character.DefaultBackpackSlots
	}
	c.Backpack = inventory.Restore(doc.MaxSlots, doc.Items)

	c.SkillCooldowns = map[string]int{}
	if len(cooldowns) > 0 {
		if err := json.Unmarshal(cooldowns, &c.SkillCooldowns); err != nil {
			return nil, fmt.Errorf("decoding cooldowns: %w", err)
		}
	}
	return &c, nil
}
