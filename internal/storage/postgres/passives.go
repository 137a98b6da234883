package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravenfell/server/internal/game/passive"
)

// ProgressRepository persists account-wide passive progression. Progress is
// keyed by account, not character: souls, legacy points, and purchased
// passive levels survive character death and deletion.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a ProgressRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get retrieves the passive progress for an account. An account with no
// stored row gets a fresh Progress; the row is created on first Save.
//
// Postcondition: Returns a non-nil Progress or a non-nil error.
func (r *ProgressRepository) Get(ctx context.Context, accountID uuid.UUID) (*passive.Progress, error) {
	var (
		p      passive.Progress
		levels []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT levels, souls, legacy_points, souls_spent, legacy_spent,
		       total_deaths, highest_level
		FROM passive_progress WHERE account_id = $1`,
		accountID,
	).Scan(&levels, &p.Souls, &p.LegacyPoints, &p.SoulsSpent, &p.LegacySpent,
		&p.TotalDeaths, &p.HighestLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return passive.NewProgress(), nil
		}
		return nil, fmt.Errorf("querying passive progress: %w", err)
	}

	p.Levels = map[string]int{}
	if len(levels) > 0 {
		if err := json.Unmarshal(levels, &p.Levels); err != nil {
			return nil, fmt.Errorf("decoding passive levels: %w", err)
		}
	}
	return &p, nil
}

// Save upserts the passive progress for an account.
//
// Precondition: p must not be nil.
// Postcondition: Returns nil on success.
func (r *ProgressRepository) Save(ctx context.Context, accountID uuid.UUID, p *passive.Progress) error {
	levels, err := json.Marshal(p.Levels)
	if err != nil {
		return fmt.Errorf("encoding passive levels: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO passive_progress
			(account_id, levels, souls, legacy_points, souls_spent,
			 legacy_spent, total_deaths, highest_level, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		ON CONFLICT (account_id) DO UPDATE SET
			levels = EXCLUDED.levels,
			souls = EXCLUDED.souls,
			legacy_points = EXCLUDED.legacy_points,
			souls_spent = EXCLUDED.souls_spent,
			legacy_spent = EXCLUDED.legacy_spent,
			total_deaths = EXCLUDED.total_deaths,
			highest_level = EXCLUDED.highest_level,
			updated_at = NOW()`,
		accountID, levels, p.Souls, p.LegacyPoints, p.SoulsSpent,
		p.LegacySpent, p.TotalDeaths, p.HighestLevel,
	)
	if err != nil {
		return fmt.Errorf("saving passive progress: %w", err)
	}
	return nil
}
