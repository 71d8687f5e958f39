package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/eden/gameserver/internal/world"
	"github.com/jackc/pgx/v5"
)

var ErrInvalidFaction = errors.New("persist: faction must be light or fury")

// FactionRepo stores the faction each account picked on each world.
type FactionRepo struct {
	db *DB
}

func NewFactionRepo(db *DB) *FactionRepo {
	return &FactionRepo{db: db}
}

// Fetch returns the account's faction on worldID, or FactionNeither if it
// has not picked one yet.
func (r *FactionRepo) Fetch(ctx context.Context, userID, worldID uint32) (world.Faction, error) {
	ctx, cancel := r.db.queryContext(ctx)
	defer cancel()

	var faction int16
	err := r.db.Pool.QueryRow(ctx,
		`SELECT faction FROM gamedata.factions WHERE userid = $1 AND world = $2`,
		int64(userID), int64(worldID),
	).Scan(&faction)
	if errors.Is(err, pgx.ErrNoRows) {
		return world.FactionNeither, nil
	}
	if err != nil {
		return world.FactionNeither, fmt.Errorf("fetch faction user=%d: %w", userID, err)
	}
	return world.Faction(faction), nil
}

// Update records the account's faction on worldID.
func (r *FactionRepo) Update(ctx context.Context, worldID, userID uint32, f world.Faction) error {
	if !f.Playable() {
		return fmt.Errorf("%w: %s", ErrInvalidFaction, f)
	}
	ctx, cancel := r.db.queryContext(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO gamedata.factions (world, userid, faction)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (world, userid) DO UPDATE SET faction = EXCLUDED.faction, updated_at = now()`,
		int64(worldID), int64(userID), int16(f),
	)
	if err != nil {
		return fmt.Errorf("update faction user=%d: %w", userID, err)
	}
	return nil
}
