package conversion

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository defines read access to persisted factor tables.
// This abstraction allows the SQLite store to be replaced by a mock in tests.
type Repository interface {
	// LoadCatalog reads every stored factor grouped by region.
	// An empty store returns an empty catalog and no error.
	LoadCatalog(ctx context.Context) (Catalog, error)
}

// SQLiteRepository implements Repository using the conversion_factors table
// seeded by migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// LoadCatalog reads every stored factor grouped by region.
//
// Rows naming an unknown region or unit are rejected so that a corrupted
// store cannot silently shadow a supported unit.
func (r *SQLiteRepository) LoadCatalog(ctx context.Context) (Catalog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT region_id, unit_id, square_meters
		FROM conversion_factors
		ORDER BY region_id, unit_id`)
	if err != nil {
		return nil, fmt.Errorf("querying conversion factors: %w", err)
	}
	defer rows.Close()

	catalog := make(Catalog)
	for rows.Next() {
		var regionID, unitID string
		var factor float64
		if err := rows.Scan(&regionID, &unitID, &factor); err != nil {
			return nil, fmt.Errorf("scanning conversion factor: %w", err)
		}

		region := Region(regionID)
		if !region.Valid() {
			return nil, fmt.Errorf("%w: %q in conversion_factors", ErrUnknownRegion, regionID)
		}
		unit := Unit(unitID)
		if !unit.Valid() {
			return nil, fmt.Errorf("%w: %q in conversion_factors", ErrUnknownUnit, unitID)
		}

		if catalog[region] == nil {
			catalog[region] = make(Table)
		}
		catalog[region][unit] = factor
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversion factors: %w", err)
	}

	return catalog, nil
}
