package conversion

import (
	"fmt"
	"math"
)

// Table maps each unit to the number of square meters in one unit.
type Table map[Unit]float64

// Catalog holds one factor table per region.
type Catalog map[Region]Table

// standardFactors are the international conversion factors.
var standardFactors = Table{
	UnitSquareFoot:  0.09290304,
	UnitDismil:      40.46856422,
	UnitKatha:       66.89,
	UnitBigha:       1337.8,
	UnitAcre:        4046.86,
	UnitHectare:     10000,
	UnitSquareMeter: 1,
}

// bankaBiharFactors follow the Banka, Bihar convention:
// 1 katha = 1,361.25 sq ft = 126.46 sq m and 1 bigha = 20 kathas.
var bankaBiharFactors = Table{
	UnitSquareFoot:  0.09290304,
	UnitDismil:      40.46856422,
	UnitKatha:       126.46,
	UnitBigha:       2529.2,
	UnitAcre:        4046.86,
	UnitHectare:     10000,
	UnitSquareMeter: 1,
}

// DefaultCatalog returns the built-in factor tables for every region.
// Each call returns fresh copies.
func DefaultCatalog() Catalog {
	return Catalog{
		RegionStandard:   standardFactors.Clone(),
		RegionBankaBihar: bankaBiharFactors.Clone(),
	}
}

// Clone returns a copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for u, f := range t {
		out[u] = f
	}
	return out
}

// Validate checks the table invariants:
//   - every supported unit has a factor
//   - every factor is finite and positive
//   - the square-meter factor is exactly 1
//
// Returns an error wrapping ErrInvalidTable describing the first violation.
func (t Table) Validate() error {
	for _, u := range allUnits {
		f, ok := t[u]
		if !ok {
			return fmt.Errorf("%w: missing factor for %s", ErrInvalidTable, u)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("%w: factor for %s must be a positive number, got %v", ErrInvalidTable, u, f)
		}
	}
	if t[UnitSquareMeter] != 1 {
		return fmt.Errorf("%w: square-meter factor must be 1, got %v", ErrInvalidTable, t[UnitSquareMeter])
	}
	for u := range t {
		if !u.Valid() {
			return fmt.Errorf("%w: unexpected unit %q", ErrInvalidTable, u)
		}
	}
	return nil
}

// Validate checks that every supported region has a valid table.
func (c Catalog) Validate() error {
	for _, r := range allRegions {
		t, ok := c[r]
		if !ok {
			return fmt.Errorf("%w: missing table for region %s", ErrInvalidTable, r)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("region %s: %w", r, err)
		}
	}
	return nil
}

// Table returns the active table for a region: the regional table when the
// Banka, Bihar convention is selected, otherwise the standard table.
func (c Catalog) Table(r Region) Table {
	if r == RegionBankaBihar {
		if t, ok := c[RegionBankaBihar]; ok {
			return t
		}
	}
	return c[RegionStandard]
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for r, t := range c {
		out[r] = t.Clone()
	}
	return out
}
