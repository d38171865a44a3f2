package conversion

import (
	"fmt"
	"strings"
)

// Unit identifies a land-area measurement unit.
type Unit string

// Supported units, keyed the same way the presentation layer submits them.
const (
	UnitSquareFoot  Unit = "sqft"
	UnitDismil      Unit = "dismil"
	UnitKatha       Unit = "katha"
	UnitBigha       Unit = "bigha"
	UnitAcre        Unit = "acre"
	UnitHectare     Unit = "hectare"
	UnitSquareMeter Unit = "sqmeter"
)

// allUnits is the display order used by unit selectors.
var allUnits = []Unit{
	UnitSquareFoot,
	UnitDismil,
	UnitKatha,
	UnitBigha,
	UnitAcre,
	UnitHectare,
	UnitSquareMeter,
}

var unitLabels = map[Unit]string{
	UnitSquareFoot:  "Square Foot",
	UnitDismil:      "Dismil",
	UnitKatha:       "Katha",
	UnitBigha:       "Bigha",
	UnitAcre:        "Acre",
	UnitHectare:     "Hectare",
	UnitSquareMeter: "Square Meter",
}

// Units returns every supported unit in display order.
// The returned slice is a copy; callers can safely modify it.
func Units() []Unit {
	out := make([]Unit, len(allUnits))
	copy(out, allUnits)
	return out
}

// Label returns the human-readable name of the unit.
func (u Unit) Label() string {
	return unitLabels[u]
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

// ParseUnit converts a unit key into a Unit.
// Matching is case-insensitive and ignores surrounding whitespace.
//
// Returns ErrUnknownUnit if the key is not recognised.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	return u, nil
}

// Region selects which conversion table is active.
type Region string

// Supported regions.
const (
	RegionStandard   Region = "standard"
	RegionBankaBihar Region = "banka_bihar"
)

var allRegions = []Region{RegionStandard, RegionBankaBihar}

var regionLabels = map[Region]string{
	RegionStandard:   "Standard (International)",
	RegionBankaBihar: "Banka, Bihar (India)",
}

// regionNotes is the informational banner shown while a regional
// convention is selected.
var regionNotes = map[Region]string{
	RegionBankaBihar: "Measurements are based on the standard used in Banka, Bihar where: " +
		"1 Katha = 3.125 Decimal = 1,361.25 sq ft; " +
		"1 Bigha = 20 Kathas = 62.5 Decimal = 27,225 sq ft; " +
		"1 Acre = 32 Kathas = 1.6 Bighas = 100 Decimal = 43,560 sq ft; " +
		"1 Hectare = 79.07 Kathas = 3.95 Bighas = 247.1 Decimal = 107,639 sq ft",
}

// Regions returns every supported region in display order.
func Regions() []Region {
	out := make([]Region, len(allRegions))
	copy(out, allRegions)
	return out
}

// Label returns the human-readable name of the region.
func (r Region) Label() string {
	return regionLabels[r]
}

// Note returns the informational banner text for the region.
// It is empty for the standard region.
func (r Region) Note() string {
	return regionNotes[r]
}

// Valid reports whether r is one of the supported regions.
func (r Region) Valid() bool {
	_, ok := regionLabels[r]
	return ok
}

// ParseRegion converts a region key into a Region.
// The empty string selects RegionStandard.
//
// Returns ErrUnknownRegion if the key is not recognised.
func ParseRegion(s string) (Region, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return RegionStandard, nil
	}
	r := Region(key)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
	}
	return r, nil
}
