// Package conversion provides the land-area Conversion Engine for Land Area Core.
//
// The engine converts a quantity expressed in one land-area unit into another
// by going through square meters:
//
//	value (from unit) ──× factor[from]──▶ square meters ──÷ factor[to]──▶ value (to unit)
//
// Factors come from a Catalog holding one Table per Region. Two regions exist:
// the international standard and the Banka, Bihar local convention, which
// redefines the katha and bigha.
//
// # Components
//
//   - Unit / Region (units.go): the enumerations shown by the presentation layer
//   - Table / Catalog (tables.go): factor tables and their invariants
//   - Engine (engine.go): parsing, conversion and formatting
//   - Repository / Registry (repository.go, registry.go): SQLite-seeded catalog
//     with an in-memory cache used by the running service
//
// # Invalid input
//
// Malformed numeric input is never an error to the caller of Convert: it yields
// the literal InvalidInput indicator. Evaluate exposes the same outcome as
// ErrInvalidInput for callers that want structured results.
//
// Thread Safety: Engine is immutable after construction and safe for
// concurrent use. Registry methods are safe for concurrent use.
package conversion
