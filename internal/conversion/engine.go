package conversion

import (
	"errors"
	"fmt"
	"math"
)

// InvalidInput is the result shown in place of a number when the raw input
// cannot be parsed.
const InvalidInput = "Invalid Input"

// Request is a single conversion: raw text plus the current selections.
// Requests are built fresh for every edit and discarded after use.
type Request struct {
	Input  string
	From   Unit
	To     Unit
	Region Region
}

// Result is the structured outcome of a successful conversion.
type Result struct {
	// Value is the converted quantity in the target unit.
	Value float64

	// SquareMeters is the intermediate value in square meters.
	SquareMeters float64

	// Formatted is Value rendered for display (see Format).
	Formatted string
}

// Engine converts quantities between units using a validated Catalog.
//
// Engine is immutable after construction; it is safe for concurrent use.
type Engine struct {
	catalog Catalog
}

// NewEngine creates an engine over the given catalog.
//
// The catalog is copied and validated; later changes to the argument
// do not affect the engine.
//
// Returns:
//   - *Engine: Ready to convert
//   - error: wrapping ErrInvalidTable if any region table is incomplete
func NewEngine(catalog Catalog) (*Engine, error) {
	c := catalog.Clone()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Engine{catalog: c}, nil
}

// DefaultEngine returns an engine over the built-in factor tables.
func DefaultEngine() *Engine {
	return &Engine{catalog: DefaultCatalog()}
}

// Catalog returns a copy of the engine's factor tables.
func (e *Engine) Catalog() Catalog {
	return e.catalog.Clone()
}

// Factor returns the square meters in one unit under the region's convention.
func (e *Engine) Factor(r Region, u Unit) (float64, bool) {
	f, ok := e.catalog.Table(r)[u]
	return f, ok
}

// Evaluate performs the conversion and returns the structured result.
//
// Steps:
//  1. Empty input returns ErrEmptyInput
//  2. The leading decimal number is parsed; none gives ErrInvalidInput
//  3. The region's table is selected
//  4. value × factor[From] gives square meters
//  5. square meters ÷ factor[To] gives the result
//  6. The result is formatted for display
//
// Returns:
//   - Result: Converted value, intermediate square meters, display string
//   - error: ErrEmptyInput, ErrInvalidInput or ErrUnknownUnit
func (e *Engine) Evaluate(req Request) (Result, error) {
	if req.Input == "" {
		return Result{}, ErrEmptyInput
	}

	value, ok := parseLeadingFloat(req.Input)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidInput, req.Input)
	}

	table := e.catalog.Table(req.Region)
	from, ok := table[req.From]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownUnit, req.From)
	}
	to, ok := table[req.To]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownUnit, req.To)
	}

	sqm := value * from
	result := sqm / to
	if math.IsInf(sqm, 0) || math.IsInf(result, 0) {
		return Result{}, fmt.Errorf("%w: %q overflows", ErrInvalidInput, req.Input)
	}

	return Result{
		Value:        result,
		SquareMeters: sqm,
		Formatted:    Format(result),
	}, nil
}

// Convert performs the conversion and returns the display string.
//
// It never fails: empty input yields "", and anything that cannot be
// converted yields InvalidInput.
func (e *Engine) Convert(req Request) string {
	res, err := e.Evaluate(req)
	switch {
	case err == nil:
		return res.Formatted
	case errors.Is(err, ErrEmptyInput):
		return ""
	default:
		return InvalidInput
	}
}
