package conversion

import "errors"

// Domain errors for the conversion package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, conversion.ErrInvalidInput) {
//	    // show the "Invalid Input" indicator
//	}
var (
	// ErrEmptyInput is returned by Evaluate when the raw input is the empty string.
	// Convert renders it as an empty result.
	ErrEmptyInput = errors.New("conversion: empty input")

	// ErrInvalidInput is returned when the raw input has no leading decimal number.
	ErrInvalidInput = errors.New("conversion: invalid input")

	// ErrUnknownUnit is returned when a unit key is not one of the supported units.
	ErrUnknownUnit = errors.New("conversion: unknown unit")

	// ErrUnknownRegion is returned when a region key is not recognised.
	ErrUnknownRegion = errors.New("conversion: unknown region")

	// ErrInvalidTable is returned when a factor table breaks a table invariant.
	ErrInvalidTable = errors.New("conversion: invalid factor table")
)
