package pprint

import "github.com/pkg/errors"

var (
	// ErrInvalidOperand is returned for a decoded operand of no known kind.
	ErrInvalidOperand = errors.New("invalid operand kind")
	// ErrInvalidSymbolic is returned when an instruction operand carries a
	// symbolic expression that is not sym+offset.
	ErrInvalidSymbolic = errors.New("symbolic operand is not an address constant")
	// ErrUnknownDataSize is returned for symbolic data without a type tag
	// whose size is not 1, 2, 4 or 8.
	ErrUnknownDataSize = errors.New("unknown symbolic data size")
	// ErrAmbiguousSymbol is returned when an ambiguous symbol without an
	// address has to be referenced.
	ErrAmbiguousSymbol = errors.New("ambiguous symbol has no address")
	// ErrNoSection is returned for a data object outside every section.
	ErrNoSection = errors.New("data object is not in any section")
	// ErrUnknownTarget is returned for a format/syntax pair with no backend.
	ErrUnknownTarget = errors.New("unknown target")
)
