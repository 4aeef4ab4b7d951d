package pprint

import (
	"github.com/google/uuid"

	"github.com/blacktop/reasm/pkg/ir"
)

// Model is the read-only program the printer renders. *ir.Module implements it.
type Model interface {
	Sections() []*ir.Section
	Blocks() []*ir.Block
	DataObjects() []*ir.DataObject
	Symbols() []*ir.Symbol

	FindSection(addr ir.Addr) *ir.Section
	FindSymbols(addr ir.Addr) []*ir.Symbol
	SymbolicExpression(addr ir.Addr) (ir.SymbolicExpression, bool)

	FunctionEntries() []ir.Addr
	ForwardedSymbol(sym *ir.Symbol) (*ir.Symbol, bool)
	Encoding(id uuid.UUID) (string, bool)
	Comments(id uuid.UUID, from, to uint64) []ir.Comment
	CFIDirectives(off ir.Offset) []ir.CFIDirective
}

var _ Model = (*ir.Module)(nil)
