package pprint

import (
	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
)

// Directives is the fixed keyword table of an assembler dialect.
type Directives struct {
	// Header lines emitted once before any element.
	Header  []string
	Comment string
	Tab     string

	// Canonical section names and the directive that opens each.
	Text, Data, BSS                            string
	TextDirective, DataDirective, BSSDirective string

	Align string
	// AlignLog2 means the alignment operand is a power-of-two exponent.
	AlignLog2 bool

	Global       string
	Type         string // empty when the format has no symbol types
	FunctionType string
	NOP          string

	Byte, Word, Long, Quad string
	Zero                   string
	String                 string

	// LocalLabelPrefix is prepended to the hex address of synthesized labels.
	LocalLabelPrefix string

	SkipSections     []string
	SkipDataSections []string
	PLTSections      []string
	GOTSections      []string

	Dialect insn.Dialect
}

// SymbolContext resolves symbol references for operand renderers.
type SymbolContext interface {
	// SymbolicOperand renders sym+offset with the offset printed as an addend.
	SymbolicOperand(expr *ir.SymAddrConst, absolute bool) (string, error)
	// Addend renders n as an addend; first means it opens the expression.
	Addend(n int64, first bool) string
}

// Syntax renders operands and sections for one (format, syntax) target.
type Syntax interface {
	Directives() *Directives
	Register(inst *insn.Instruction, op *insn.Operand) string
	// Immediate and Memory receive the symbolic expression anchored at the
	// operand's encoding, or nil.
	Immediate(ctx SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error)
	Memory(ctx SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error)
	SectionHeader(sec *ir.Section) string
	SectionFooter(sec *ir.Section) string
}
