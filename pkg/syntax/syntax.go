// Package syntax provides the assembler dialects reasm can print:
// ELF (GNU as) and Mach-O (clang) output, each in Intel or AT&T syntax.
package syntax

import (
	"github.com/samber/lo"

	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
	"github.com/blacktop/reasm/pkg/pprint"
)

const (
	ELF   = "elf"
	MachO = "macho"

	Intel = "intel"
	ATT   = "att"
)

const tab = "          "

type operandRenderer interface {
	Register(inst *insn.Instruction, op *insn.Operand) string
	Immediate(ctx pprint.SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error)
	Memory(ctx pprint.SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error)
}

type sectionRenderer interface {
	SectionHeader(sec *ir.Section) string
	SectionFooter(sec *ir.Section) string
}

type backend struct {
	operandRenderer
	sectionRenderer
	dir *pprint.Directives
}

func (b *backend) Directives() *pprint.Directives { return b.dir }

func newBackend(dir *pprint.Directives, ops operandRenderer, sections sectionRenderer) pprint.Syntax {
	return &backend{operandRenderer: ops, sectionRenderer: sections, dir: dir}
}

func withDialect(dir *pprint.Directives, dialect insn.Dialect) *pprint.Directives {
	dir.Dialect = dialect
	if dialect == insn.Intel {
		dir.Header = []string{".intel_syntax noprefix"}
	}
	return dir
}

// Registry returns the registry of every built-in target.
func Registry() *pprint.Registry {
	return lo.Must(pprint.NewRegistry(
		pprint.Registration{
			Target: pprint.Target{Format: ELF, Syntax: Intel},
			Factory: func() pprint.Syntax {
				dir := withDialect(elfDirectives(), insn.Intel)
				return newBackend(dir, intel{}, elfSections{comment: dir.Comment})
			},
		},
		pprint.Registration{
			Target: pprint.Target{Format: ELF, Syntax: ATT},
			Factory: func() pprint.Syntax {
				dir := withDialect(elfDirectives(), insn.ATT)
				return newBackend(dir, att{}, elfSections{comment: dir.Comment})
			},
		},
		pprint.Registration{
			Target: pprint.Target{Format: MachO, Syntax: Intel},
			Factory: func() pprint.Syntax {
				dir := withDialect(machoDirectives(), insn.Intel)
				return newBackend(dir, intel{}, machoSections{comment: dir.Comment})
			},
		},
		pprint.Registration{
			Target: pprint.Target{Format: MachO, Syntax: ATT},
			Factory: func() pprint.Syntax {
				dir := withDialect(machoDirectives(), insn.ATT)
				return newBackend(dir, att{}, machoSections{comment: dir.Comment})
			},
		},
	))
}

var defaultSyntax = map[string]string{
	ELF:   Intel,
	MachO: ATT,
}

// DefaultSyntax returns the syntax printed for format when none is requested.
func DefaultSyntax(format string) (string, bool) {
	s, ok := defaultSyntax[format]
	return s, ok
}
