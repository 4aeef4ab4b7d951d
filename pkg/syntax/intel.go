package syntax

import (
	"strconv"
	"strings"

	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
	"github.com/blacktop/reasm/pkg/pprint"
)

// operand size in bits
var sizeNames = map[int]string{
	8:  "BYTE PTR",
	16: "WORD PTR",
	32: "DWORD PTR",
	64: "QWORD PTR",
	80: "TBYTE PTR",
}

// intel renders operands for `.intel_syntax noprefix`.
type intel struct{}

func (intel) register(name string) string {
	return strings.ToUpper(name)
}

func (i intel) Register(_ *insn.Instruction, op *insn.Operand) string {
	return i.register(op.Reg)
}

func (intel) Immediate(ctx pprint.SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error) {
	if expr == nil {
		return strconv.FormatInt(op.Imm, 10), nil
	}
	branch := inst.IsBranch()
	ref, err := ctx.SymbolicOperand(expr, !branch)
	if err != nil {
		return "", err
	}
	if branch {
		return ref, nil
	}
	return "OFFSET " + ref, nil
}

func (i intel) Memory(ctx pprint.SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error) {
	var sb strings.Builder
	if name := sizeNames[int(op.Size)*8]; name != "" {
		sb.WriteString(name + " ")
	}
	mem := op.Mem
	if mem.Segment != "" {
		sb.WriteString(i.register(mem.Segment) + ":")
	}
	sb.WriteByte('[')
	if mem.Base != "" {
		sb.WriteString(i.register(mem.Base))
	}
	if mem.Index != "" {
		if mem.Base != "" {
			sb.WriteByte('+')
		}
		sb.WriteString(i.register(mem.Index) + "*" + strconv.Itoa(mem.Scale))
	}
	hasReg := mem.Base != "" || mem.Index != ""
	if expr != nil {
		ref, err := ctx.SymbolicOperand(expr, false)
		if err != nil {
			return "", err
		}
		if hasReg {
			sb.WriteByte('+')
		}
		sb.WriteString(ref)
	} else {
		sb.WriteString(ctx.Addend(mem.Disp, !hasReg))
	}
	sb.WriteByte(']')
	return sb.String(), nil
}
