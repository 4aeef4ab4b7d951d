package syntax

import (
	"strconv"
	"strings"

	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
	"github.com/blacktop/reasm/pkg/pprint"
)

// att renders AT&T operands: %reg, $imm and disp(base,index,scale).
type att struct{}

func indirect(inst *insn.Instruction) string {
	if inst.IsBranch() {
		return "*"
	}
	return ""
}

func (att) Register(inst *insn.Instruction, op *insn.Operand) string {
	return indirect(inst) + "%" + op.Reg
}

func (att) Immediate(ctx pprint.SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error) {
	branch := inst.IsBranch()
	if expr == nil {
		if branch {
			return strconv.FormatInt(op.Imm, 10), nil
		}
		return "$" + strconv.FormatInt(op.Imm, 10), nil
	}
	ref, err := ctx.SymbolicOperand(expr, !branch)
	if err != nil {
		return "", err
	}
	if branch {
		return ref, nil
	}
	return "$" + ref, nil
}

func (att) Memory(ctx pprint.SymbolContext, inst *insn.Instruction, op *insn.Operand, expr *ir.SymAddrConst) (string, error) {
	var sb strings.Builder
	sb.WriteString(indirect(inst))
	mem := op.Mem
	if mem.Segment != "" {
		sb.WriteString("%" + mem.Segment + ":")
	}
	hasReg := mem.Base != "" || mem.Index != ""
	switch {
	case expr != nil:
		ref, err := ctx.SymbolicOperand(expr, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(ref)
	case mem.Disp != 0 || !hasReg:
		sb.WriteString(strconv.FormatInt(mem.Disp, 10))
	}
	if hasReg {
		sb.WriteByte('(')
		if mem.Base != "" {
			sb.WriteString("%" + mem.Base)
		}
		if mem.Index != "" {
			sb.WriteString(",%" + mem.Index + "," + strconv.Itoa(mem.Scale))
		}
		sb.WriteByte(')')
	}
	return sb.String(), nil
}
