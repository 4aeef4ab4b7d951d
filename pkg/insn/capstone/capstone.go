//go:build cgo

// Package capstone decodes x86-64 machine code with the capstone engine.
package capstone

import (
	"github.com/knightsc/gapstone"
	"github.com/pkg/errors"

	"github.com/blacktop/reasm/pkg/insn"
)

type Decoder struct {
	engine gapstone.Engine
}

// New opens a 64-bit x86 capstone engine with instruction details enabled.
func New(dialect insn.Dialect) (insn.Decoder, error) {
	engine, err := gapstone.New(
		gapstone.CS_ARCH_X86,
		gapstone.CS_MODE_64,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create capstone engine")
	}
	if err := engine.SetOption(gapstone.CS_OPT_DETAIL, gapstone.CS_OPT_ON); err != nil {
		engine.Close()
		return nil, errors.Wrapf(err, "failed to enable capstone detail mode")
	}
	syntax := uint(gapstone.CS_OPT_SYNTAX_INTEL)
	if dialect == insn.ATT {
		syntax = gapstone.CS_OPT_SYNTAX_ATT
	}
	if err := engine.SetOption(gapstone.CS_OPT_SYNTAX, syntax); err != nil {
		engine.Close()
		return nil, errors.Wrapf(err, "failed to set capstone syntax to %s", dialect)
	}
	return &Decoder{engine: engine}, nil
}

func (d *Decoder) Close() error {
	return d.engine.Close()
}

func (d *Decoder) Decode(code []byte, addr uint64) ([]insn.Instruction, error) {
	if len(code) == 0 {
		return nil, nil
	}
	insns, err := d.engine.Disasm(
		code,
		addr,
		0, // insns to disassemble, 0 for all
	)
	if err != nil {
		return nil, errors.Wrapf(insn.ErrDecode, "at %#x: %v", addr, err)
	}
	out := make([]insn.Instruction, 0, len(insns))
	for _, i := range insns {
		out = append(out, d.convert(&i))
	}
	return out, nil
}

func (d *Decoder) regName(reg uint) string {
	if reg == gapstone.X86_REG_INVALID {
		return ""
	}
	return d.engine.RegName(reg)
}

func (d *Decoder) convert(i *gapstone.Instruction) insn.Instruction {
	out := insn.Instruction{
		Address:  uint64(i.Address),
		Size:     uint64(i.Size),
		Bytes:    i.Bytes,
		Mnemonic: i.Mnemonic,
	}

	switch i.Id {
	case gapstone.X86_INS_NOP:
		out.ID = insn.NOP
	case gapstone.X86_INS_MOVSB:
		out.ID = insn.MOVSB
	case gapstone.X86_INS_MOVSW:
		out.ID = insn.MOVSW
	case gapstone.X86_INS_MOVSD:
		out.ID = insn.MOVSD
	case gapstone.X86_INS_MOVSQ:
		out.ID = insn.MOVSQ
	}

	for _, g := range i.Groups {
		switch g {
		case gapstone.X86_GRP_JUMP:
			out.Groups = append(out.Groups, insn.GroupJump)
		case gapstone.X86_GRP_CALL:
			out.Groups = append(out.Groups, insn.GroupCall)
		case gapstone.X86_GRP_SSE2:
			out.Groups = append(out.Groups, insn.GroupSSE2)
		}
	}

	if i.X86 == nil {
		return out
	}
	out.ImmOffset = i.X86.Encoding.ImmOffset
	out.DispOffset = i.X86.Encoding.DispOffset

	for _, op := range i.X86.Operands {
		o := insn.Operand{Size: op.Size}
		switch op.Type {
		case gapstone.X86_OP_REG:
			o.Kind = insn.Register
			o.Reg = d.regName(op.Reg)
		case gapstone.X86_OP_IMM:
			o.Kind = insn.Immediate
			o.Imm = op.Imm
		case gapstone.X86_OP_MEM:
			o.Kind = insn.Memory
			o.Mem = insn.MemOperand{
				Segment: d.regName(op.Mem.Segment),
				Base:    d.regName(op.Mem.Base),
				Index:   d.regName(op.Mem.Index),
				Scale:   op.Mem.Scale,
				Disp:    op.Mem.Disp,
			}
		default:
			o.Kind = insn.Invalid
		}
		out.Operands = append(out.Operands, o)
	}
	return out
}
