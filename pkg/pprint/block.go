package pprint

import (
	"slices"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
)

func (s *session) printFunctionHeader(addr ir.Addr) error {
	name := s.res.FunctionName(addr)
	if name == "" {
		return nil
	}
	name = avoidNameConflicts(name)
	labels, err := s.res.Labels(addr)
	if err != nil {
		return errors.Wrapf(err, "function %s", name)
	}
	s.println("")
	s.bar(false)
	s.printAlignment(addr)
	s.println(s.dir.Global + " " + name)
	if s.dir.Type != "" {
		s.println(s.dir.Type + " " + name + ", " + s.dir.FunctionType)
	}
	if !slices.Contains(labels, name) {
		s.println(name + ":")
	}
	s.bar(false)
	return nil
}

func (s *session) printBlock(b *ir.Block) error {
	if s.res.SkipEA(b.Address) {
		return nil
	}
	s.stats.Blocks++

	if err := s.printFunctionHeader(b.Address); err != nil {
		return err
	}

	insns, err := s.decoder.Decode(b.Bytes, uint64(b.Address))
	if err != nil {
		return errors.Wrapf(err, "failed to decode block at %s", b.Address)
	}

	var off uint64
	for i := range insns {
		if err := s.printInstruction(b, &insns[i], off); err != nil {
			return err
		}
		off += insns[i].Size
	}
	if off < b.Size {
		log.Warnf("Decoded %d of %d bytes of block at %s, emitting the rest as data", off, b.Size, b.Address)
		for ; off < b.Size; off++ {
			s.printEA(b.Address + ir.Addr(off))
			s.printf("%s 0x%x\n", s.dir.Byte, b.Bytes[off])
		}
	}

	return s.printCFIDirectives(ir.Offset{ElementID: b.ID, Displacement: b.Size})
}

func (s *session) printCFIDirectives(off ir.Offset) error {
	for _, d := range s.model.CFIDirectives(off) {
		args := make([]string, 0, len(d.Operands)+1)
		for _, op := range d.Operands {
			args = append(args, strconv.FormatInt(op, 10))
		}
		if d.Symbol != nil {
			ref, err := s.res.Reference(d.Symbol, true)
			if err != nil {
				return errors.Wrapf(err, "cfi directive %s", d.Name)
			}
			args = append(args, ref)
		}
		if len(args) == 0 {
			s.println(d.Name)
		} else {
			s.println(d.Name + " " + strings.Join(args, ", "))
		}
	}
	return nil
}

func (s *session) printInstruction(b *ir.Block, inst *insn.Instruction, off uint64) error {
	ea := ir.Addr(inst.Address)
	s.stats.Instructions++

	if err := s.printLabels(ea); err != nil {
		return err
	}
	s.printComments(ir.Offset{ElementID: b.ID, Displacement: off}, inst.Size)
	if err := s.printCFIDirectives(ir.Offset{ElementID: b.ID, Displacement: off}); err != nil {
		return err
	}

	// multi-byte nops become one nop per byte
	if inst.ID == insn.NOP {
		for i := uint64(0); i < inst.Size; i++ {
			s.printEA(ea + ir.Addr(i))
			s.println("  " + s.dir.NOP)
		}
		return nil
	}

	s.printEA(ea)
	s.out.WriteString("  " + strings.ToLower(inst.Mnemonic))

	// operands of the string moves are implicit, the SSE2 movsd is not
	if inst.IsStringMove() && !inst.InGroup(insn.GroupSSE2) {
		s.println("")
		return nil
	}

	ops := make([]string, 0, len(inst.Operands))
	for i := range inst.Operands {
		op, err := s.operand(inst, &inst.Operands[i])
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	if len(ops) > 0 {
		s.out.WriteString(" " + strings.Join(ops, ","))
	}
	s.println("")
	return nil
}

func (s *session) operand(inst *insn.Instruction, op *insn.Operand) (string, error) {
	switch op.Kind {
	case insn.Register:
		return s.syntax.Register(inst, op), nil
	case insn.Immediate:
		expr, err := s.symbolicOperand(inst, inst.ImmOffset)
		if err != nil {
			return "", err
		}
		return s.syntax.Immediate(s.res, inst, op, expr)
	case insn.Memory:
		var expr *ir.SymAddrConst
		if inst.DispOffset > 0 {
			var err error
			if expr, err = s.symbolicOperand(inst, inst.DispOffset); err != nil {
				return "", err
			}
		}
		return s.syntax.Memory(s.res, inst, op, expr)
	default:
		return "", errors.Wrapf(ErrInvalidOperand, "%s at %#x", inst.Mnemonic, inst.Address)
	}
}

// symbolicOperand returns the sym+offset expression anchored at the operand
// field starting fieldOffset bytes into inst.
func (s *session) symbolicOperand(inst *insn.Instruction, fieldOffset uint8) (*ir.SymAddrConst, error) {
	expr, ok := s.model.SymbolicExpression(ir.Addr(inst.Address + uint64(fieldOffset)))
	if !ok {
		return nil, nil
	}
	sc, ok := expr.(*ir.SymAddrConst)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidSymbolic, "%s at %#x", inst.Mnemonic, inst.Address)
	}
	return sc, nil
}
