// Package insn describes decoded x86-64 instructions in the shape the
// assembly printer needs, independent of the decoding library.
package insn

import (
	"slices"

	"github.com/pkg/errors"
)

type OperandKind uint8

const (
	Invalid OperandKind = iota
	Register
	Immediate
	Memory
)

func (k OperandKind) String() string {
	switch k {
	case Register:
		return "register"
	case Immediate:
		return "immediate"
	case Memory:
		return "memory"
	default:
		return "invalid"
	}
}

// MemOperand is segment:[base + index*scale + disp]. Empty register names are absent.
type MemOperand struct {
	Segment string
	Base    string
	Index   string
	Scale   int
	Disp    int64
}

type Operand struct {
	Kind OperandKind
	Reg  string
	Imm  int64
	Mem  MemOperand
	// Size in bytes.
	Size uint8
}

// ID classifies the few instructions the printer treats specially.
type ID uint8

const (
	Other ID = iota
	NOP
	MOVSB
	MOVSW
	MOVSD
	MOVSQ
)

type Group uint8

const (
	GroupJump Group = iota + 1
	GroupCall
	GroupSSE2
)

type Instruction struct {
	Address  uint64
	Size     uint64
	Bytes    []byte
	Mnemonic string
	ID       ID
	Groups   []Group
	Operands []Operand
	// Byte offsets of the immediate and displacement fields within the
	// encoding, zero when absent.
	ImmOffset  uint8
	DispOffset uint8
}

func (i *Instruction) InGroup(g Group) bool {
	return slices.Contains(i.Groups, g)
}

// IsBranch reports whether the instruction is a jump or a call.
func (i *Instruction) IsBranch() bool {
	return i.InGroup(GroupJump) || i.InGroup(GroupCall)
}

// IsStringMove reports whether the instruction is one of the MOVS family.
func (i *Instruction) IsStringMove() bool {
	switch i.ID {
	case MOVSB, MOVSW, MOVSD, MOVSQ:
		return true
	}
	return false
}

type Dialect uint8

const (
	Intel Dialect = iota
	ATT
)

func (d Dialect) String() string {
	if d == ATT {
		return "att"
	}
	return "intel"
}

// Decoder turns machine code into instructions. A Decoder is owned by one
// printing session and must be closed when the session ends.
type Decoder interface {
	Decode(code []byte, addr uint64) ([]Instruction, error)
	Close() error
}

// DecoderFactory opens a decoder for the requested operand dialect.
type DecoderFactory func(Dialect) (Decoder, error)

var ErrDecode = errors.New("failed to decode instructions")
