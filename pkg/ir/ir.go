// Package ir is the in-memory program model consumed by the assembly printer.
//
// A Module is built once with the Add* methods and is read-only afterwards,
// so several printing sessions may share it.
package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// Addr is an absolute virtual address.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// Symbol is a named, optionally addressed entity. Several symbols may share a name.
type Symbol struct {
	ID      uuid.UUID
	Name    string
	Address *Addr
}

// HasAddress reports whether the symbol refers to a location in the module.
func (s *Symbol) HasAddress() bool {
	return s != nil && s.Address != nil
}

type SectionFlag uint8

const (
	SectionAlloc SectionFlag = 1 << iota
	SectionWrite
	SectionExec
	SectionNoBits
)

func (f SectionFlag) Alloc() bool  { return f&SectionAlloc != 0 }
func (f SectionFlag) Write() bool  { return f&SectionWrite != 0 }
func (f SectionFlag) Exec() bool   { return f&SectionExec != 0 }
func (f SectionFlag) NoBits() bool { return f&SectionNoBits != 0 }

// Section is a named address range.
type Section struct {
	Name    string
	Address Addr
	Size    uint64
	Flags   SectionFlag
}

// End returns the first address past the section.
func (s *Section) End() Addr {
	return s.Address + Addr(s.Size)
}

// Contains reports whether addr falls inside [Address, End).
func (s *Section) Contains(addr Addr) bool {
	return addr >= s.Address && addr < s.End()
}

// Block is a run of machine code.
type Block struct {
	ID      uuid.UUID
	Address Addr
	Size    uint64
	Bytes   []byte
}

// DataObject is a run of initialised or zero-filled data.
// Empty Bytes with a non-zero Size denotes zero-initialised storage.
type DataObject struct {
	ID      uuid.UUID
	Address Addr
	Size    uint64
	Bytes   []byte
}

// SymbolicExpression is a relocation-like annotation anchored at an address.
type SymbolicExpression interface {
	isSymbolicExpression()
}

// SymAddrConst is sym+Offset.
type SymAddrConst struct {
	Sym    *Symbol
	Offset int64
}

// SymAddrAddr is Sym1-Sym2.
type SymAddrAddr struct {
	Sym1 *Symbol
	Sym2 *Symbol
}

func (*SymAddrConst) isSymbolicExpression() {}
func (*SymAddrAddr) isSymbolicExpression()  {}

// Offset addresses a single byte inside a block or data object.
type Offset struct {
	ElementID    uuid.UUID
	Displacement uint64
}

// CFIDirective is a call-frame-information directive attached to a block offset.
type CFIDirective struct {
	Name     string
	Operands []int64
	Symbol   *Symbol
}
