package ir

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Comment is a free-text annotation at a byte displacement inside an element.
type Comment struct {
	Displacement uint64
	Text         string
}

// Module is a single program: its sections, code, data, symbols and the
// optional auxiliary tables recovered alongside them.
type Module struct {
	Name   string
	Format string

	sections []*Section
	blocks   []*Block
	data     []*DataObject
	symbols  []*Symbol

	symByID    map[uuid.UUID]*Symbol
	symByAddr  map[Addr][]*Symbol
	symByName  map[string][]*Symbol
	elements   map[uuid.UUID]Addr
	symbolic   map[Addr]SymbolicExpression
	entries    []Addr
	forwarding map[uuid.UUID]uuid.UUID
	encodings  map[uuid.UUID]string
	comments   map[uuid.UUID][]Comment
	cfi        map[Offset][]CFIDirective
}

// NewModule returns an empty module for the given object format (elf, macho).
func NewModule(name, format string) *Module {
	return &Module{
		Name:      name,
		Format:    format,
		symByID:   make(map[uuid.UUID]*Symbol),
		symByAddr: make(map[Addr][]*Symbol),
		symByName: make(map[string][]*Symbol),
		elements:  make(map[uuid.UUID]Addr),
		symbolic:  make(map[Addr]SymbolicExpression),
	}
}

func insertSorted[T any](s []T, v T, addr func(T) Addr) []T {
	i, _ := slices.BinarySearchFunc(s, addr(v), func(e T, a Addr) int {
		if addr(e) <= a {
			return -1 // keep insertion order among equal addresses
		}
		return 1
	})
	return slices.Insert(s, i, v)
}

// AddSection adds a section. Sections must not overlap.
func (m *Module) AddSection(sec *Section) error {
	if sec.Size == 0 {
		return errors.Errorf("section %s has zero size", sec.Name)
	}
	for _, other := range m.sections {
		if sec.Address < other.End() && other.Address < sec.End() {
			return errors.Errorf("section %s overlaps %s", sec.Name, other.Name)
		}
	}
	m.sections = insertSorted(m.sections, sec, func(s *Section) Addr { return s.Address })
	return nil
}

// AddSymbol creates a symbol with a fresh ID.
func (m *Module) AddSymbol(name string, addr *Addr) *Symbol {
	sym := &Symbol{ID: uuid.New(), Name: name, Address: addr}
	m.addSymbol(sym)
	return sym
}

// AddSymbolAt is AddSymbol for an addressed symbol.
func (m *Module) AddSymbolAt(name string, addr Addr) *Symbol {
	return m.AddSymbol(name, &addr)
}

func (m *Module) addSymbol(sym *Symbol) {
	m.symbols = append(m.symbols, sym)
	m.symByID[sym.ID] = sym
	m.symByName[sym.Name] = append(m.symByName[sym.Name], sym)
	if sym.Address != nil {
		m.symByAddr[*sym.Address] = append(m.symByAddr[*sym.Address], sym)
	}
}

// AddBlock adds a code block.
func (m *Module) AddBlock(addr Addr, code []byte) *Block {
	b := &Block{ID: uuid.New(), Address: addr, Size: uint64(len(code)), Bytes: code}
	m.addBlock(b)
	return b
}

func (m *Module) addBlock(b *Block) {
	m.blocks = insertSorted(m.blocks, b, func(b *Block) Addr { return b.Address })
	m.elements[b.ID] = b.Address
}

// AddData adds an initialised data object.
func (m *Module) AddData(addr Addr, data []byte) *DataObject {
	return m.addData(&DataObject{ID: uuid.New(), Address: addr, Size: uint64(len(data)), Bytes: data})
}

// AddZeroData adds a zero-initialised data object of the given size.
func (m *Module) AddZeroData(addr Addr, size uint64) *DataObject {
	return m.addData(&DataObject{ID: uuid.New(), Address: addr, Size: size})
}

func (m *Module) addData(d *DataObject) *DataObject {
	m.data = insertSorted(m.data, d, func(d *DataObject) Addr { return d.Address })
	m.elements[d.ID] = d.Address
	return d
}

// AddSymbolicExpression anchors expr at addr, replacing any previous one.
func (m *Module) AddSymbolicExpression(addr Addr, expr SymbolicExpression) {
	m.symbolic[addr] = expr
}

// SetFunctionEntries records the function entry addresses.
// The table is kept sorted and de-duplicated.
func (m *Module) SetFunctionEntries(entries ...Addr) {
	m.entries = lo.Uniq(entries)
	slices.Sort(m.entries)
}

// Forward records that references to from should print as to.
func (m *Module) Forward(from, to *Symbol) {
	if m.forwarding == nil {
		m.forwarding = make(map[uuid.UUID]uuid.UUID)
	}
	m.forwarding[from.ID] = to.ID
}

// SetEncoding tags a data object with its directive type (string, quad, ...).
func (m *Module) SetEncoding(id uuid.UUID, tag string) {
	if m.encodings == nil {
		m.encodings = make(map[uuid.UUID]string)
	}
	m.encodings[id] = tag
}

// AddComment attaches a comment to a byte of an element.
func (m *Module) AddComment(off Offset, text string) {
	if m.comments == nil {
		m.comments = make(map[uuid.UUID][]Comment)
	}
	c := Comment{Displacement: off.Displacement, Text: text}
	list := m.comments[off.ElementID]
	i, _ := slices.BinarySearchFunc(list, c.Displacement, func(e Comment, d uint64) int {
		if e.Displacement <= d {
			return -1
		}
		return 1
	})
	m.comments[off.ElementID] = slices.Insert(list, i, c)
}

// AddCFIDirective appends a CFI directive at a block offset.
func (m *Module) AddCFIDirective(off Offset, dir CFIDirective) {
	if m.cfi == nil {
		m.cfi = make(map[Offset][]CFIDirective)
	}
	m.cfi[off] = append(m.cfi[off], dir)
}

/* queries */

// Sections returns the sections ordered by address.
func (m *Module) Sections() []*Section { return m.sections }

// Blocks returns the code blocks ordered by address.
func (m *Module) Blocks() []*Block { return m.blocks }

// DataObjects returns the data objects ordered by address.
func (m *Module) DataObjects() []*DataObject { return m.data }

// Symbols returns every symbol in insertion order.
func (m *Module) Symbols() []*Symbol { return m.symbols }

// FindSection returns the section containing addr, or nil.
func (m *Module) FindSection(addr Addr) *Section {
	i, found := slices.BinarySearchFunc(m.sections, addr, func(s *Section, a Addr) int {
		return cmp.Compare(s.Address, a)
	})
	if found {
		return m.sections[i]
	}
	if i == 0 {
		return nil
	}
	if sec := m.sections[i-1]; sec.Contains(addr) {
		return sec
	}
	return nil
}

// FindSymbols returns the symbols defined at addr.
func (m *Module) FindSymbols(addr Addr) []*Symbol { return m.symByAddr[addr] }

// FindSymbolsByName returns every symbol with exactly this name.
func (m *Module) FindSymbolsByName(name string) []*Symbol { return m.symByName[name] }

// Symbol looks a symbol up by ID.
func (m *Module) Symbol(id uuid.UUID) (*Symbol, bool) {
	sym, ok := m.symByID[id]
	return sym, ok
}

// ElementAddress returns the address of a block or data object.
func (m *Module) ElementAddress(id uuid.UUID) (Addr, bool) {
	addr, ok := m.elements[id]
	return addr, ok
}

// SymbolicExpression returns the expression anchored at addr.
func (m *Module) SymbolicExpression(addr Addr) (SymbolicExpression, bool) {
	expr, ok := m.symbolic[addr]
	return expr, ok
}

// FunctionEntries returns the sorted function entry table (nil when absent).
func (m *Module) FunctionEntries() []Addr { return m.entries }

// ForwardedSymbol returns the forwarding destination of sym.
func (m *Module) ForwardedSymbol(sym *Symbol) (*Symbol, bool) {
	if m.forwarding == nil {
		return nil, false
	}
	id, ok := m.forwarding[sym.ID]
	if !ok {
		return nil, false
	}
	return m.Symbol(id)
}

// Encoding returns the type tag of a data object.
func (m *Module) Encoding(id uuid.UUID) (string, bool) {
	tag, ok := m.encodings[id]
	return tag, ok
}

// Comments returns the comments of element id whose displacement lies in
// [from, to), ordered by displacement.
func (m *Module) Comments(id uuid.UUID, from, to uint64) []Comment {
	list := m.comments[id]
	if len(list) == 0 {
		return nil
	}
	start, _ := slices.BinarySearchFunc(list, from, func(c Comment, d uint64) int {
		return cmp.Compare(c.Displacement, d)
	})
	end := start
	for end < len(list) && list[end].Displacement < to {
		end++
	}
	return list[start:end]
}

// CFIDirectives returns the CFI directives attached at off.
func (m *Module) CFIDirectives(off Offset) []CFIDirective {
	return m.cfi[off]
}
