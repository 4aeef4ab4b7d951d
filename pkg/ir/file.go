package ir

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HexBytes marshals as a hex string. Whitespace is ignored when decoding.
type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func decodeHex(s string) (HexBytes, error) {
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex bytes")
	}
	return b, nil
}

func (h HexBytes) MarshalYAML() (any, error) { return h.String(), nil }

func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	b, err := decodeHex(value.Value)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

func (h HexBytes) MarshalJSON() ([]byte, error) { return json.Marshal(h.String()) }

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := decodeHex(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

const (
	exprAddrConst = "addr-const"
	exprAddrAddr  = "addr-addr"
)

type fileSection struct {
	Name    string   `yaml:"name" json:"name"`
	Address uint64   `yaml:"address" json:"address"`
	Size    uint64   `yaml:"size" json:"size"`
	Flags   []string `yaml:"flags,omitempty" json:"flags,omitempty"`
}

type fileSymbol struct {
	ID      string  `yaml:"id" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	Address *uint64 `yaml:"address,omitempty" json:"address,omitempty"`
}

type fileElement struct {
	ID      string   `yaml:"id" json:"id"`
	Address uint64   `yaml:"address" json:"address"`
	Size    uint64   `yaml:"size,omitempty" json:"size,omitempty"`
	Bytes   HexBytes `yaml:"bytes,omitempty" json:"bytes,omitempty"`
}

type fileSymbolic struct {
	Address uint64 `yaml:"address" json:"address"`
	Kind    string `yaml:"kind" json:"kind"`
	Symbol  string `yaml:"symbol" json:"symbol"`
	Symbol2 string `yaml:"symbol2,omitempty" json:"symbol2,omitempty"`
	Offset  int64  `yaml:"offset,omitempty" json:"offset,omitempty"`
}

type fileForward struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

type fileEncoding struct {
	Element string `yaml:"element" json:"element"`
	Type    string `yaml:"type" json:"type"`
}

type fileComment struct {
	Element      string `yaml:"element" json:"element"`
	Displacement uint64 `yaml:"displacement" json:"displacement"`
	Text         string `yaml:"text" json:"text"`
}

type fileCFIDirective struct {
	Name     string  `yaml:"name" json:"name"`
	Operands []int64 `yaml:"operands,omitempty" json:"operands,omitempty"`
	Symbol   string  `yaml:"symbol,omitempty" json:"symbol,omitempty"`
}

type fileCFI struct {
	Element      string             `yaml:"element" json:"element"`
	Displacement uint64             `yaml:"displacement" json:"displacement"`
	Directives   []fileCFIDirective `yaml:"directives" json:"directives"`
}

type fileAux struct {
	FunctionEntries  []uint64       `yaml:"functionEntries,omitempty" json:"functionEntries,omitempty"`
	SymbolForwarding []fileForward  `yaml:"symbolForwarding,omitempty" json:"symbolForwarding,omitempty"`
	Encodings        []fileEncoding `yaml:"encodings,omitempty" json:"encodings,omitempty"`
	Comments         []fileComment  `yaml:"comments,omitempty" json:"comments,omitempty"`
	CFIDirectives    []fileCFI      `yaml:"cfiDirectives,omitempty" json:"cfiDirectives,omitempty"`
}

type fileModule struct {
	Name     string         `yaml:"name" json:"name"`
	Format   string         `yaml:"format" json:"format"`
	Sections []fileSection  `yaml:"sections" json:"sections"`
	Symbols  []fileSymbol   `yaml:"symbols,omitempty" json:"symbols,omitempty"`
	Blocks   []fileElement  `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	Data     []fileElement  `yaml:"data,omitempty" json:"data,omitempty"`
	Symbolic []fileSymbolic `yaml:"symbolic,omitempty" json:"symbolic,omitempty"`
	Aux      fileAux        `yaml:"aux,omitempty" json:"aux,omitempty"`
}

var sectionFlagNames = map[string]SectionFlag{
	"alloc":  SectionAlloc,
	"write":  SectionWrite,
	"exec":   SectionExec,
	"nobits": SectionNoBits,
}

// ParseID turns a file identifier into a UUID. Identifiers that are not
// UUIDs map to a stable name-based UUID.
func ParseID(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(s))
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Load reads a module from a YAML or JSON file (chosen by extension).
func Load(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model %s", path)
	}
	var fm fileModule
	if isJSON(path) {
		err = json.Unmarshal(data, &fm)
	} else {
		err = yaml.Unmarshal(data, &fm)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse model %s", path)
	}
	m, err := fm.module()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid model %s", path)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Save writes m as YAML or JSON (chosen by extension).
func Save(path string, m *Module) error {
	fm := fromModule(m)
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(fm, "", "  ")
	} else {
		data, err = yaml.Marshal(fm)
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return os.WriteFile(path, data, 0o644)
}

func (fm *fileModule) module() (*Module, error) {
	m := NewModule(fm.Name, fm.Format)

	for _, fs := range fm.Sections {
		sec := &Section{Name: fs.Name, Address: Addr(fs.Address), Size: fs.Size}
		for _, f := range fs.Flags {
			flag, ok := sectionFlagNames[f]
			if !ok {
				return nil, errors.Errorf("section %s: unknown flag %q", fs.Name, f)
			}
			sec.Flags |= flag
		}
		if err := m.AddSection(sec); err != nil {
			return nil, err
		}
	}

	for _, fs := range fm.Symbols {
		sym := &Symbol{ID: ParseID(fs.ID), Name: fs.Name}
		if fs.Address != nil {
			addr := Addr(*fs.Address)
			sym.Address = &addr
		}
		if _, dup := m.symByID[sym.ID]; dup {
			return nil, errors.Errorf("duplicate symbol id %s", fs.ID)
		}
		m.addSymbol(sym)
	}

	elementSize := func(fe fileElement) uint64 {
		if fe.Size == 0 {
			return uint64(len(fe.Bytes))
		}
		return fe.Size
	}
	for _, fb := range fm.Blocks {
		if fb.Size != 0 && fb.Size != uint64(len(fb.Bytes)) {
			return nil, errors.Errorf("block %s: size %d does not match %d bytes", fb.ID, fb.Size, len(fb.Bytes))
		}
		m.addBlock(&Block{ID: ParseID(fb.ID), Address: Addr(fb.Address), Size: elementSize(fb), Bytes: fb.Bytes})
	}
	for _, fd := range fm.Data {
		if len(fd.Bytes) != 0 && fd.Size != 0 && fd.Size != uint64(len(fd.Bytes)) {
			return nil, errors.Errorf("data %s: size %d does not match %d bytes", fd.ID, fd.Size, len(fd.Bytes))
		}
		m.addData(&DataObject{ID: ParseID(fd.ID), Address: Addr(fd.Address), Size: elementSize(fd), Bytes: fd.Bytes})
	}

	symbol := func(ref string) (*Symbol, error) {
		sym, ok := m.Symbol(ParseID(ref))
		if !ok {
			return nil, errors.Errorf("unknown symbol %q", ref)
		}
		return sym, nil
	}
	element := func(ref string) (uuid.UUID, error) {
		id := ParseID(ref)
		if _, ok := m.ElementAddress(id); !ok {
			return id, errors.Errorf("unknown element %q", ref)
		}
		return id, nil
	}

	for _, fs := range fm.Symbolic {
		sym, err := symbol(fs.Symbol)
		if err != nil {
			return nil, errors.Wrapf(err, "symbolic expression at %#x", fs.Address)
		}
		switch fs.Kind {
		case exprAddrConst, "":
			m.AddSymbolicExpression(Addr(fs.Address), &SymAddrConst{Sym: sym, Offset: fs.Offset})
		case exprAddrAddr:
			sym2, err := symbol(fs.Symbol2)
			if err != nil {
				return nil, errors.Wrapf(err, "symbolic expression at %#x", fs.Address)
			}
			m.AddSymbolicExpression(Addr(fs.Address), &SymAddrAddr{Sym1: sym, Sym2: sym2})
		default:
			return nil, errors.Errorf("symbolic expression at %#x: unknown kind %q", fs.Address, fs.Kind)
		}
	}

	if fm.Aux.FunctionEntries != nil {
		entries := make([]Addr, 0, len(fm.Aux.FunctionEntries))
		for _, e := range fm.Aux.FunctionEntries {
			entries = append(entries, Addr(e))
		}
		m.SetFunctionEntries(entries...)
	}
	for _, ff := range fm.Aux.SymbolForwarding {
		from, err := symbol(ff.From)
		if err != nil {
			return nil, errors.Wrap(err, "symbol forwarding")
		}
		to, err := symbol(ff.To)
		if err != nil {
			return nil, errors.Wrap(err, "symbol forwarding")
		}
		m.Forward(from, to)
	}
	for _, fe := range fm.Aux.Encodings {
		id, err := element(fe.Element)
		if err != nil {
			return nil, errors.Wrap(err, "encoding")
		}
		m.SetEncoding(id, fe.Type)
	}
	for _, fc := range fm.Aux.Comments {
		id, err := element(fc.Element)
		if err != nil {
			return nil, errors.Wrap(err, "comment")
		}
		m.AddComment(Offset{ElementID: id, Displacement: fc.Displacement}, fc.Text)
	}
	for _, fc := range fm.Aux.CFIDirectives {
		id, err := element(fc.Element)
		if err != nil {
			return nil, errors.Wrap(err, "cfi directive")
		}
		off := Offset{ElementID: id, Displacement: fc.Displacement}
		for _, fd := range fc.Directives {
			dir := CFIDirective{Name: fd.Name, Operands: fd.Operands}
			if fd.Symbol != "" {
				if dir.Symbol, err = symbol(fd.Symbol); err != nil {
					return nil, errors.Wrap(err, "cfi directive")
				}
			}
			m.AddCFIDirective(off, dir)
		}
	}

	return m, nil
}

func fromModule(m *Module) *fileModule {
	fm := &fileModule{Name: m.Name, Format: m.Format}

	for _, sec := range m.sections {
		fs := fileSection{Name: sec.Name, Address: uint64(sec.Address), Size: sec.Size}
		for _, name := range []string{"alloc", "write", "exec", "nobits"} {
			if sec.Flags&sectionFlagNames[name] != 0 {
				fs.Flags = append(fs.Flags, name)
			}
		}
		fm.Sections = append(fm.Sections, fs)
	}
	for _, sym := range m.symbols {
		fs := fileSymbol{ID: sym.ID.String(), Name: sym.Name}
		if sym.Address != nil {
			addr := uint64(*sym.Address)
			fs.Address = &addr
		}
		fm.Symbols = append(fm.Symbols, fs)
	}
	for _, b := range m.blocks {
		fm.Blocks = append(fm.Blocks, fileElement{ID: b.ID.String(), Address: uint64(b.Address), Size: b.Size, Bytes: b.Bytes})
	}
	for _, d := range m.data {
		fm.Data = append(fm.Data, fileElement{ID: d.ID.String(), Address: uint64(d.Address), Size: d.Size, Bytes: d.Bytes})
	}

	addrs := make([]Addr, 0, len(m.symbolic))
	for addr := range m.symbolic {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		switch expr := m.symbolic[addr].(type) {
		case *SymAddrConst:
			fm.Symbolic = append(fm.Symbolic, fileSymbolic{
				Address: uint64(addr), Kind: exprAddrConst, Symbol: expr.Sym.ID.String(), Offset: expr.Offset,
			})
		case *SymAddrAddr:
			fm.Symbolic = append(fm.Symbolic, fileSymbolic{
				Address: uint64(addr), Kind: exprAddrAddr, Symbol: expr.Sym1.ID.String(), Symbol2: expr.Sym2.ID.String(),
			})
		}
	}

	for _, e := range m.entries {
		fm.Aux.FunctionEntries = append(fm.Aux.FunctionEntries, uint64(e))
	}
	for _, sym := range m.symbols {
		if to, ok := m.ForwardedSymbol(sym); ok {
			fm.Aux.SymbolForwarding = append(fm.Aux.SymbolForwarding, fileForward{From: sym.ID.String(), To: to.ID.String()})
		}
	}
	elements := make([]uuid.UUID, 0, len(m.blocks)+len(m.data))
	for _, b := range m.blocks {
		elements = append(elements, b.ID)
	}
	for _, d := range m.data {
		elements = append(elements, d.ID)
	}
	for _, id := range elements {
		if tag, ok := m.encodings[id]; ok {
			fm.Aux.Encodings = append(fm.Aux.Encodings, fileEncoding{Element: id.String(), Type: tag})
		}
		for _, c := range m.comments[id] {
			fm.Aux.Comments = append(fm.Aux.Comments, fileComment{Element: id.String(), Displacement: c.Displacement, Text: c.Text})
		}
	}
	cfiKeys := make([]Offset, 0, len(m.cfi))
	for off := range m.cfi {
		cfiKeys = append(cfiKeys, off)
	}
	sort.Slice(cfiKeys, func(i, j int) bool {
		ai, aj := m.elements[cfiKeys[i].ElementID], m.elements[cfiKeys[j].ElementID]
		if ai != aj {
			return ai < aj
		}
		return cfiKeys[i].Displacement < cfiKeys[j].Displacement
	})
	for _, off := range cfiKeys {
		fc := fileCFI{Element: off.ElementID.String(), Displacement: off.Displacement}
		for _, dir := range m.cfi[off] {
			fd := fileCFIDirective{Name: dir.Name, Operands: dir.Operands}
			if dir.Symbol != nil {
				fd.Symbol = dir.Symbol.ID.String()
			}
			fc.Directives = append(fc.Directives, fd)
		}
		fm.Aux.CFIDirectives = append(fm.Aux.CFIDirectives, fc)
	}

	return fm
}
