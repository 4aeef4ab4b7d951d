package pprint

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/blacktop/reasm/pkg/ir"
)

// names that clash with assembler keywords or operators
var reservedNames = map[string]struct{}{
	"FS": {}, "MOD": {}, "DIV": {}, "NOT": {},
	"mod": {}, "div": {}, "not": {}, "and": {}, "or": {}, "shr": {}, "Si": {},
}

const functionCacheSize = 4096

type stringSet map[string]struct{}

func newStringSet(names ...string) stringSet {
	s := make(stringSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s stringSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// resolver answers the name and address questions of one printing session.
type resolver struct {
	model Model
	dir   *Directives
	debug bool

	skipFunctions    stringSet
	skipSections     stringSet
	skipDataSections stringSet
	pltSections      stringSet
	gotSections      stringSet

	nameCount map[string]int
	functions *lru.Cache[ir.Addr, string]
}

func newResolver(model Model, dir *Directives, conf *Config) (*resolver, error) {
	cache, err := lru.New[ir.Addr, string](functionCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create function cache")
	}
	r := &resolver{
		model:            model,
		dir:              dir,
		debug:            conf.Debug,
		skipFunctions:    newStringSet(conf.SkipFunctions...),
		skipSections:     newStringSet(dir.SkipSections...),
		skipDataSections: newStringSet(dir.SkipDataSections...),
		pltSections:      newStringSet(dir.PLTSections...),
		gotSections:      newStringSet(dir.GOTSections...),
		nameCount:        make(map[string]int),
		functions:        cache,
	}
	for _, sym := range model.Symbols() {
		r.nameCount[sym.Name]++
	}
	return r, nil
}

func (r *resolver) IsAmbiguous(name string) bool {
	return r.nameCount[name] > 1
}

func (r *resolver) localLabel(addr ir.Addr) string {
	return fmt.Sprintf("%s%x", r.dir.LocalLabelPrefix, uint64(addr))
}

func (r *resolver) isFunctionEntry(addr ir.Addr) bool {
	_, found := slices.BinarySearch(r.model.FunctionEntries(), addr)
	return found
}

// FunctionName returns the printable name of the function starting at addr,
// or "" if addr is not a function entry.
func (r *resolver) FunctionName(addr ir.Addr) string {
	if !r.isFunctionEntry(addr) {
		return ""
	}
	if syms := r.model.FindSymbols(addr); len(syms) > 0 {
		name := syms[0].Name
		if r.IsAmbiguous(name) {
			return fmt.Sprintf("%s_%x", name, uint64(addr))
		}
		return name
	}
	return fmt.Sprintf("unknown_function_%x", uint64(addr))
}

// ContainingFunction returns the entry of the function addr belongs to.
// Functions are assumed contiguous, the last one extending to the end.
func (r *resolver) ContainingFunction(addr ir.Addr) (ir.Addr, bool) {
	entries := r.model.FunctionEntries()
	i := sort.Search(len(entries), func(i int) bool { return entries[i] > addr })
	if i == 0 {
		return 0, false
	}
	return entries[i-1], true
}

func (r *resolver) containingFunctionName(addr ir.Addr) string {
	entry, ok := r.ContainingFunction(addr)
	if !ok {
		return ""
	}
	if name, ok := r.functions.Get(entry); ok {
		return name
	}
	name := r.FunctionName(entry)
	r.functions.Add(entry, name)
	return name
}

func (r *resolver) sectionName(addr ir.Addr) string {
	if sec := r.model.FindSection(addr); sec != nil {
		return sec.Name
	}
	return ""
}

func (r *resolver) SkipSection(name string) bool {
	return r.skipSections.has(name)
}

func (r *resolver) SkipDataSection(name string) bool {
	return r.skipDataSections.has(name)
}

// SkipEA reports whether nothing at addr is printed: outside debug mode,
// addresses in skipped sections and skipped functions are dropped.
func (r *resolver) SkipEA(addr ir.Addr) bool {
	if r.debug {
		return false
	}
	if r.skipSections.has(r.sectionName(addr)) {
		return true
	}
	name := r.containingFunctionName(addr)
	return name != "" && r.skipFunctions.has(name)
}

func avoidNameConflicts(name string) string {
	if _, ok := reservedNames[name]; ok {
		return name + "_renamed"
	}
	return name
}

// SymbolName is the printable name of a symbol, before forwarding.
func (r *resolver) SymbolName(sym *ir.Symbol) (string, error) {
	if r.IsAmbiguous(sym.Name) {
		if !sym.HasAddress() {
			return "", errors.Wrapf(ErrAmbiguousSymbol, "%q", sym.Name)
		}
		return r.localLabel(*sym.Address), nil
	}
	return avoidNameConflicts(sym.Name), nil
}

// forwardingEnding returns @PLT or @GOTPCREL for a destination in a PLT or
// GOT section.
func (r *resolver) forwardingEnding(addr ir.Addr, absolute bool) string {
	name := r.sectionName(addr)
	if !absolute && r.pltSections.has(name) {
		return "@PLT"
	}
	if r.gotSections.has(name) {
		return "@GOTPCREL"
	}
	return ""
}

// Reference renders a reference to sym. absolute is set for data and
// other contexts where PLT indirection is not allowed.
func (r *resolver) Reference(sym *ir.Symbol, absolute bool) (string, error) {
	if dest, ok := r.model.ForwardedSymbol(sym); ok {
		var located *ir.Symbol
		if sym.HasAddress() {
			located = sym
		}
		seen := map[*ir.Symbol]bool{sym: true}
		for !seen[dest] {
			seen[dest] = true
			if dest.HasAddress() {
				located = dest
			}
			next, ok := r.model.ForwardedSymbol(dest)
			if !ok {
				break
			}
			dest = next
		}
		name, err := r.SymbolName(dest)
		if err != nil {
			return "", err
		}
		if located != nil {
			name += r.forwardingEnding(*located.Address, absolute)
		}
		return name, nil
	}
	if sym.HasAddress() && r.SkipEA(*sym.Address) {
		return strconv.FormatUint(uint64(*sym.Address), 10), nil
	}
	return r.SymbolName(sym)
}

func (r *resolver) Addend(n int64, first bool) string {
	switch {
	case n < 0 || first:
		return strconv.FormatInt(n, 10)
	case n == 0:
		return ""
	default:
		return "+" + strconv.FormatInt(n, 10)
	}
}

func (r *resolver) SymbolicOperand(expr *ir.SymAddrConst, absolute bool) (string, error) {
	ref, err := r.Reference(expr.Sym, absolute)
	if err != nil {
		return "", err
	}
	return ref + r.Addend(expr.Offset, false), nil
}

// Labels returns the label definitions (without colon) for symbols at addr.
func (r *resolver) Labels(addr ir.Addr) ([]string, error) {
	var labels []string
	for _, sym := range r.model.FindSymbols(addr) {
		name, err := r.SymbolName(sym)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(labels, name) {
			labels = append(labels, name)
		}
	}
	return labels, nil
}
