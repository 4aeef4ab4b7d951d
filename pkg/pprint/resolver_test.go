package pprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/reasm/pkg/ir"
)

func testDirectives() *Directives {
	return &Directives{
		Comment:          "#",
		Align:            ".align",
		LocalLabelPrefix: ".L_",
		SkipSections:     []string{".plt", ".got"},
		SkipDataSections: []string{".init_array"},
		PLTSections:      []string{".plt"},
		GOTSections:      []string{".got"},
	}
}

func testResolver(t *testing.T, m *ir.Module, conf *Config) *resolver {
	t.Helper()
	if conf == nil {
		conf = NewConfig("elf", "intel")
	}
	r, err := newResolver(m, testDirectives(), conf)
	require.NoError(t, err)
	return r
}

func resolverModule(t *testing.T) *ir.Module {
	t.Helper()
	m := ir.NewModule("test", "elf")
	for _, sec := range []*ir.Section{
		{Name: ".plt", Address: 0x500, Size: 0x20},
		{Name: ".got", Address: 0x600, Size: 0x20},
		{Name: ".text", Address: 0x1000, Size: 0x100},
	} {
		require.NoError(t, m.AddSection(sec))
	}
	m.SetFunctionEntries(0x1000, 0x1040, 0x1080)
	return m
}

func TestResolver_FunctionName(t *testing.T) {
	m := resolverModule(t)
	m.AddSymbolAt("main", 0x1000)
	m.AddSymbolAt("dup", 0x1040)
	m.AddSymbolAt("dup", 0x10f0)
	r := testResolver(t, m, nil)

	tests := []struct {
		name string
		addr ir.Addr
		want string
	}{
		{"named", 0x1000, "main"},
		{"ambiguous", 0x1040, "dup_1040"},
		{"unnamed", 0x1080, "unknown_function_1080"},
		{"not an entry", 0x10f0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.FunctionName(tt.addr))
		})
	}
}

func TestResolver_ContainingFunction(t *testing.T) {
	r := testResolver(t, resolverModule(t), nil)
	tests := []struct {
		name  string
		addr  ir.Addr
		want  ir.Addr
		found bool
	}{
		{"before first", 0xfff, 0, false},
		{"at entry", 0x1040, 0x1040, true},
		{"inside", 0x1050, 0x1040, true},
		{"past last", 0x5000, 0x1080, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ContainingFunction(tt.addr)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Reference(t *testing.T) {
	m := resolverModule(t)
	stub := m.AddSymbolAt("puts_stub", 0x500)
	slot := m.AddSymbolAt("puts_slot", 0x600)
	puts := m.AddSymbol("puts", nil)
	local := m.AddSymbolAt("helper", 0x1010)
	dupA := m.AddSymbolAt("dup", 0x1020)
	dupB := m.AddSymbol("dup", nil)
	div := m.AddSymbolAt("div", 0x1030)
	start := m.AddSymbolAt("_start", 0x1080)
	m.Forward(stub, puts)
	m.Forward(slot, puts)

	cycleA := m.AddSymbolAt("cycle_a", 0x1090)
	cycleB := m.AddSymbolAt("cycle_b", 0x10a0)
	m.Forward(cycleA, cycleB)
	m.Forward(cycleB, cycleA)

	r := testResolver(t, m, nil)

	tests := []struct {
		name     string
		sym      *ir.Symbol
		absolute bool
		want     string
	}{
		{"plt call", stub, false, "puts@PLT"},
		{"plt in data", stub, true, "puts"},
		{"got slot", slot, false, "puts@GOTPCREL"},
		{"got slot absolute", slot, true, "puts@GOTPCREL"},
		{"plain", local, false, "helper"},
		{"ambiguous", dupA, false, ".L_1020"},
		{"renamed", div, false, "div_renamed"},
		{"skipped function", start, true, "4224"},
		{"cycle", cycleA, true, "cycle_a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Reference(tt.sym, tt.absolute)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.Reference(dupB, false)
	assert.ErrorIs(t, err, ErrAmbiguousSymbol)
}

func TestResolver_Addend(t *testing.T) {
	r := testResolver(t, resolverModule(t), nil)
	tests := []struct {
		name  string
		n     int64
		first bool
		want  string
	}{
		{"zero", 0, false, ""},
		{"zero first", 0, true, "0"},
		{"positive", 8, false, "+8"},
		{"positive first", 8, true, "8"},
		{"negative", -4, false, "-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Addend(tt.n, tt.first))
		})
	}
}

func TestResolver_SkipEA(t *testing.T) {
	m := resolverModule(t)
	m.AddSymbolAt("frame_dummy", 0x1040)

	r := testResolver(t, m, nil)
	assert.True(t, r.SkipEA(0x504), "skipped section")
	assert.True(t, r.SkipEA(0x1050), "skipped function")
	assert.False(t, r.SkipEA(0x1000))
	assert.False(t, r.SkipEA(0x1090))

	conf := NewConfig("elf", "intel")
	conf.KeepFunction("frame_dummy")
	r = testResolver(t, m, conf)
	assert.False(t, r.SkipEA(0x1050), "kept function")

	conf = NewConfig("elf", "intel")
	conf.Debug = true
	r = testResolver(t, m, conf)
	assert.False(t, r.SkipEA(0x504), "debug prints everything")
}

func TestResolver_Labels(t *testing.T) {
	m := resolverModule(t)
	m.AddSymbolAt("a", 0x1000)
	m.AddSymbolAt("b", 0x1000)
	m.AddSymbolAt("b", 0x1000)
	r := testResolver(t, m, nil)

	labels, err := r.Labels(0x1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", ".L_1000"}, labels)
}

func TestAlignmentFor(t *testing.T) {
	tests := []struct {
		addr ir.Addr
		want uint64
	}{
		{0x30, 16},
		{0x18, 8},
		{0x14, 4},
		{0x12, 2},
		{0x15, 0},
	}
	for _, tt := range tests {
		t.Run(tt.addr.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, alignmentFor(tt.addr))
		})
	}
}

func TestConfig_KeepFunction(t *testing.T) {
	conf := NewConfig("elf", "intel")
	assert.Contains(t, conf.SkipFunctions, "_start")
	conf.KeepFunction("_start")
	assert.NotContains(t, conf.SkipFunctions, "_start")
	conf.SkipFunction("helper")
	conf.SkipFunction("helper")
	assert.Equal(t, 1, countOf(conf.SkipFunctions, "helper"))
	assert.Contains(t, DefaultSkipFunctions, "_start", "defaults are not mutated")
}

func countOf(list []string, s string) int {
	n := 0
	for _, e := range list {
		if e == s {
			n++
		}
	}
	return n
}
