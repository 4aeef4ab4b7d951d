package loader

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/reasm/internal/magic"
	"github.com/blacktop/reasm/pkg/ir"
)

func testImage() *image {
	text := []byte{0x55, 0x90, 0x5d, 0xc3, 0x55, 0x5d, 0xc3, 0x90}
	return &image{
		name:   "test",
		format: magic.ELF,
		sections: []section{
			{Section: ir.Section{Name: ".text", Address: 0x1000, Size: 8, Flags: ir.SectionAlloc | ir.SectionExec}, data: text},
			{Section: ir.Section{Name: ".rodata.str1.1", Address: 0x2000, Size: 10, Flags: ir.SectionAlloc}, data: []byte("hi\x00there\x00\x01"), strings: true},
			{Section: ir.Section{Name: ".data", Address: 0x3000, Size: 16, Flags: ir.SectionAlloc | ir.SectionWrite}, data: make([]byte, 16)},
			{Section: ir.Section{Name: ".bss", Address: 0x4000, Size: 32, Flags: ir.SectionAlloc | ir.SectionWrite | ir.SectionNoBits}},
			{Section: ir.Section{Name: ".tbss", Address: 0x4010, Size: 8, Flags: ir.SectionAlloc | ir.SectionWrite | ir.SectionNoBits}},
		},
		symbols: []symbol{
			{name: "main", addr: 0x1000, defined: true},
			{name: "helper", addr: 0x1004, defined: true},
			{name: "counter", addr: 0x3008, defined: true},
			{name: "buf", addr: 0x4000, defined: true},
			{name: "puts"},
			{name: "puts"},
			{name: ""},
		},
		entries: []ir.Addr{0x1004, 0x1000, 0x3000},
	}
}

func TestBuild(t *testing.T) {
	m, err := testImage().build()
	require.NoError(t, err)

	assert.Equal(t, "elf", m.Format)
	require.Len(t, m.Sections(), 4, ".tbss overlaps .bss")
	assert.Equal(t, []ir.Addr{0x1000, 0x1004}, m.FunctionEntries(), "entries outside code are dropped")

	puts := m.FindSymbolsByName("puts")
	require.Len(t, puts, 1, "undefined imports are added once")
	assert.False(t, puts[0].HasAddress())

	blocks := m.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, ir.Addr(0x1000), blocks[0].Address)
	assert.Equal(t, []byte{0x55, 0x90, 0x5d, 0xc3}, blocks[0].Bytes)
	assert.Equal(t, ir.Addr(0x1004), blocks[1].Address)
	assert.Equal(t, uint64(4), blocks[1].Size)

	type piece struct {
		addr ir.Addr
		size uint64
		zero bool
		enc  string
	}
	var got []piece
	for _, d := range m.DataObjects() {
		enc, _ := m.Encoding(d.ID)
		got = append(got, piece{d.Address, d.Size, len(d.Bytes) == 0, enc})
	}
	assert.Equal(t, []piece{
		{0x2000, 3, false, stringEncoding},
		{0x2003, 6, false, stringEncoding},
		{0x2009, 1, false, ""},
		{0x3000, 8, false, ""},
		{0x3008, 8, false, ""},
		{0x4000, 32, true, ""},
	}, got)
}

func TestBuild_ShortData(t *testing.T) {
	img := &image{
		format: magic.ELF,
		sections: []section{
			{Section: ir.Section{Name: ".data", Address: 0x1000, Size: 8, Flags: ir.SectionAlloc}, data: []byte{1, 2}},
		},
	}
	_, err := img.build()
	assert.Error(t, err)
}

func TestIsCString(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello\x00", true},
		{"tab\tnl\n\x00", true},
		{"\x00", false},
		{"no terminator", false},
		{"bin\x01\x00", false},
		{"hi\xff\x00", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, isCString([]byte(tt.in)))
		})
	}
}

func TestOpen_Self(t *testing.T) {
	if runtime.GOARCH != "amd64" || (runtime.GOOS != "linux" && runtime.GOOS != "darwin") {
		t.Skip("needs an x86-64 ELF or Mach-O test binary")
	}
	exe, err := os.Executable()
	require.NoError(t, err)

	m, err := Open(exe)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(exe), m.Name)
	assert.NotEmpty(t, m.Sections())
	assert.NotEmpty(t, m.Blocks())
	assert.NotEmpty(t, m.FunctionEntries())
	for _, b := range m.Blocks() {
		sec := m.FindSection(b.Address)
		require.NotNil(t, sec)
		assert.True(t, sec.Flags.Exec(), "block %s outside code", b.Address)
	}
}

func TestOpen_NotBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := Open(path)
	assert.ErrorIs(t, err, magic.ErrUnknownFormat)
}
