package loader

import (
	"testing"

	"github.com/blacktop/go-macho/types"
	"github.com/stretchr/testify/assert"

	"github.com/blacktop/reasm/pkg/ir"
)

func TestMachoFlags(t *testing.T) {
	tests := []struct {
		name  string
		seg   string
		flags types.SectionFlag
		want  ir.SectionFlag
	}{
		{"text", "__TEXT", types.Regular | types.PURE_INSTRUCTIONS | types.SOME_INSTRUCTIONS, ir.SectionAlloc | ir.SectionExec},
		{"stubs", "__TEXT", types.SymbolStubs | types.SOME_INSTRUCTIONS, ir.SectionAlloc | ir.SectionExec},
		{"cstring", "__TEXT", types.CstringLiterals, ir.SectionAlloc},
		{"data", "__DATA", types.Regular, ir.SectionAlloc | ir.SectionWrite},
		{"const", "__DATA_CONST", types.Regular, ir.SectionAlloc | ir.SectionWrite},
		{"bss", "__DATA", types.Zerofill, ir.SectionAlloc | ir.SectionWrite | ir.SectionNoBits},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := &types.Section{SectionHeader: types.SectionHeader{Seg: tt.seg, Name: "__" + tt.name, Flags: tt.flags}}
			assert.Equal(t, tt.want, machoFlags(sec))
		})
	}
}
