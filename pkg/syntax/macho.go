package syntax

import (
	"github.com/blacktop/reasm/pkg/ir"
	"github.com/blacktop/reasm/pkg/pprint"
)

// Mach-O sections are named "segment,section".
func machoDirectives() *pprint.Directives {
	return &pprint.Directives{
		Comment: "#",
		Tab:     tab,

		Text:          "__TEXT,__text",
		Data:          "__DATA,__data",
		BSS:           "__DATA,__bss",
		TextDirective: ".text",
		DataDirective: ".data",
		BSSDirective:  ".bss",

		Align:     ".p2align",
		AlignLog2: true,
		Global:    ".globl",
		NOP:       "nop",

		Byte:   ".byte",
		Word:   ".short",
		Long:   ".long",
		Quad:   ".quad",
		Zero:   ".space",
		String: ".asciz",

		LocalLabelPrefix: "L_",

		SkipSections: []string{
			"__TEXT,__stubs",
			"__TEXT,__stub_helper",
			"__TEXT,__unwind_info",
			"__TEXT,__eh_frame",
			"__DATA,__la_symbol_ptr",
			"__DATA,__got",
			"__DATA_CONST,__got",
		},
		SkipDataSections: []string{
			"__DATA,__mod_init_func",
			"__DATA,__mod_term_func",
			"__DATA_CONST,__mod_init_func",
			"__DATA_CONST,__mod_term_func",
		},
		GOTSections: []string{"__DATA,__got", "__DATA_CONST,__got"},
	}
}

type machoSections struct {
	comment string
}

func (m machoSections) SectionHeader(sec *ir.Section) string {
	if sec.Flags.Exec() {
		return ".section " + sec.Name + ",regular,pure_instructions"
	}
	return ".section " + sec.Name
}

func (m machoSections) SectionFooter(sec *ir.Section) string {
	return m.comment + " end section " + sec.Name
}
