package syntax

import (
	"strings"

	"github.com/blacktop/reasm/pkg/ir"
	"github.com/blacktop/reasm/pkg/pprint"
)

func elfDirectives() *pprint.Directives {
	return &pprint.Directives{
		Comment: "#",
		Tab:     tab,

		Text:          ".text",
		Data:          ".data",
		BSS:           ".bss",
		TextDirective: ".text",
		DataDirective: ".data",
		BSSDirective:  ".bss",

		Align:        ".align",
		Global:       ".globl",
		Type:         ".type",
		FunctionType: "@function",
		NOP:          "nop",

		Byte:   ".byte",
		Word:   ".word",
		Long:   ".long",
		Quad:   ".quad",
		Zero:   ".zero",
		String: ".string",

		LocalLabelPrefix: ".L_",

		SkipSections:     []string{".comment", ".plt", ".init", ".fini", ".got", ".plt.got", ".got.plt"},
		SkipDataSections: []string{".init_array", ".fini_array"},
		PLTSections:      []string{".plt", ".plt.got"},
		GOTSections:      []string{".got", ".got.plt"},
	}
}

type elfSections struct {
	comment string
}

// SectionHeader renders .section name,"flags",@type.
func (e elfSections) SectionHeader(sec *ir.Section) string {
	var sb strings.Builder
	sb.WriteString(".section " + sec.Name)
	if sec.Flags == 0 {
		return sb.String()
	}
	sb.WriteString(` ,"`)
	if sec.Flags.Alloc() {
		sb.WriteByte('a')
	}
	if sec.Flags.Write() {
		sb.WriteByte('w')
	}
	if sec.Flags.Exec() {
		sb.WriteByte('x')
	}
	sb.WriteString(`",@`)
	if sec.Flags.NoBits() {
		sb.WriteString("nobits")
	} else {
		sb.WriteString("progbits")
	}
	return sb.String()
}

func (e elfSections) SectionFooter(sec *ir.Section) string {
	return e.comment + " end section " + sec.Name
}
