package syntax

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
	"github.com/blacktop/reasm/pkg/pprint"
)

// symbols renders sym+offset as name+offset, marking absolute references.
type symbols struct{}

func (symbols) SymbolicOperand(expr *ir.SymAddrConst, absolute bool) (string, error) {
	ref := expr.Sym.Name
	if !absolute {
		ref += "@PLT"
	}
	if expr.Offset != 0 {
		ref += "+" + strconv.FormatInt(expr.Offset, 10)
	}
	return ref, nil
}

func (symbols) Addend(n int64, first bool) string {
	switch {
	case n < 0 || first:
		return strconv.FormatInt(n, 10)
	case n == 0:
		return ""
	}
	return "+" + strconv.FormatInt(n, 10)
}

var (
	plain = &insn.Instruction{Mnemonic: "mov"}
	jump  = &insn.Instruction{Mnemonic: "jmp", Groups: []insn.Group{insn.GroupJump}}
	sym   = &ir.SymAddrConst{Sym: &ir.Symbol{Name: "target"}}
)

func memOp(size uint8, mem insn.MemOperand) *insn.Operand {
	return &insn.Operand{Kind: insn.Memory, Size: size, Mem: mem}
}

func TestIntel(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"register", func() (string, error) {
			return intel{}.Register(plain, &insn.Operand{Kind: insn.Register, Reg: "eax"}), nil
		}, "EAX"},
		{"literal immediate", func() (string, error) {
			return intel{}.Immediate(symbols{}, plain, &insn.Operand{Kind: insn.Immediate, Imm: -1}, nil)
		}, "-1"},
		{"symbolic immediate", func() (string, error) {
			return intel{}.Immediate(symbols{}, plain, &insn.Operand{Kind: insn.Immediate}, sym)
		}, "OFFSET target"},
		{"branch target", func() (string, error) {
			return intel{}.Immediate(symbols{}, jump, &insn.Operand{Kind: insn.Immediate}, sym)
		}, "target@PLT"},
		{"base index scale disp", func() (string, error) {
			return intel{}.Memory(symbols{}, plain, memOp(4, insn.MemOperand{Base: "rbp", Index: "rax", Scale: 4, Disp: 8}), nil)
		}, "DWORD PTR [RBP+RAX*4+8]"},
		{"segment absolute", func() (string, error) {
			return intel{}.Memory(symbols{}, plain, memOp(8, insn.MemOperand{Segment: "fs", Disp: 40}), nil)
		}, "QWORD PTR FS:[40]"},
		{"rip relative symbol", func() (string, error) {
			return intel{}.Memory(symbols{}, plain, memOp(1, insn.MemOperand{Base: "rip", Disp: 0x100}), sym)
		}, "BYTE PTR [RIP+target@PLT]"},
		{"xmm sized", func() (string, error) {
			return intel{}.Memory(symbols{}, plain, memOp(16, insn.MemOperand{Base: "rsp"}), nil)
		}, "[RSP]"},
		{"tbyte", func() (string, error) {
			return intel{}.Memory(symbols{}, plain, memOp(10, insn.MemOperand{Base: "rsp", Disp: -16}), nil)
		}, "TBYTE PTR [RSP-16]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestATT(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"register", func() (string, error) {
			return att{}.Register(plain, &insn.Operand{Kind: insn.Register, Reg: "eax"}), nil
		}, "%eax"},
		{"indirect branch register", func() (string, error) {
			return att{}.Register(jump, &insn.Operand{Kind: insn.Register, Reg: "rax"}), nil
		}, "*%rax"},
		{"literal immediate", func() (string, error) {
			return att{}.Immediate(symbols{}, plain, &insn.Operand{Kind: insn.Immediate, Imm: 16}, nil)
		}, "$16"},
		{"symbolic immediate", func() (string, error) {
			return att{}.Immediate(symbols{}, plain, &insn.Operand{Kind: insn.Immediate}, sym)
		}, "$target"},
		{"branch target", func() (string, error) {
			return att{}.Immediate(symbols{}, jump, &insn.Operand{Kind: insn.Immediate}, sym)
		}, "target@PLT"},
		{"base index scale disp", func() (string, error) {
			return att{}.Memory(symbols{}, plain, memOp(4, insn.MemOperand{Base: "rbp", Index: "rax", Scale: 4, Disp: -8}), nil)
		}, "-8(%rbp,%rax,4)"},
		{"index only", func() (string, error) {
			return att{}.Memory(symbols{}, plain, memOp(8, insn.MemOperand{Index: "rcx", Scale: 8}), nil)
		}, "(,%rcx,8)"},
		{"segment absolute", func() (string, error) {
			return att{}.Memory(symbols{}, plain, memOp(8, insn.MemOperand{Segment: "fs", Disp: 40}), nil)
		}, "%fs:40"},
		{"rip relative symbol", func() (string, error) {
			return att{}.Memory(symbols{}, plain, memOp(8, insn.MemOperand{Base: "rip", Disp: 0x100}), sym)
		}, "target@PLT(%rip)"},
		{"indirect jump table", func() (string, error) {
			return att{}.Memory(symbols{}, jump, memOp(8, insn.MemOperand{Index: "rax", Scale: 8}), &ir.SymAddrConst{Sym: &ir.Symbol{Name: "table"}})
		}, "*table@PLT(,%rax,8)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSectionHeaders(t *testing.T) {
	tests := []struct {
		name   string
		r      sectionRenderer
		sec    ir.Section
		header string
		footer string
	}{
		{"elf rodata", elfSections{comment: "#"}, ir.Section{Name: ".rodata", Flags: ir.SectionAlloc}, `.section .rodata ,"a",@progbits`, "# end section .rodata"},
		{"elf tbss", elfSections{comment: "#"}, ir.Section{Name: ".tbss", Flags: ir.SectionAlloc | ir.SectionWrite | ir.SectionNoBits}, `.section .tbss ,"aw",@nobits`, "# end section .tbss"},
		{"elf no flags", elfSections{comment: "#"}, ir.Section{Name: ".note"}, ".section .note", "# end section .note"},
		{"macho cstring", machoSections{comment: "#"}, ir.Section{Name: "__TEXT,__cstring"}, ".section __TEXT,__cstring", "# end section __TEXT,__cstring"},
		{"macho code", machoSections{comment: "#"}, ir.Section{Name: "__TEXT,__init", Flags: ir.SectionExec}, ".section __TEXT,__init,regular,pure_instructions", "# end section __TEXT,__init"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.header, tt.r.SectionHeader(&tt.sec))
			assert.Equal(t, tt.footer, tt.r.SectionFooter(&tt.sec))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := Registry()
	assert.Equal(t, []pprint.Target{
		{Format: ELF, Syntax: ATT},
		{Format: ELF, Syntax: Intel},
		{Format: MachO, Syntax: ATT},
		{Format: MachO, Syntax: Intel},
	}, r.Targets())
	assert.Equal(t, []string{ELF, MachO}, r.Formats())

	s, err := r.Lookup(pprint.Target{Format: ELF, Syntax: Intel})
	require.NoError(t, err)
	assert.Equal(t, insn.Intel, s.Directives().Dialect)
	assert.Equal(t, []string{".intel_syntax noprefix"}, s.Directives().Header)

	s, err = r.Lookup(pprint.Target{Format: MachO, Syntax: ATT})
	require.NoError(t, err)
	assert.Equal(t, insn.ATT, s.Directives().Dialect)
	assert.Empty(t, s.Directives().Header)
	assert.True(t, s.Directives().AlignLog2)

	a, _ := r.Lookup(pprint.Target{Format: ELF, Syntax: Intel})
	b, _ := r.Lookup(pprint.Target{Format: ELF, Syntax: Intel})
	assert.NotSame(t, a.Directives(), b.Directives(), "every lookup builds a fresh backend")

	_, err = r.Lookup(pprint.Target{Format: "pe", Syntax: "masm"})
	assert.ErrorIs(t, err, pprint.ErrUnknownTarget)
}

func TestDefaultSyntax(t *testing.T) {
	s, ok := DefaultSyntax(ELF)
	assert.True(t, ok)
	assert.Equal(t, Intel, s)
	s, ok = DefaultSyntax(MachO)
	assert.True(t, ok)
	assert.Equal(t, ATT, s)
	_, ok = DefaultSyntax("pe")
	assert.False(t, ok)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    pprint.Target
		wantErr bool
	}{
		{"elf/intel", pprint.Target{Format: ELF, Syntax: Intel}, false},
		{"macho/att", pprint.Target{Format: MachO, Syntax: ATT}, false},
		{"elf", pprint.Target{}, true},
		{"/att", pprint.Target{}, true},
		{"elf/att/x", pprint.Target{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := pprint.ParseTarget(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
