package insn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstruction_Classify(t *testing.T) {
	tests := []struct {
		name       string
		insn       Instruction
		branch     bool
		stringMove bool
	}{
		{"jmp", Instruction{Mnemonic: "jmp", Groups: []Group{GroupJump}}, true, false},
		{"call", Instruction{Mnemonic: "call", Groups: []Group{GroupCall}}, true, false},
		{"movsb", Instruction{Mnemonic: "movsb", ID: MOVSB}, false, true},
		{"movsd sse2", Instruction{Mnemonic: "movsd", ID: MOVSD, Groups: []Group{GroupSSE2}}, false, true},
		{"nop", Instruction{Mnemonic: "nop", ID: NOP}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.branch, tt.insn.IsBranch())
			assert.Equal(t, tt.stringMove, tt.insn.IsStringMove())
		})
	}
}

func TestOperandKind_String(t *testing.T) {
	assert.Equal(t, "register", Register.String())
	assert.Equal(t, "memory", Memory.String())
	assert.Equal(t, "invalid", OperandKind(42).String())
	assert.Equal(t, "att", ATT.String())
	assert.Equal(t, "intel", Intel.String())
}
