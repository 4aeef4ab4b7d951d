package magic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"macho 64", []byte{0xcf, 0xfa, 0xed, 0xfe, 0x07, 0x00}, MachO, false},
		{"macho 32", []byte{0xce, 0xfa, 0xed, 0xfe}, MachO, false},
		{"fat", []byte{0xca, 0xfe, 0xba, 0xbe}, MachO, false},
		{"elf", []byte{0x7f, 'E', 'L', 'F', 2, 1, 1}, ELF, false},
		{"script", []byte("#!/bin/sh\n"), "", true},
		{"short", []byte{0x7f}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(writeFile(t, tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Missing(t *testing.T) {
	_, err := Detect(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownFormat)
}

func TestDetect_UnknownFormat(t *testing.T) {
	_, err := Detect(writeFile(t, []byte("MZ\x90\x00")))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
