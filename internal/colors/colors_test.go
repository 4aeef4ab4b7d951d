package colors

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	on, off := true, false
	tests := []struct {
		name  string
		start bool
		force *bool
		want  bool
	}{
		{"force on", true, &on, true},
		{"force off", false, &off, false},
		{"nil keeps enabled", false, nil, true},
		{"nil keeps disabled", true, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color.NoColor = tt.start
			Init(tt.force)
			assert.Equal(t, tt.want, Enabled())
		})
	}
}

func TestPalette(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	for name, c := range map[string]*color.Color{
		"format":  Format(),
		"syntax":  Syntax(),
		"default": Default(),
		"path":    Path(),
		"count":   Count(),
		"warn":    Warn(),
		"bold":    Bold(),
		"faint":   Faint(),
	} {
		t.Run(name, func(t *testing.T) {
			out := c.Sprint("elf")
			assert.True(t, strings.HasPrefix(out, "\x1b["), "expected ANSI escape, got %q", out)
			assert.Contains(t, out, "elf")
		})
	}

	color.NoColor = true
	assert.Equal(t, "elf", Format().Sprint("elf"))
}
