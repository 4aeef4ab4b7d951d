package pprint

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Target is an (object format, assembler syntax) pair such as elf/intel.
type Target struct {
	Format string `json:"format" yaml:"format"`
	Syntax string `json:"syntax" yaml:"syntax"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Format, t.Syntax)
}

// ParseTarget parses "format/syntax".
func ParseTarget(s string) (Target, error) {
	format, syntax, ok := strings.Cut(s, "/")
	if ok && format != "" && syntax != "" && !strings.Contains(syntax, "/") {
		return Target{Format: format, Syntax: syntax}, nil
	}
	return Target{}, errors.Errorf("invalid target %q (expected format/syntax)", s)
}

// Factory creates a fresh syntax backend.
type Factory func() Syntax

type Registration struct {
	Target  Target
	Factory Factory
}

// Registry maps targets to backend factories. It is immutable once built.
type Registry struct {
	factories map[Target]Factory
	targets   []Target
}

func NewRegistry(regs ...Registration) (*Registry, error) {
	r := &Registry{factories: make(map[Target]Factory, len(regs))}
	for _, reg := range regs {
		if reg.Factory == nil {
			return nil, errors.Errorf("target %s: nil factory", reg.Target)
		}
		if _, dup := r.factories[reg.Target]; dup {
			return nil, errors.Errorf("target %s registered twice", reg.Target)
		}
		r.factories[reg.Target] = reg.Factory
		r.targets = append(r.targets, reg.Target)
	}
	slices.SortFunc(r.targets, func(a, b Target) int {
		return cmp.Or(cmp.Compare(a.Format, b.Format), cmp.Compare(a.Syntax, b.Syntax))
	})
	return r, nil
}

// Lookup creates the backend registered for t.
func (r *Registry) Lookup(t Target) (Syntax, error) {
	f, ok := r.factories[t]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTarget, "%s", t)
	}
	return f(), nil
}

// Targets returns the registered targets, sorted.
func (r *Registry) Targets() []Target {
	return slices.Clone(r.targets)
}

// Formats returns the distinct registered formats, sorted.
func (r *Registry) Formats() []string {
	var formats []string
	for _, t := range r.targets {
		if !slices.Contains(formats, t.Format) {
			formats = append(formats, t.Format)
		}
	}
	return formats
}
