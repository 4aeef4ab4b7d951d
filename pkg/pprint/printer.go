// Package pprint renders a program model as reassembleable assembly.
//
// A Printer is configured with a target (object format and assembler
// syntax) looked up in a Registry, and a factory for instruction decoders.
// Every call to Print runs an independent session that owns its own
// decoder, so one Printer may serve concurrent jobs over a shared model.
package pprint

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/blacktop/reasm/pkg/insn"
	"github.com/blacktop/reasm/pkg/ir"
)

// DefaultSkipFunctions are the C runtime start-up routines the toolchain
// links in again when the output is reassembled.
var DefaultSkipFunctions = []string{
	"_start",
	"deregister_tm_clones",
	"register_tm_clones",
	"__do_global_dtors_aux",
	"frame_dummy",
	"__libc_csu_fini",
	"__libc_csu_init",
	"_dl_relocate_static_pie",
}

// Config selects the target and what gets printed.
type Config struct {
	Format string
	Syntax string
	// Debug prints everything, including skipped sections and functions,
	// plus addresses and comments.
	Debug         bool
	SkipFunctions []string
}

// NewConfig returns a configuration for format/syntax that skips the
// default start-up functions.
func NewConfig(format, syntax string) *Config {
	return &Config{
		Format:        format,
		Syntax:        syntax,
		SkipFunctions: slices.Clone(DefaultSkipFunctions),
	}
}

func (c *Config) Target() Target {
	return Target{Format: c.Format, Syntax: c.Syntax}
}

// SkipFunction adds name to the functions that are not printed.
func (c *Config) SkipFunction(name string) {
	if !slices.Contains(c.SkipFunctions, name) {
		c.SkipFunctions = append(c.SkipFunctions, name)
	}
}

// KeepFunction removes name from the functions that are not printed.
func (c *Config) KeepFunction(name string) {
	c.SkipFunctions = slices.DeleteFunc(c.SkipFunctions, func(n string) bool { return n == name })
}

// Stats summarizes one printing session.
type Stats struct {
	Target       Target
	Blocks       int
	DataObjects  int
	Instructions int
	Overlaps     int
	// End is the traversal cursor after the last element.
	End   ir.Addr
	Bytes int64
}

type Printer struct {
	registry *Registry
	decoders insn.DecoderFactory
	conf     Config
}

// New validates conf against the registry and returns a Printer.
func New(registry *Registry, decoders insn.DecoderFactory, conf *Config) (*Printer, error) {
	if registry == nil || decoders == nil {
		return nil, errors.New("printer needs a registry and a decoder factory")
	}
	if _, err := registry.Lookup(conf.Target()); err != nil {
		return nil, err
	}
	c := *conf
	c.SkipFunctions = slices.Clone(conf.SkipFunctions)
	return &Printer{registry: registry, decoders: decoders, conf: c}, nil
}

// Print writes m as assembly to w.
func (p *Printer) Print(w io.Writer, m Model) (*Stats, error) {
	syntax, err := p.registry.Lookup(p.conf.Target())
	if err != nil {
		return nil, err
	}
	dir := syntax.Directives()

	decoder, err := p.decoders(dir.Dialect)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s decoder", dir.Dialect)
	}
	defer decoder.Close()

	res, err := newResolver(m, dir, &p.conf)
	if err != nil {
		return nil, err
	}

	cw := &countingWriter{w: w}
	s := &session{
		conf:    &p.conf,
		model:   m,
		syntax:  syntax,
		dir:     dir,
		decoder: decoder,
		res:     res,
		out:     bufio.NewWriter(cw),
		stats:   Stats{Target: p.conf.Target()},
	}
	s.sections.seen = make(map[*ir.Section]bool)

	log.WithFields(log.Fields{
		"target":  s.stats.Target,
		"blocks":  len(m.Blocks()),
		"data":    len(m.DataObjects()),
		"symbols": len(m.Symbols()),
	}).Debug("Printing module")

	if err := s.run(); err != nil {
		s.out.Flush()
		return nil, err
	}
	if err := s.out.Flush(); err != nil {
		return nil, errors.Wrap(err, "failed to write assembly")
	}
	s.stats.Bytes = cw.n
	return &s.stats, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// session is the state of a single printing pass.
type session struct {
	conf    *Config
	model   Model
	syntax  Syntax
	dir     *Directives
	decoder insn.Decoder
	res     *resolver
	out     *bufio.Writer

	sections sectionTracker
	cursor   ir.Addr
	started  bool
	stats    Stats
}

func (s *session) run() error {
	for _, line := range s.dir.Header {
		s.println(line)
	}
	return s.traverse()
}

func (s *session) println(line string) {
	s.out.WriteString(line)
	s.out.WriteByte('\n')
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *session) comment(text string) {
	s.println(s.dir.Comment + " " + text)
}

const barWidth = 35

func (s *session) bar(heavy bool) {
	c := "-"
	if heavy {
		c = "="
	}
	s.println(s.dir.Comment + " " + strings.Repeat(c, barWidth))
}

// printEA starts an element line: indentation plus, in debug mode, the address.
func (s *session) printEA(addr ir.Addr) {
	s.out.WriteString(s.dir.Tab)
	if s.conf.Debug {
		s.printf("%x: ", uint64(addr))
	}
}

func (s *session) printLabels(addr ir.Addr) error {
	labels, err := s.res.Labels(addr)
	if err != nil {
		return errors.Wrapf(err, "labels at %s", addr)
	}
	for _, l := range labels {
		s.println(l + ":")
	}
	return nil
}

// printComments prints, in debug mode only, the comments over [off, off+size).
func (s *session) printComments(off ir.Offset, size uint64) {
	if !s.conf.Debug {
		return
	}
	for _, c := range s.model.Comments(off.ElementID, off.Displacement, off.Displacement+size) {
		if c.Displacement > off.Displacement {
			s.comment(fmt.Sprintf("+%d: %s", c.Displacement-off.Displacement, c.Text))
		} else {
			s.comment(c.Text)
		}
	}
}
