package pprint

import (
	"fmt"
	"math/bits"

	"github.com/blacktop/reasm/pkg/ir"
)

type sectionTracker struct {
	open *ir.Section
	seen map[*ir.Section]bool
}

// alignmentFor returns the largest of 16, 8, 4 and 2 dividing addr, or 0.
func alignmentFor(addr ir.Addr) uint64 {
	for _, n := range []uint64{16, 8, 4, 2} {
		if uint64(addr)%n == 0 {
			return n
		}
	}
	return 0
}

func (s *session) alignDirective(n uint64) string {
	if s.dir.AlignLog2 {
		return fmt.Sprintf("%s %d", s.dir.Align, bits.TrailingZeros64(n))
	}
	return fmt.Sprintf("%s %d", s.dir.Align, n)
}

func (s *session) printAlignment(addr ir.Addr) {
	if n := alignmentFor(addr); n != 0 {
		s.println(s.alignDirective(n))
	}
}

func (s *session) canonicalDirective(sec *ir.Section) (string, bool) {
	switch sec.Name {
	case s.dir.Text:
		return s.dir.TextDirective, true
	case s.dir.Data:
		return s.dir.DataDirective, true
	case s.dir.BSS:
		return s.dir.BSSDirective, true
	}
	return "", false
}

// switchSection closes the open section if sec differs from it, then opens
// sec, printing its header the first time it is reached.
func (s *session) switchSection(sec *ir.Section, addr ir.Addr) {
	if sec == s.sections.open {
		return
	}
	s.closeSection()
	s.sections.open = sec
	if sec == nil || s.sections.seen[sec] {
		return
	}
	s.sections.seen[sec] = true
	s.printSectionHeader(sec, addr)
}

func (s *session) closeSection() {
	if s.sections.open != nil {
		s.printSectionFooter(s.sections.open)
	}
	s.sections.open = nil
}

func (s *session) printSectionHeader(sec *ir.Section, addr ir.Addr) {
	if s.res.SkipSection(sec.Name) {
		return
	}
	s.println("")
	s.bar(true)
	if directive, ok := s.canonicalDirective(sec); ok {
		s.println(directive)
	} else {
		s.println(s.syntax.SectionHeader(sec))
	}
	if s.res.SkipDataSection(sec.Name) {
		s.println(s.alignDirective(8))
	} else {
		s.printAlignment(addr)
	}
	s.bar(true)
	s.println("")
}

func (s *session) printSectionFooter(sec *ir.Section) {
	if s.res.SkipSection(sec.Name) {
		return
	}
	if _, ok := s.canonicalDirective(sec); ok {
		return
	}
	s.bar(true)
	s.println(s.syntax.SectionFooter(sec))
	s.bar(true)
}
