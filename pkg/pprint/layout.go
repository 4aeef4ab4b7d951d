package pprint

import (
	"fmt"

	"github.com/apex/log"

	"github.com/blacktop/reasm/pkg/ir"
)

// traverse prints blocks and data objects merged in address order, blocks
// first on ties.
func (s *session) traverse() error {
	blocks, data := s.model.Blocks(), s.model.DataObjects()

	var bi, di int
	for bi < len(blocks) || di < len(data) {
		var err error
		if di == len(data) || (bi < len(blocks) && blocks[bi].Address <= data[di].Address) {
			b := blocks[bi]
			bi++
			err = s.visit(b.Address, b.Size, func() error { return s.printBlock(b) })
		} else {
			d := data[di]
			di++
			err = s.visit(d.Address, d.Size, func() error { return s.printData(d) })
		}
		if err != nil {
			return err
		}
	}

	if s.started {
		if err := s.printLabels(s.cursor); err != nil {
			return err
		}
	}
	s.closeSection()
	s.stats.End = s.cursor
	return nil
}

func (s *session) visit(addr ir.Addr, size uint64, print func() error) error {
	if s.started && addr < s.cursor {
		s.comment(fmt.Sprintf("WARNING: found overlapping element at address %s", addr))
		log.Warnf("Skipping element at %s overlapping previous element ending at %s", addr, s.cursor)
		s.stats.Overlaps++
		return nil
	}
	if s.started && addr > s.cursor {
		if err := s.printLabels(s.cursor); err != nil {
			return err
		}
	}
	s.switchSection(s.model.FindSection(addr), addr)
	if err := print(); err != nil {
		return err
	}
	s.cursor = addr + ir.Addr(size)
	s.started = true
	return nil
}
