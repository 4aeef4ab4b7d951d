// Package loader imports Mach-O and ELF binaries into a program model.
//
// The import is shallow: sections are carved into code blocks at function
// entries and into data objects at symbol addresses. No instruction operand
// is symbolized, so the printed output reproduces the input bytes.
package loader

import (
	"bytes"
	"path/filepath"
	"slices"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/blacktop/reasm/internal/magic"
	"github.com/blacktop/reasm/pkg/ir"
)

// encoding tag of NUL-terminated strings carved from string sections
const stringEncoding = "string"

type section struct {
	ir.Section
	data    []byte // nil for zero-fill
	strings bool   // section holds NUL-terminated strings
}

type symbol struct {
	name    string
	addr    uint64
	defined bool
}

// image is the format-independent view of a binary.
type image struct {
	name     string
	format   string
	sections []section
	symbols  []symbol
	entries  []ir.Addr
}

// Open imports the Mach-O or ELF binary at path.
func Open(path string) (*ir.Module, error) {
	format, err := magic.Detect(path)
	if err != nil {
		return nil, err
	}

	var img *image
	switch format {
	case magic.MachO:
		img, err = readMachO(path)
	case magic.ELF:
		img, err = readELF(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	img.name = filepath.Base(path)
	return img.build()
}

func (img *image) build() (*ir.Module, error) {
	m := ir.NewModule(img.name, img.format)

	var sections []section
	for _, sec := range img.sections {
		if err := m.AddSection(&sec.Section); err != nil {
			log.WithField("section", sec.Name).Warnf("skipping: %v", err)
			continue
		}
		sections = append(sections, sec)
	}

	for _, sym := range img.symbols {
		if sym.name == "" {
			continue
		}
		if sym.defined {
			m.AddSymbolAt(sym.name, ir.Addr(sym.addr))
		} else if len(m.FindSymbolsByName(sym.name)) == 0 {
			m.AddSymbol(sym.name, nil)
		}
	}

	entries := lo.Filter(img.entries, func(addr ir.Addr, _ int) bool {
		sec := m.FindSection(addr)
		return sec != nil && sec.Flags.Exec()
	})
	m.SetFunctionEntries(entries...)

	for _, sec := range sections {
		if err := img.carve(m, sec); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"sections": len(m.Sections()),
		"symbols":  len(m.Symbols()),
		"blocks":   len(m.Blocks()),
		"data":     len(m.DataObjects()),
	}).Debugf("imported %s", img.name)

	return m, nil
}

// cuts returns the sorted split points of sec, always starting at its address.
func (img *image) cuts(m *ir.Module, sec section) []ir.Addr {
	cuts := []ir.Addr{sec.Address}
	if sec.Flags.Exec() {
		for _, addr := range m.FunctionEntries() {
			if sec.Contains(addr) {
				cuts = append(cuts, addr)
			}
		}
	} else {
		for _, sym := range img.symbols {
			if addr := ir.Addr(sym.addr); sym.defined && sec.Contains(addr) {
				cuts = append(cuts, addr)
			}
		}
	}
	if sec.strings && sec.data != nil {
		for off := 0; ; {
			i := bytes.IndexByte(sec.data[off:], 0)
			if i < 0 {
				break
			}
			off += i + 1
			if uint64(off) < sec.Size {
				cuts = append(cuts, sec.Address+ir.Addr(off))
			}
		}
	}
	slices.Sort(cuts)
	return slices.Compact(cuts)
}

func (img *image) carve(m *ir.Module, sec section) error {
	cuts := img.cuts(m, sec)
	for i, start := range cuts {
		end := sec.End()
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		size := uint64(end - start)

		if sec.data == nil {
			m.AddZeroData(start, size)
			continue
		}
		off := uint64(start - sec.Address)
		if off+size > uint64(len(sec.data)) {
			return errors.Errorf("section %s: %d bytes of data for %d byte section", sec.Name, len(sec.data), sec.Size)
		}
		piece := sec.data[off : off+size]

		switch {
		case sec.Flags.Exec():
			m.AddBlock(start, piece)
		case sec.strings && isCString(piece):
			d := m.AddData(start, piece)
			m.SetEncoding(d.ID, stringEncoding)
		default:
			m.AddData(start, piece)
		}
	}
	return nil
}

// isCString reports whether b is printable text followed by a single NUL.
func isCString(b []byte) bool {
	if len(b) < 2 || b[len(b)-1] != 0 {
		return false
	}
	for _, c := range b[:len(b)-1] {
		if (c < 0x20 && c != '\n' && c != '\t' && c != '\r') || c >= 0x7f {
			return false
		}
	}
	return true
}
