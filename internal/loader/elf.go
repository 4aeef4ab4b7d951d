package loader

import (
	"debug/elf"
	"strings"

	"github.com/pkg/errors"

	"github.com/blacktop/reasm/internal/magic"
	"github.com/blacktop/reasm/pkg/ir"
)

func readELF(path string) (*image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ELF file")
	}
	defer f.Close()

	if f.Machine != elf.EM_X86_64 {
		return nil, errors.Errorf("unsupported machine %s", f.Machine)
	}

	img := &image{format: magic.ELF}

	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_ALLOC == 0 || sec.Size == 0 || sec.Addr == 0 {
			continue
		}
		s := section{
			Section: ir.Section{
				Name:    sec.Name,
				Address: ir.Addr(sec.Addr),
				Size:    sec.Size,
				Flags:   ir.SectionAlloc,
			},
			strings: sec.Flags&elf.SHF_STRINGS != 0 || strings.HasPrefix(sec.Name, ".rodata.str"),
		}
		if sec.Flags&elf.SHF_WRITE != 0 {
			s.Flags |= ir.SectionWrite
		}
		if sec.Flags&elf.SHF_EXECINSTR != 0 {
			s.Flags |= ir.SectionExec
		}
		if sec.Type == elf.SHT_NOBITS {
			s.Flags |= ir.SectionNoBits
		} else {
			if s.data, err = sec.Data(); err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", sec.Name)
			}
		}
		img.sections = append(img.sections, s)
	}

	// stripped binaries have no .symtab
	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, errors.Wrap(err, "failed to read symbols")
	}
	for _, sym := range syms {
		typ := elf.ST_TYPE(sym.Info)
		if typ == elf.STT_SECTION || typ == elf.STT_FILE || typ == elf.STT_TLS {
			continue
		}
		defined := sym.Section != elf.SHN_UNDEF && sym.Section != elf.SHN_ABS
		img.symbols = append(img.symbols, symbol{name: sym.Name, addr: sym.Value, defined: defined})
		if defined && typ == elf.STT_FUNC {
			img.entries = append(img.entries, ir.Addr(sym.Value))
		}
	}

	dyn, err := f.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, errors.Wrap(err, "failed to read dynamic symbols")
	}
	for _, sym := range dyn {
		if sym.Section == elf.SHN_UNDEF {
			img.symbols = append(img.symbols, symbol{name: sym.Name})
		}
	}

	if f.Entry != 0 {
		img.entries = append(img.entries, ir.Addr(f.Entry))
	}

	return img, nil
}
