package loader

import (
	"strings"

	"github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/types"
	"github.com/pkg/errors"

	"github.com/blacktop/reasm/internal/magic"
	"github.com/blacktop/reasm/pkg/ir"
)

// N_STAB debugging symbols
const nStab = 0xe0

func isCode(flags types.SectionFlag) bool {
	return flags.IsPureInstructions() || flags.IsSomeInstructions()
}

// machoFlags maps the header of sec onto section flags.
func machoFlags(sec *types.Section) ir.SectionFlag {
	flags := ir.SectionAlloc
	if isCode(sec.Flags) {
		flags |= ir.SectionExec
	}
	if strings.HasPrefix(sec.Seg, "__DATA") {
		flags |= ir.SectionWrite
	}
	if sec.Flags.IsZerofill() {
		flags |= ir.SectionNoBits
	}
	return flags
}

func readMachO(path string) (*image, error) {
	m, err := macho.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse MachO")
	}
	defer m.Close()

	img := &image{format: magic.MachO}

	for _, sec := range m.Sections {
		if sec.Size == 0 {
			continue
		}
		s := section{
			Section: ir.Section{
				Name:    sec.Seg + "," + sec.Name,
				Address: ir.Addr(sec.Addr),
				Size:    sec.Size,
				Flags:   machoFlags(sec),
			},
			strings: sec.Flags.IsCstringLiterals(),
		}
		if !s.Flags.NoBits() {
			if s.data, err = sec.Data(); err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", s.Name)
			}
		}
		img.sections = append(img.sections, s)
	}

	if m.Symtab != nil {
		for _, sym := range m.Symtab.Syms {
			if uint8(sym.Type)&nStab != 0 {
				continue
			}
			img.symbols = append(img.symbols, symbol{
				name:    sym.Name,
				addr:    sym.Value,
				defined: sym.Sect > 0,
			})
			// symbols in code sections start functions even without LC_FUNCTION_STARTS
			if sym.Sect > 0 && int(sym.Sect) <= len(m.Sections) && isCode(m.Sections[sym.Sect-1].Flags) {
				img.entries = append(img.entries, ir.Addr(sym.Value))
			}
		}
	}

	if m.FunctionStarts() != nil {
		for _, fn := range m.GetFunctions() {
			img.entries = append(img.entries, ir.Addr(fn.StartAddr))
		}
	}

	return img, nil
}
