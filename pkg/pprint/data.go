package pprint

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/blacktop/reasm/pkg/ir"
)

var stringEscapes = map[byte]string{
	'\\': `\\`,
	'"':  `\"`,
	'\'': `\'`,
	'\n': `\n`,
	'\t': `\t`,
	'\v': `\v`,
	'\b': `\b`,
	'\r': `\r`,
	'\a': `\a`,
}

// escapeString quotes data for a string directive. Every zero byte is
// dropped, not only a trailing terminator.
func escapeString(data []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range data {
		if c == 0 {
			continue
		}
		if esc, ok := stringEscapes[c]; ok {
			sb.WriteString(esc)
		} else {
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (s *session) printData(d *ir.DataObject) error {
	if s.res.SkipEA(d.Address) {
		return nil
	}
	s.stats.DataObjects++

	s.printComments(ir.Offset{ElementID: d.ID}, d.Size)
	if err := s.printLabels(d.Address); err != nil {
		return err
	}

	sec := s.model.FindSection(d.Address)
	if sec == nil {
		return errors.Wrapf(ErrNoSection, "at %s", d.Address)
	}

	expr, symbolic := s.model.SymbolicExpression(d.Address)
	if symbolic && s.res.SkipDataSection(sec.Name) {
		// placeholders pointing at stripped code
		if sc, ok := expr.(*ir.SymAddrConst); ok && sc.Sym.HasAddress() && s.res.SkipEA(*sc.Sym.Address) {
			return nil
		}
	}

	switch tag, _ := s.model.Encoding(d.ID); {
	case len(d.Bytes) == 0:
		s.printEA(d.Address)
		s.println(s.dir.Zero + " " + strconv.FormatUint(d.Size, 10))
	case symbolic:
		return s.printSymbolicData(d, expr, tag)
	case tag == "string":
		s.printEA(d.Address)
		s.println(s.dir.String + " " + escapeString(d.Bytes))
	default:
		for i, b := range d.Bytes {
			s.printEA(d.Address + ir.Addr(i))
			s.printf("%s 0x%x\n", s.dir.Byte, b)
		}
	}
	return nil
}

func (s *session) dataDirective(d *ir.DataObject, tag string) (string, error) {
	if tag != "" {
		return "." + tag, nil
	}
	switch d.Size {
	case 1:
		return s.dir.Byte, nil
	case 2:
		return s.dir.Word, nil
	case 4:
		return s.dir.Long, nil
	case 8:
		return s.dir.Quad, nil
	}
	return "", errors.Wrapf(ErrUnknownDataSize, "%d bytes at %s", d.Size, d.Address)
}

func (s *session) printSymbolicData(d *ir.DataObject, expr ir.SymbolicExpression, tag string) error {
	directive, err := s.dataDirective(d, tag)
	if err != nil {
		return err
	}

	var value string
	switch e := expr.(type) {
	case *ir.SymAddrConst:
		if value, err = s.res.SymbolicOperand(e, true); err != nil {
			return errors.Wrapf(err, "data at %s", d.Address)
		}
	case *ir.SymAddrAddr:
		a, err := s.res.Reference(e.Sym1, true)
		if err != nil {
			return errors.Wrapf(err, "data at %s", d.Address)
		}
		b, err := s.res.Reference(e.Sym2, true)
		if err != nil {
			return errors.Wrapf(err, "data at %s", d.Address)
		}
		value = a + "-" + b
	}

	s.printEA(d.Address)
	s.println(directive + " " + value)
	return nil
}
