//go:build !cgo

package capstone

import (
	"github.com/pkg/errors"

	"github.com/blacktop/reasm/pkg/insn"
)

// New fails when built without cgo; capstone is a C library.
func New(dialect insn.Dialect) (insn.Decoder, error) {
	return nil, errors.Errorf("capstone %s decoder requires a cgo build", dialect)
}
