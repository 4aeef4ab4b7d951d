package magic

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

type Magic uint32

const (
	Magic32    Magic = 0xfeedface
	Magic64    Magic = 0xfeedfacf
	MagicFatBE Magic = 0xcafebabe
	MagicFatLE Magic = 0xbebafeca
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Format names returned by Detect.
const (
	ELF   = "elf"
	MachO = "macho"
)

// ErrUnknownFormat is returned for files that are neither Mach-O nor ELF.
var ErrUnknownFormat = errors.New("unknown binary format")

func readMagic(filePath string) ([4]byte, error) {
	var magic [4]byte
	f, err := os.Open(filePath)
	if err != nil {
		return magic, errors.Wrapf(err, "failed to open file %s", filePath)
	}
	defer f.Close()

	if _, err = io.ReadFull(f, magic[:]); err != nil {
		return magic, errors.Wrap(err, "failed to read magic")
	}
	return magic, nil
}

func isMachO(magic [4]byte) bool {
	switch Magic(binary.LittleEndian.Uint32(magic[:])) {
	case Magic32, Magic64, MagicFatBE, MagicFatLE:
		return true
	}
	return false
}

func isELF(magic [4]byte) bool {
	return bytes.Equal(magic[:], elfMagic)
}

// Detect returns ELF or MachO for the file at filePath.
func Detect(filePath string) (string, error) {
	magic, err := readMagic(filePath)
	if err != nil {
		return "", err
	}
	switch {
	case isMachO(magic):
		return MachO, nil
	case isELF(magic):
		return ELF, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%s", filePath)
}
