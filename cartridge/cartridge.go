// Package cartridge implements support for the NES (iNES) ROM format and
// the immutable PRG/CHR image a mapper translates addresses against.
// https://www.nesdev.org/wiki/INES
package cartridge

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Mirroring identifies how the PPU's four logical nametables are laid
// out across the console's 2KiB of nametable RAM.
type Mirroring uint8

const (
	Horizontal Mirroring = iota
	Vertical
	FourScreen
)

func (m Mirroring) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case FourScreen:
		return "four-screen"
	}
	return "unknown"
}

const (
	headerSize     = 16
	trainerSize    = 512
	prgBlockSize   = 16384
	chrBlockSize   = 8192
	flag6Mirroring = 1 << 0
	flag6Battery   = 1 << 1
	flag6Trainer   = 1 << 2
	flag6FourScrn  = 1 << 3
)

var magic = []byte{0x4E, 0x45, 0x53, 0x1A}

// Cartridge holds a loaded iNES image. It is immutable after Load: the
// PRG/CHR byte slices never change size or shift once parsed, though
// CHR contents may be written through the PPU's pattern-table bus
// (console.Bus.WriteCHR) when chrIsRAM is true.
type Cartridge struct {
	PRG       []byte // length is a multiple of 16 KiB
	CHR       []byte // length is a multiple of 8 KiB; for CHR-RAM (see HasCHRRAM) a zeroed 8 KiB buffer
	MapperID  uint8
	Mirroring Mirroring
	chrIsRAM  bool
}

// HasCHRRAM reports whether this cartridge uses CHR-RAM (the header
// advertised zero CHR-ROM pages) rather than CHR-ROM.
func (c *Cartridge) HasCHRRAM() bool {
	return c.chrIsRAM
}

// Load reads an iNES file from disk.
func Load(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cartridge: couldn't open %q: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes an iNES image from r. It is the core of Load, split
// out so tests and tools can feed an in-memory buffer directly.
func Parse(r io.Reader) (*Cartridge, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("cartridge: couldn't read header: %w", err)
	}

	if !bytes.Equal(hdr[0:4], magic) {
		return nil, fmt.Errorf("cartridge: bad magic %v, not an iNES image", hdr[0:4])
	}

	prgPages := hdr[4]
	chrPages := hdr[5]
	flags6 := hdr[6]
	flags7 := hdr[7]

	if flags6&flag6Trainer != 0 {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, fmt.Errorf("cartridge: couldn't skip trainer: %w", err)
		}
	}

	prg := make([]byte, prgBlockSize*int(prgPages))
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("cartridge: couldn't read PRG-ROM (%d bytes): %w", len(prg), err)
	}

	chrIsRAM := chrPages == 0
	chrLen := chrBlockSize * int(chrPages)
	if chrIsRAM {
		chrLen = chrBlockSize
	}
	chr := make([]byte, chrLen)
	if !chrIsRAM {
		if _, err := io.ReadFull(r, chr); err != nil {
			return nil, fmt.Errorf("cartridge: couldn't read CHR-ROM (%d bytes): %w", len(chr), err)
		}
	}

	return &Cartridge{
		PRG:       prg,
		CHR:       chr,
		chrIsRAM:  chrIsRAM,
		MapperID:  (flags6&0xF0)>>4 | flags7&0xF0,
		Mirroring: mirroringOf(flags6),
	}, nil
}

func mirroringOf(flags6 byte) Mirroring {
	switch {
	case flags6&flag6FourScrn != 0:
		return FourScreen
	case flags6&flag6Mirroring != 0:
		return Vertical
	default:
		return Horizontal
	}
}
