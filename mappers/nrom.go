package mappers

import "github.com/ghalstead/nescore/cartridge"

func init() {
	register(0, newNROM)
}

// nrom implements mapper 0: no bank switching at all. PRG-ROM is 16KiB
// or 32KiB and mirrors to fill the CPU's 0x8000-0xFFFF window; CHR is
// a single fixed 8KiB bank.
type nrom struct {
	prgLen int
}

func newNROM(c *cartridge.Cartridge) Mapper {
	return &nrom{prgLen: len(c.PRG)}
}

func (m *nrom) MapPRG(cpuAddr uint16) int {
	return int(cpuAddr-0x8000) % m.prgLen
}

func (m *nrom) MapCHR(ppuAddr uint16) int {
	return int(ppuAddr)
}

func (m *nrom) BankSelect(val uint8) {}

func (m *nrom) Name() string { return "NROM" }
