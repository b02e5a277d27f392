package mappers

import "github.com/ghalstead/nescore/cartridge"

func init() {
	register(2, newUxROM)
}

// uxrom implements mapper 2: a single 4-bit bank register switches the
// 16KiB window at 0x8000-0xBFFF; the window at 0xC000-0xFFFF is fixed
// to the last PRG bank. CHR is always RAM on real UxROM boards.
type uxrom struct {
	prg      []byte
	numBanks int
	bank     uint8
}

func newUxROM(c *cartridge.Cartridge) Mapper {
	return &uxrom{
		prg:      c.PRG,
		numBanks: len(c.PRG) / 0x4000,
	}
}

func (m *uxrom) MapPRG(cpuAddr uint16) int {
	if cpuAddr < 0xC000 {
		return int(m.bank)*0x4000 + int(cpuAddr&0x3FFF)
	}
	return (m.numBanks-1)*0x4000 + int(cpuAddr&0x3FFF)
}

func (m *uxrom) MapCHR(ppuAddr uint16) int {
	return int(ppuAddr)
}

func (m *uxrom) BankSelect(val uint8) {
	m.bank = val & 0x0F
}

func (m *uxrom) Name() string { return "UxROM" }
