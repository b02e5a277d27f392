// Package mappers implements the cartridge-side address translation
// circuitry referenced numerically by iNES ROM files. A mapper never
// owns PRG/CHR bytes itself; it only translates a CPU or PPU address
// into an offset within the Cartridge's immutable PRG/CHR slices.
package mappers

import (
	"fmt"

	"github.com/ghalstead/nescore/cartridge"
)

// Mapper is the capability a cartridge's bank-switching circuit
// exposes to the rest of the system.
type Mapper interface {
	// MapPRG translates a CPU address in 0x8000-0xFFFF into an
	// offset within the cartridge's PRG-ROM.
	MapPRG(cpuAddr uint16) int
	// MapCHR translates a PPU address in 0x0000-0x1FFF into an
	// offset within the cartridge's CHR-ROM/RAM.
	MapCHR(ppuAddr uint16) int
	// BankSelect handles a CPU write to 0x8000-0xFFFF, which on
	// bank-switching boards selects the active PRG bank.
	BankSelect(val uint8)
	// Name returns the human-readable mapper name, for logging.
	Name() string
}

// factory constructs a Mapper bound to the given cartridge.
type factory func(*cartridge.Cartridge) Mapper

var registry = map[uint8]factory{}

func register(id uint8, f factory) {
	if _, ok := registry[id]; ok {
		panic(fmt.Sprintf("mappers: mapper id %d already registered", id))
	}
	registry[id] = f
}

// New returns a Mapper for the cartridge's advertised mapper id, or an
// error if the id isn't one this implementation supports.
func New(c *cartridge.Cartridge) (Mapper, error) {
	f, ok := registry[c.MapperID]
	if !ok {
		return nil, fmt.Errorf("mappers: unsupported mapper id %d", c.MapperID)
	}
	return f(c), nil
}
