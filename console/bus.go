// Package console wires cartridge, mapper, CPU, PPU and joypad
// together into a runnable NES: the CPU-visible address space, the
// CPU↔PPU tick coupling, OAMDMA, and the ebiten.Game host loop.
package console

import (
	"fmt"
	"sync"

	"github.com/ghalstead/nescore/cartridge"
	"github.com/ghalstead/nescore/joypad"
	"github.com/ghalstead/nescore/mappers"
	"github.com/ghalstead/nescore/mos6502"
	"github.com/ghalstead/nescore/ppu"
	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
)

const (
	ramSize = 0x800 // 2KB built-in RAM

	maxBaseRAM     = 0x1FFF // mirrors 0x0000-0x07FF
	maxPPUMirrored = 0x3FFF // PPU registers mirrored every 8 bytes
	maxIORegisters = 0x4020 // APU + joypads
	maxSRAM        = 0x6000 // cartridge SRAM, not modeled

	oamDMAReg  = 0x4014
	joypad1Reg = 0x4016
	joypad2Reg = 0x4017
)

// fatalf aborts the process on a CPU protocol violation. It is a var
// so tests can substitute a non-exiting stand-in for glog.Fatalf.
var fatalf = glog.Fatalf

// Bus is the NES's central address-decode and timing hub. It
// implements mos6502.Bus, ppu.Bus and ebiten.Game.
type Bus struct {
	cart   *cartridge.Cartridge
	mapper mappers.Mapper
	cpu    *mos6502.CPU
	ppu    *ppu.PPU

	ram [ramSize]uint8

	Pad1, Pad2 joypad.Joypad

	mu    sync.Mutex
	frame []byte // latest completed RGB frame, Width*Height*3
	img   *ebiten.Image
}

// New constructs a Bus for cart, selects its mapper, and wires up the
// CPU/PPU. It does not start emulation; call Run in its own goroutine
// alongside ebiten.RunGame.
func New(cart *cartridge.Cartridge) (*Bus, error) {
	m, err := mappers.New(cart)
	if err != nil {
		return nil, fmt.Errorf("console: couldn't select mapper: %w", err)
	}

	b := &Bus{
		cart:   cart,
		mapper: m,
		frame:  make([]byte, ppu.Width*ppu.Height*3),
		img:    ebiten.NewImage(ppu.Width, ppu.Height),
	}
	b.cpu = mos6502.New(b)
	b.ppu = ppu.New(b, cart.Mirroring)

	ebiten.SetWindowSize(ppu.Width*2, ppu.Height*2)
	ebiten.SetWindowTitle("nescore")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return b, nil
}

// ReadCHR implements ppu.Bus.
func (b *Bus) ReadCHR(addr uint16) uint8 {
	off := b.mapper.MapCHR(addr)
	if off < 0 || off >= len(b.cart.CHR) {
		return 0
	}
	return b.cart.CHR[off]
}

// WriteCHR implements ppu.Bus. Writes are discarded for CHR-ROM
// cartridges.
func (b *Bus) WriteCHR(addr uint16, val uint8) {
	if !b.cart.HasCHRRAM() {
		return
	}
	off := b.mapper.MapCHR(addr)
	if off >= 0 && off < len(b.cart.CHR) {
		b.cart.CHR[off] = val
	}
}

// Read implements mos6502.Bus per the CPU memory map.
// https://www.nesdev.org/wiki/CPU_memory_map
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr <= maxBaseRAM:
		return b.ram[addr&0x07FF]
	case addr <= maxPPUMirrored:
		return b.ppu.ReadReg(0x2000 + addr&0x0007)
	case addr == joypad1Reg:
		return b.Pad1.Read()
	case addr == joypad2Reg:
		return b.Pad2.Read()
	case addr < maxIORegisters:
		return 0 // APU registers, not modeled
	case addr < maxSRAM:
		return 0 // cartridge expansion space, not modeled
	case addr <= 0x7FFF:
		return 0 // cartridge SRAM, not modeled
	default:
		off := b.mapper.MapPRG(addr)
		if off < 0 || off >= len(b.cart.PRG) {
			return 0
		}
		return b.cart.PRG[off]
	}
}

// Write implements mos6502.Bus per the CPU memory map.
func (b *Bus) Write(addr uint16, val uint8) {
	switch {
	case addr <= maxBaseRAM:
		b.ram[addr&0x07FF] = val
	case addr <= maxPPUMirrored:
		reg := 0x2000 + addr&0x0007
		if reg == ppu.PPUSTATUS {
			fatalf("console: illegal CPU write to PPUSTATUS ($2002), addr=0x%04x val=0x%02x", addr, val)
			return
		}
		b.ppu.WriteReg(reg, val)
	case addr == oamDMAReg:
		b.doOAMDMA(val)
	case addr == joypad1Reg:
		// The strobe line is wired to both controllers.
		b.Pad1.Write(val)
		b.Pad2.Write(val)
	case addr < maxIORegisters:
		// Remaining APU registers and the $4017 frame counter, not modeled.
	case addr < maxSRAM:
		// Cartridge expansion space, not modeled.
	case addr <= 0x7FFF:
		// Cartridge SRAM, not modeled.
	default:
		b.mapper.BankSelect(val)
	}
}

func (b *Bus) doOAMDMA(page uint8) {
	base := uint16(page) << 8
	data := make([]uint8, 256)
	for i := range data {
		data[i] = b.Read(base + uint16(i))
	}
	b.ppu.WriteOAMDMA(data)

	stall := 513
	if b.cpu != nil {
		b.cpu.StallCycles(stall)
	}
}

// Tick implements mos6502.Bus: it advances the PPU by 3 dots per CPU
// cycle and snapshots a completed frame under lock when one rolls
// over.
func (b *Bus) Tick(cycles uint8) {
	for i := uint8(0); i < cycles; i++ {
		if b.ppu.Tick(3) {
			b.captureFrame()
		}
	}
}

func (b *Bus) captureFrame() {
	buf := make([]byte, ppu.Width*ppu.Height*3)
	b.ppu.Render(buf)

	b.mu.Lock()
	b.frame = buf
	b.mu.Unlock()
}

// PollNMI implements mos6502.Bus.
func (b *Bus) PollNMI() bool { return b.ppu.TakePendingNMI() }

// Run drives the emulation at full speed until done is closed. Call
// it from its own goroutine; ebiten's Update only samples input and
// never steps the CPU, matching the teacher's split between emulation
// and host draw rate.
func (b *Bus) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
			if err := b.cpu.Step(); err != nil {
				glog.Errorf("console: cpu step failed, halting: %v", err)
				return
			}
		}
	}
}

// Layout implements ebiten.Game, forcing ebiten to scale the fixed
// NES resolution rather than letting the emulated picture resize.
func (b *Bus) Layout(int, int) (int, int) { return ppu.Width, ppu.Height }

// Update implements ebiten.Game: it samples host input into the
// joypads. Emulation itself runs on the Run goroutine.
func (b *Bus) Update() error {
	for btn, key := range padKeys {
		b.Pad1.SetPressed(btn, ebiten.IsKeyPressed(key))
	}
	return nil
}

// Draw implements ebiten.Game, blitting the most recently completed
// frame.
func (b *Bus) Draw(screen *ebiten.Image) {
	b.mu.Lock()
	frame := b.frame
	b.mu.Unlock()

	rgba := make([]byte, ppu.Width*ppu.Height*4)
	for i := 0; i < ppu.Width*ppu.Height; i++ {
		rgba[i*4], rgba[i*4+1], rgba[i*4+2], rgba[i*4+3] = frame[i*3], frame[i*3+1], frame[i*3+2], 0xFF
	}
	b.img.WritePixels(rgba)
	screen.DrawImage(b.img, nil)
}

// padKeys maps joypad buttons to the host keys the teacher's own
// controller polling used.
var padKeys = map[joypad.Button]ebiten.Key{
	joypad.A:      ebiten.KeyA,
	joypad.B:      ebiten.KeyB,
	joypad.Select: ebiten.KeySpace,
	joypad.Start:  ebiten.KeyEnter,
	joypad.Up:     ebiten.KeyUp,
	joypad.Down:   ebiten.KeyDown,
	joypad.Left:   ebiten.KeyLeft,
	joypad.Right:  ebiten.KeyRight,
}
