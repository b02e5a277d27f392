package mos6502

import "testing"

// fakeBus is a flat 64KiB address space with no side effects, enough
// to drive the CPU in isolation the way console.Bus does in the real
// system.
type fakeBus struct {
	mem        [MEM_SIZE]uint8
	nmiPending bool
	tickCycles int
}

func (b *fakeBus) Read(addr uint16) uint8       { return b.mem[addr] }
func (b *fakeBus) Write(addr uint16, val uint8) { b.mem[addr] = val }
func (b *fakeBus) Tick(cycles uint8)            { b.tickCycles += int(cycles) }
func (b *fakeBus) PollNMI() bool {
	p := b.nmiPending
	b.nmiPending = false
	return p
}

func newTestCPU(resetVec uint16) (*CPU, *fakeBus) {
	b := &fakeBus{}
	b.mem[INT_RESET] = uint8(resetVec & 0xFF)
	b.mem[INT_RESET+1] = uint8(resetVec >> 8)
	return New(b), b
}

func loadProgram(b *fakeBus, addr uint16, prog ...uint8) {
	for i, v := range prog {
		b.mem[addr+uint16(i)] = v
	}
}

func TestResetVector(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0xEA) // NOP

	if c.pc != 0x8000 || c.sp != 0xFD || c.status != 0x24 {
		t.Fatalf("after New: pc=0x%04x sp=0x%02x status=0x%02x", c.pc, c.sp, c.status)
	}

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.pc != 0x8001 {
		t.Errorf("pc = 0x%04x, want 0x8001", c.pc)
	}
	if c.acc != 0 || c.x != 0 || c.y != 0 {
		t.Errorf("registers not zero after NOP: A=%d X=%d Y=%d", c.acc, c.x, c.y)
	}
	if b.tickCycles != 2 {
		t.Errorf("tickCycles = %d, want 2", b.tickCycles)
	}
}

func TestLDAFlagEffects(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0xA9, 0x00, 0xA9, 0x80, 0xA9, 0x01, 0x00)

	step := func() {
		if err := c.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
	}

	step()
	if c.acc != 0 || c.status&STATUS_FLAG_ZERO == 0 {
		t.Errorf("after LDA #$00: A=%d status=%02x, want Z set", c.acc, c.status)
	}

	step()
	if c.acc != 0x80 || c.status&STATUS_FLAG_NEGATIVE == 0 {
		t.Errorf("after LDA #$80: A=%d status=%02x, want N set", c.acc, c.status)
	}

	step()
	if c.acc != 0x01 || c.status&STATUS_FLAG_ZERO != 0 || c.status&STATUS_FLAG_NEGATIVE != 0 {
		t.Errorf("after LDA #$01: A=%d status=%02x, want Z=0 N=0", c.acc, c.status)
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	b.mem[0x30FF] = 0x80
	b.mem[0x3000] = 0x50 // wraps within page 0x30, NOT 0x3100
	b.mem[0x3100] = 0x40

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.pc != 0x5080 {
		t.Errorf("pc = 0x%04x, want 0x5080 (page-wrap bug)", c.pc)
	}
}

func TestStackRoundTrip(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0x48, 0x08, 0x28, 0x68) // PHA PHP PLP PLA
	c.acc = 0xAA
	c.status = 0xC3

	for i := 0; i < 4; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("Step() %d = %v", i, err)
		}
		// Right after PLP: B cleared, U set. PLA then updates N/Z.
		if i == 2 && c.status != 0xE3 {
			t.Errorf("P after PLP = 0x%02x, want 0xE3", c.status)
		}
	}

	if c.acc != 0xAA {
		t.Errorf("A = 0x%02x, want 0xAA", c.acc)
	}
	if c.sp != 0xFD {
		t.Errorf("SP = 0x%02x, want 0xFD", c.sp)
	}
	// PHA pushed A first (0x01FD), then PHP pushed P|B|U (0x01FC).
	if got := b.Read(0x01FD); got != 0xAA {
		t.Errorf("0x01FD = 0x%02x, want 0xAA", got)
	}
	if got := b.Read(0x01FC); got != 0xF3 {
		t.Errorf("0x01FC = 0x%02x, want 0xF3", got)
	}
}

func TestNMIService(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0xEA)
	b.mem[INT_NMI] = 0x00
	b.mem[INT_NMI+1] = 0x40 // NMI vector -> 0x4000

	b.nmiPending = true
	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.pc != 0x4000 {
		t.Errorf("pc = 0x%04x, want 0x4000 after NMI", c.pc)
	}
	if c.status&STATUS_FLAG_INTERRUPT_DISABLE == 0 {
		t.Errorf("I flag not set after NMI service")
	}
}

func TestTraceFormat(t *testing.T) {
	c, b := newTestCPU(0x0064)
	loadProgram(b, 0x0064, 0xA2, 0x01, 0xCA, 0x88, 0x00)
	c.acc, c.x, c.y, c.status, c.sp = 1, 2, 3, 0x24, 0xFD

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}

	want := "0064  A2 01     LDX #$01                        A:01 X:02 Y:03 P:24 SP:FD"
	if got := c.Trace(); got != want {
		t.Errorf("Trace() =\n%q\nwant\n%q", got, want)
	}
	if c.pc != 0x0066 {
		t.Errorf("pc = 0x%04x, want 0x0066", c.pc)
	}
}

func TestInvalidOpcode(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0x02) // never assigned
	if err := c.Step(); err == nil {
		t.Errorf("expected error for invalid opcode, got nil")
	}
}

func TestIllegalLAX(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0xA7, 0x10) // LAX $10
	b.mem[0x10] = 0x42

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.acc != 0x42 || c.x != 0x42 {
		t.Errorf("A=%02x X=%02x, want both 0x42", c.acc, c.x)
	}
}

func TestIllegalSAX(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0x87, 0x10) // SAX $10
	c.acc, c.x = 0xF0, 0x0F

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if got := b.Read(0x10); got != 0x00 {
		t.Errorf("mem[0x10] = 0x%02x, want 0x00 (A & X)", got)
	}
}

func TestADCSBCAreInverse(t *testing.T) {
	c, _ := newTestCPU(0x8000)
	c.acc = 0x50
	c.flagsOn(STATUS_FLAG_CARRY)
	c.addWithOverflow(0x10)
	if c.acc != 0x61 {
		t.Fatalf("after ADC, A = 0x%02x, want 0x61 (0x50 + 0x10 + carry)", c.acc)
	}

	// SBC(result, b) with the carry ADC left behind should recover
	// the original accumulator value.
	c.addWithOverflow(^uint8(0x10))
	if c.acc != 0x50 {
		t.Errorf("after SBC, A = 0x%02x, want 0x50", c.acc)
	}
}

func TestStallCyclesDelaysExecution(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0xA9, 0x42) // LDA #$42
	c.StallCycles(3)

	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("Step() %d = %v", i, err)
		}
		if c.acc != 0 {
			t.Fatalf("A changed during stall cycle %d", i)
		}
	}
	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.acc != 0x42 {
		t.Errorf("A = 0x%02x after stall drained, want 0x42", c.acc)
	}
	if b.tickCycles != 3+2 {
		t.Errorf("tickCycles = %d, want 5 (3 stall + 2 for LDA immediate)", b.tickCycles)
	}
}

func TestBRKAndIRQVector(t *testing.T) {
	c, b := newTestCPU(0x8000)
	loadProgram(b, 0x8000, 0x00) // BRK
	b.mem[INT_BRK] = 0x00
	b.mem[INT_BRK+1] = 0x90

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.pc != 0x9000 {
		t.Errorf("pc = 0x%04x, want 0x9000", c.pc)
	}
	if c.status&STATUS_FLAG_INTERRUPT_DISABLE == 0 {
		t.Errorf("I not set after BRK")
	}
	pushedStatus := b.Read(0x01FB) // after PC high (0x01FD) and low (0x01FC)
	if pushedStatus&STATUS_FLAG_BREAK == 0 {
		t.Errorf("pushed status = 0x%02x, want B set", pushedStatus)
	}
}
