package joypad

import "testing"

func TestReadDrainsShiftRegisterInOrder(t *testing.T) {
	j := &Joypad{}
	j.SetPressed(A, true)
	j.SetPressed(Start, true)
	j.Write(0x01) // strobe high
	j.Write(0x00) // strobe low, reset index

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if got := j.Read(); got != w {
			t.Errorf("Read() #%d = %d, want %d", i, got, w)
		}
	}
	if got := j.Read(); got != 1 {
		t.Errorf("Read() past bit 7 = %d, want 1", got)
	}
}

func TestStrobeHighAlwaysReportsA(t *testing.T) {
	j := &Joypad{}
	j.Write(0x01)
	j.SetPressed(A, true)
	if got := j.Read(); got != 1 {
		t.Errorf("Read() while strobed with A held = %d, want 1", got)
	}
	j.SetPressed(A, false)
	if got := j.Read(); got != 0 {
		t.Errorf("Read() while strobed with A released = %d, want 0", got)
	}
}
