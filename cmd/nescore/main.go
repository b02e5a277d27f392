// Command nescore runs an iNES ROM in an ebiten window.
//
//	nescore [-palette <file>] <rom.nes>
//
// Flags must come before the ROM path.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghalstead/nescore/cartridge"
	"github.com/ghalstead/nescore/console"
	"github.com/ghalstead/nescore/ppu"
	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
)

var paletteFile = flag.String("palette", "", "optional RRGGBB-per-line palette file overriding the built-in NES palette")

func main() {
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() != 1 {
		glog.Exitf("usage: nescore [-palette <file>] <rom.nes>")
	}

	cart, err := cartridge.Load(flag.Arg(0))
	if err != nil {
		glog.Exitf("nescore: %v", err)
	}

	if *paletteFile != "" {
		if err := loadPalette(*paletteFile); err != nil {
			glog.Exitf("nescore: %v", err)
		}
	}

	bus, err := console.New(cart)
	if err != nil {
		glog.Exitf("nescore: %v", err)
	}

	done := make(chan struct{})
	go bus.Run(done)

	if err := ebiten.RunGame(bus); err != nil {
		glog.Errorf("nescore: %v", err)
	}
	close(done)
}

// loadPalette overrides ppu.SystemPalette from a convenience text
// file of up to 64 "RRGGBB" hex lines, one color per line.
func loadPalette(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("couldn't open palette file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	i := 0
	for sc.Scan() {
		if i >= len(ppu.SystemPalette) {
			return fmt.Errorf("palette file %q has more than %d entries", path, len(ppu.SystemPalette))
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if len(line) != 6 {
			return fmt.Errorf("palette file %q line %d: want 6 hex digits, got %q", path, i+1, line)
		}
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return fmt.Errorf("palette file %q line %d: %w", path, i+1, err)
		}
		ppu.SystemPalette[i] = [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}
		i++
	}
	return sc.Err()
}
