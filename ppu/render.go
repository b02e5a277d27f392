package ppu

// Render fills fb (a Width*Height*3 byte RGB buffer) with the current
// frame: background tiles resolved through scroll + mirroring, then
// sprites painted in reverse OAM order (entry 63 first) so OAM entry 0
// ends up on top.
func (p *PPU) Render(fb []byte) {
	if len(fb) < Width*Height*3 {
		panic("ppu: framebuffer too small")
	}

	if p.mask&maskShowBackground != 0 {
		p.renderBackground(fb)
	} else {
		bg := SystemPalette[p.readPalette(0x3F00)]
		for i := 0; i < Width*Height; i++ {
			fb[i*3], fb[i*3+1], fb[i*3+2] = bg[0], bg[1], bg[2]
		}
	}

	if p.mask&maskShowSprites != 0 {
		p.renderSprites(fb)
	}
}

func (p *PPU) renderBackground(fb []byte) {
	baseNtX := int(p.ctrl&0x01) * Width
	baseNtY := int((p.ctrl>>1)&0x01) * Height
	bgTableBase := uint16(0)
	if p.ctrl&ctrlBgTable != 0 {
		bgTableBase = 0x1000
	}

	for sy := 0; sy < Height; sy++ {
		for sx := 0; sx < Width; sx++ {
			vx := (baseNtX + sx + int(p.scrollX)) % 512
			vy := (baseNtY + sy + int(p.scrollY)) % 480

			ntX, ntY := vx/Width, vy/Height
			logicalTable := ntY*2 + ntX
			localX, localY := vx%Width, vy%Height
			tileCol, tileRow := localX/8, localY/8

			ntBase := uint16(0x2000 + logicalTable*0x400)
			tileAddr := ntBase + uint16(tileRow*32+tileCol)
			tileIndex := p.readVRAM(tileAddr)

			attrAddr := ntBase + 0x3C0 + uint16((tileRow/4)*8+(tileCol/4))
			attrByte := p.readVRAM(attrAddr)
			quadX, quadY := (tileCol%4)/2, (tileRow%4)/2
			shift := uint8((quadY*2+quadX)*2)
			subpalette := (attrByte >> shift) & 0x03

			fineX, fineY := localX%8, localY%8
			chrAddr := bgTableBase + uint16(tileIndex)*16 + uint16(fineY)
			lowByte := p.bus.ReadCHR(chrAddr)
			highByte := p.bus.ReadCHR(chrAddr + 8)
			bit := uint(7 - fineX)
			colorIndex := ((highByte>>bit)&1)<<1 | ((lowByte >> bit) & 1)

			var rgb [3]uint8
			if colorIndex == 0 {
				rgb = SystemPalette[p.readPalette(0x3F00)]
			} else {
				rgb = SystemPalette[p.readPalette(0x3F00+uint16(subpalette)*4+uint16(colorIndex))]
			}

			off := (sy*Width + sx) * 3
			fb[off], fb[off+1], fb[off+2] = rgb[0], rgb[1], rgb[2]
		}
	}
}

func (p *PPU) renderSprites(fb []byte) {
	spriteTableBase := uint16(0)
	if p.ctrl&ctrlSpriteTable != 0 {
		spriteTableBase = 0x1000
	}

	for i := 63; i >= 0; i-- {
		base := i * 4
		y := p.oam[base]
		tileIdx := uint16(p.oam[base+1])
		attrs := decodeAttrs(p.oam[base+2])
		x := p.oam[base+3]

		for row := 0; row < 8; row++ {
			ty := row
			if attrs.flipV {
				ty = 7 - row
			}
			screenY := int(y) + row
			if screenY < 0 || screenY >= Height {
				continue
			}

			chrAddr := spriteTableBase + tileIdx*16 + uint16(ty)
			lowByte := p.bus.ReadCHR(chrAddr)
			highByte := p.bus.ReadCHR(chrAddr + 8)

			for col := 0; col < 8; col++ {
				tx := col
				if attrs.flipH {
					tx = 7 - col
				}
				bit := uint(7 - tx)
				colorIndex := ((highByte>>bit)&1)<<1 | ((lowByte >> bit) & 1)
				if colorIndex == 0 {
					continue
				}

				screenX := int(x) + col
				if screenX < 0 || screenX >= Width {
					continue
				}

				rgb := SystemPalette[p.readPalette(0x3F10+uint16(attrs.palette)*4+uint16(colorIndex))]
				off := (screenY*Width + screenX) * 3
				fb[off], fb[off+1], fb[off+2] = rgb[0], rgb[1], rgb[2]
			}
		}
	}
}
