package charset

// basic16 holds the usual xterm values for the first sixteen palette slots.
var basic16 = [16]uint32{
	0x000000, 0x800000, 0x008000, 0x808000, 0x000080, 0x800080, 0x008080, 0xc0c0c0,
	0x808080, 0xff0000, 0x00ff00, 0xffff00, 0x0000ff, 0xff00ff, 0x00ffff, 0xffffff,
}

var cubeSteps = [6]uint32{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}

// PaletteRGB returns the 24-bit value of an xterm-256 palette index.
func PaletteRGB(i int) uint32 {
	switch {
	case i < 0:
		return 0
	case i < 16:
		return basic16[i]
	case i < 232:
		i -= 16
		return cubeSteps[i/36]<<16 | cubeSteps[i/6%6]<<8 | cubeSteps[i%6]
	case i < 256:
		v := uint32(8 + (i-232)*10)
		return v<<16 | v<<8 | v
	}
	return 0xffffff
}

// Channel thresholds for reducing a 24-bit color to the 16-color palette.
const (
	channelOn     = 0x80
	channelBright = 0xc0
)

// Nearest16 maps a 24-bit color to a 16-color palette index. Each channel is
// on at or above a fixed threshold; the color is bright when any channel
// reaches the higher one.
func Nearest16(rgb uint32) int {
	r, g, b := rgb>>16&0xff, rgb>>8&0xff, rgb&0xff
	idx := 0
	if r >= channelOn {
		idx |= 1
	}
	if g >= channelOn {
		idx |= 2
	}
	if b >= channelOn {
		idx |= 4
	}
	if r >= channelBright || g >= channelBright || b >= channelBright {
		idx += 8
	}
	return idx
}

// Reduce16 rewrites every extended color code in toks to the 16-color
// palette. toks is modified in place and returned.
func Reduce16(toks []Token) []Token {
	for i := range toks {
		if toks[i].Kind != TokenOpen {
			continue
		}
		codes := make([]Code, len(toks[i].Codes))
		for j, c := range toks[i].Codes {
			if c.Kind == Foreground || c.Kind == Background {
				switch {
				case c.RGB:
					c = Code{Kind: c.Kind, Value: uint32(Nearest16(c.Value))}
				case c.Value >= 16:
					c = Code{Kind: c.Kind, Value: uint32(Nearest16(PaletteRGB(int(c.Value))))}
				}
			}
			codes[j] = c
		}
		toks[i].Codes = codes
	}
	return toks
}
