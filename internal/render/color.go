package render

import (
	"image/color"

	"github.com/talgya/turbo-catan/internal/board"
)

// Palette colors, named after the classic plot colors they mirror.
var (
	colorGreen     = color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}
	colorYellow    = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	colorLawnGreen = color.RGBA{R: 0x7c, G: 0xfc, B: 0x00, A: 0xff}
	colorGray      = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	colorRed       = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	colorGold      = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	colorTan       = color.RGBA{R: 0xd2, G: 0xb4, B: 0x8c, A: 0xff}
	colorBlue      = color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}
	colorMagenta   = color.RGBA{R: 0xff, G: 0x00, B: 0xff, A: 0xff}
)

// CategoryColor returns the display color of a tile category. Unknown
// categories render magenta.
func CategoryColor(c board.Category) color.RGBA {
	switch c {
	case board.CategoryWood:
		return colorGreen
	case board.CategoryWheat:
		return colorYellow
	case board.CategorySheep:
		return colorLawnGreen
	case board.CategoryOre:
		return colorGray
	case board.CategoryBrick:
		return colorRed
	case board.CategoryGold:
		return colorGold
	case board.CategoryDesert:
		return colorTan
	case board.CategoryOcean:
		return colorBlue
	default:
		return colorMagenta
	}
}

// Blend composites c at the given opacity over bg and returns an opaque color.
func Blend(c, bg color.RGBA, alpha float64) color.RGBA {
	mix := func(fg, back uint8) uint8 {
		return uint8(float64(fg)*alpha + float64(back)*(1-alpha) + 0.5)
	}
	return color.RGBA{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: 0xff}
}

// Shade scales the brightness of c by f, clamping each channel.
func Shade(c color.RGBA, f float64) color.RGBA {
	scale := func(v uint8) uint8 {
		x := float64(v) * f
		switch {
		case x < 0:
			return 0
		case x > 255:
			return 255
		}
		return uint8(x)
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
