package render

import "image/color"

// Category colors follow the usual cycling convention: hors categorie in
// red down to category 4 in blue, with everything else in gray.
const (
	colorHC   = "#E63946"
	colorCat1 = "#F77F00"
	colorCat2 = "#FCBF49"
	colorCat3 = "#06A77D"
	colorCat4 = "#457B9D"
	colorBase = "#A8A8A8"
)

// categoryOrder lists categories from hardest to easiest for legends.
var categoryOrder = []string{"HC", "1", "2", "3", "4"}

var categoryHex = map[string]string{
	"HC": colorHC,
	"1":  colorCat1,
	"2":  colorCat2,
	"3":  colorCat3,
	"4":  colorCat4,
}

var categoryRGBA = map[string]color.RGBA{
	"HC": {R: 0xE6, G: 0x39, B: 0x46, A: 0xFF},
	"1":  {R: 0xF7, G: 0x7F, B: 0x00, A: 0xFF},
	"2":  {R: 0xFC, G: 0xBF, B: 0x49, A: 0xFF},
	"3":  {R: 0x06, G: 0xA7, B: 0x7D, A: 0xFF},
	"4":  {R: 0x45, G: 0x7B, B: 0x9D, A: 0xFF},
}

var baseRGBA = color.RGBA{R: 0xA8, G: 0xA8, B: 0xA8, A: 0xFF}

// categoryColor returns the hex color for a climb category, falling back
// to the base gray for anything unknown.
func categoryColor(category string) string {
	if c, ok := categoryHex[category]; ok {
		return c
	}
	return colorBase
}

// categoryFill returns a translucent fill color for PNG climb bands.
func categoryFill(category string) color.Color {
	c, ok := categoryRGBA[category]
	if !ok {
		c = baseRGBA
	}
	c.A = 0x59 // ~35% opacity
	return c
}
