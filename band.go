package halftone

import "github.com/gogpu/gg"

// Sprite tints of the three layers.
const (
	DarkColor  = "#011c1f"
	MidColor   = "#003539"
	LightColor = "#046C6F"
)

// Band is a luminance range drawn by one layer.
type Band struct {
	Name  string
	Low   float64
	High  float64
	Color gg.RGBA
}

// Contains reports whether a luminance falls inside [Low, High). A band
// whose High is 1 or more also contains 1.
func (b Band) Contains(lum float64) bool {
	if lum < b.Low {
		return false
	}
	return lum < b.High || b.High >= 1
}

// Bands returns the dark, mid and light bands in draw order, tinted with
// the given colors. Consecutive bands overlap so tones blend softly.
func Bands(dark, mid, light gg.RGBA) [3]Band {
	return [3]Band{
		{Name: "dark", Low: 0, High: 0.25, Color: dark},
		{Name: "mid", Low: 0.2, High: 0.66, Color: mid},
		{Name: "light", Low: 0.5, High: 1, Color: light},
	}
}

// DefaultBands returns the bands with the default tints.
func DefaultBands() [3]Band {
	return Bands(gg.Hex(DarkColor), gg.Hex(MidColor), gg.Hex(LightColor))
}
