package msgs

import (
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ColorRGBA is a color with components in [0, 1].
type ColorRGBA struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

// Hex returns the #rrggbb form of the color, ignoring alpha.
func (c ColorRGBA) Hex() string {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped().Hex()
}

// ColorFromHex parses a #rrggbb or #rgb color with the given alpha.
func ColorFromHex(s string, alpha float32) (ColorRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return ColorRGBA{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return ColorRGBA{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: alpha}, nil
}
