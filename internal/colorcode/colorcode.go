// Package colorcode implements the bijective mapping between element IDs and
// RGB colors that makes a hitmap raster decodable: every pixel's color is
// either the reserved background or exactly one live element's ID.
package colorcode

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MaxID is the largest encodable element ID for an 8-bit RGB raster.
// ID 0 is reserved for the background and is never assigned to an element.
const MaxID = 1<<24 - 1

// ErrCapacity is returned when an ID falls outside [1, MaxID].
var ErrCapacity = fmt.Errorf("colorcode: id outside [1, %d]", MaxID)

// Encode maps an element ID to its hitmap color. The mapping packs the ID
// into the 24 bits of an opaque RGB triple, so Decode(Encode(id)) == id for
// every valid ID.
func Encode(id int) (color.NRGBA, error) {
	if id < 1 || id > MaxID {
		return color.NRGBA{}, ErrCapacity
	}
	return color.NRGBA{
		R: uint8(id >> 16),
		G: uint8(id >> 8),
		B: uint8(id),
		A: 0xff,
	}, nil
}

// Hex returns the "#rrggbb" style string for an element ID, the form the
// type processors write into primitive styles.
func Hex(id int) string {
	c, err := Encode(id)
	if err != nil {
		return "#000000"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Decode recovers the element ID from a hitmap color. The reserved
// background decodes to 0.
func Decode(c color.NRGBA) int {
	return DecodeRGB(c.R, c.G, c.B)
}

// DecodeRGB recovers the element ID from raw channel values.
func DecodeRGB(r, g, b uint8) int {
	return int(r)<<16 | int(g)<<8 | int(b)
}

// named covers the color names that appear in recorded styles. The tab:
// entries are the default qualitative cycle of the upstream plotting stack;
// C0..C9 alias the same cycle.
var named = map[string]color.NRGBA{
	"white":      {0xff, 0xff, 0xff, 0xff},
	"black":      {0x00, 0x00, 0x00, 0xff},
	"red":        {0xff, 0x00, 0x00, 0xff},
	"green":      {0x00, 0x80, 0x00, 0xff},
	"blue":       {0x00, 0x00, 0xff, 0xff},
	"cyan":       {0x00, 0xff, 0xff, 0xff},
	"magenta":    {0xff, 0x00, 0xff, 0xff},
	"yellow":     {0xff, 0xff, 0x00, 0xff},
	"orange":     {0xff, 0xa5, 0x00, 0xff},
	"purple":     {0x80, 0x00, 0x80, 0xff},
	"brown":      {0xa5, 0x2a, 0x2a, 0xff},
	"pink":       {0xff, 0xc0, 0xcb, 0xff},
	"gray":       {0x80, 0x80, 0x80, 0xff},
	"grey":       {0x80, 0x80, 0x80, 0xff},
	"tab:blue":   {0x1f, 0x77, 0xb4, 0xff},
	"tab:orange": {0xff, 0x7f, 0x0e, 0xff},
	"tab:green":  {0x2c, 0xa0, 0x2c, 0xff},
	"tab:red":    {0xd6, 0x27, 0x28, 0xff},
	"tab:purple": {0x94, 0x67, 0xbd, 0xff},
	"tab:brown":  {0x8c, 0x56, 0x4b, 0xff},
	"tab:pink":   {0xe3, 0x77, 0xc2, 0xff},
	"tab:gray":   {0x7f, 0x7f, 0x7f, 0xff},
	"tab:olive":  {0xbc, 0xbd, 0x22, 0xff},
	"tab:cyan":   {0x17, 0xbe, 0xcf, 0xff},
	"none":       {0x00, 0x00, 0x00, 0x00},
}

// cycleAliases maps "C0".."C9" onto the tab: cycle, indexed by digit.
var cycleAliases = [10]string{
	"tab:blue", "tab:orange", "tab:green", "tab:red", "tab:purple",
	"tab:brown", "tab:pink", "tab:gray", "tab:olive", "tab:cyan",
}

// Normalize canonicalizes a recorded color spec (named color, "#rgb" short
// hex, "#rrggbb" hex, or cycle alias "C0".."C9") to an NRGBA value. It
// reports false for specs it cannot interpret; restoration never depends on
// this succeeding because original style strings are kept verbatim.
func Normalize(spec string) (color.NRGBA, bool) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return color.NRGBA{}, false
	}

	if c, ok := named[s]; ok {
		return c, true
	}
	if len(s) == 2 && s[0] == 'c' && s[1] >= '0' && s[1] <= '9' {
		return named[cycleAliases[s[1]-'0']], true
	}

	if strings.HasPrefix(s, "#") {
		if len(s) == 4 { // #rgb → #rrggbb
			s = fmt.Sprintf("#%c%c%c%c%c%c", s[1], s[1], s[2], s[2], s[3], s[3])
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, false
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, true
	}

	return color.NRGBA{}, false
}

// Equal reports whether two color specs normalize to the same color. Specs
// that cannot be normalized compare by string identity.
func Equal(a, b string) bool {
	ca, oka := Normalize(a)
	cb, okb := Normalize(b)
	if oka && okb {
		return ca == cb
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
