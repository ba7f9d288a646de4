package main

import (
	"image/color"
	"strconv"
	"strings"
)

var fallbackColor = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// parseColor reads a "#RRGGBB" or "#RGB" color, returning gray for anything
// else.
func parseColor(hex string) color.NRGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallbackColor
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallbackColor
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
