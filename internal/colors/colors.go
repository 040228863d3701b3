// Package colors maps clock seconds and weather readings onto frames for the
// Rainbow HAT LED strip.
//
// Every function returns a fresh Frame value. Frames are arrays, so a frame
// handed to a strip can never be modified through a later call.
package colors

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/image/colornames"
)

// StripLength is the number of pixels on the Rainbow HAT APA102 strip.
const StripLength = 7

// Barometer range mapped onto the strip, in hPa.
const (
	PressureLow  = 965.0
	PressureHigh = 1035.0
)

// DefaultTemperatureDivisor is the number of °C represented by one lit pixel.
const DefaultTemperatureDivisor = 7.0

// Frame is one complete set of pixel colors, index 0 being the first pixel.
type Frame [StripLength]color.RGBA

var (
	// WatchFace is the background of the clock frame (material orange 500).
	WatchFace = color.RGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF}
	// SecondsHand marks the current second on the clock frame.
	SecondsHand = colornames.Lime
	// Off is an unlit pixel.
	Off = colornames.Black
)

var (
	timeTable        Frame
	temperatureTable = Frame{
		colornames.Red,
		colornames.Yellow,
		colornames.Yellow,
		colornames.Lime,
		colornames.Lime,
		colornames.Lime,
		colornames.Lime,
	}
	rainbowTable Frame
)

func init() {
	for i := range timeTable {
		timeTable[i] = WatchFace
	}
	for i := range rainbowTable {
		rainbowTable[i] = hsv(float64(i)*360/StripLength, 1, 1)
	}
}

// RainbowTable returns the full-spectrum gradient used by PressureColors.
func RainbowTable() Frame {
	return rainbowTable
}

// TimeColors returns the clock frame for the given second of the minute.
// Seconds outside 0..59 wrap like any other integer.
func TimeColors(second int) Frame {
	frame := timeTable
	frame[handIndex(second)] = SecondsHand
	return frame
}

// handIndex walks the seconds hand backwards from the last pixel.
func handIndex(second int) int {
	pos := second % StripLength
	if pos < 0 {
		pos += StripLength
	}
	return StripLength - 1 - pos
}

// TemperatureColors lights one gauge pixel per DefaultTemperatureDivisor °C.
func TemperatureColors(celsius float64) Frame {
	return TemperatureColorsWithDivisor(celsius, DefaultTemperatureDivisor)
}

// TemperatureColorsWithDivisor lights round(celsius/divisor) pixels from the
// end of the red→green gauge. A non-positive divisor yields an empty gauge.
func TemperatureColorsWithDivisor(celsius, divisor float64) Frame {
	if divisor <= 0 {
		return AllOff()
	}
	n := clampCount(math.Round(celsius / divisor))
	return gauge(temperatureTable, n)
}

// PressureColors lights ceil(7*t) rainbow pixels where t is the position of
// hPa inside [PressureLow, PressureHigh].
func PressureColors(hPa float64) Frame {
	t := (hPa - PressureLow) / (PressureHigh - PressureLow)
	n := clampCount(math.Ceil(StripLength * t))
	return gauge(rainbowTable, n)
}

// AllOff returns a frame with every pixel unlit.
func AllOff() Frame {
	var frame Frame
	for i := range frame {
		frame[i] = Off
	}
	return frame
}

// LitCount returns the number of pixels that are not Off.
func LitCount(frame Frame) int {
	n := 0
	for _, c := range frame {
		if c != Off {
			n++
		}
	}
	return n
}

// Hex formats a color as #RRGGBB.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// gauge copies the last n entries of table into an otherwise dark frame.
func gauge(table Frame, n int) Frame {
	frame := AllOff()
	for i := range n {
		ri := StripLength - 1 - i
		frame[ri] = table[ri]
	}
	return frame
}

func clampCount(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= StripLength:
		return StripLength
	default:
		return int(v)
	}
}

// hsv converts hue (degrees), saturation and value in [0,1] to an opaque RGBA.
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 0xFF,
	}
}
