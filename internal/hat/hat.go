// Package hat defines the peripherals of a Rainbow HAT as seen by the station.
//
// Two implementations exist: rainbowhat talks to the real board through
// periph.io, sim keeps everything in memory for development hosts and tests.
package hat

import (
	"github.com/smazurov/weatherhat/internal/colors"
	"github.com/smazurov/weatherhat/internal/events"
	"github.com/smazurov/weatherhat/internal/led"
)

// ButtonID identifies one of the capacitive buttons.
type ButtonID string

// Rainbow HAT buttons, left to right.
const (
	ButtonA ButtonID = "A"
	ButtonB ButtonID = "B"
	ButtonC ButtonID = "C"
)

// Buttons lists every button in board order.
var Buttons = []ButtonID{ButtonA, ButtonB, ButtonC}

// DisplayWidth is the number of characters on the alphanumeric display.
const DisplayWidth = 4

// Display is the 4-character alphanumeric display.
type Display interface {
	// Write shows text left-aligned. A '.' lights the decimal point of the
	// preceding character and does not take a position of its own.
	Write(text string) error
	Clear() error
	Close() error
}

// Strip is the RGB LED strip.
type Strip interface {
	Write(frame colors.Frame) error
	// SetBrightness sets the global intensity, 0 (off) to 255.
	SetBrightness(level uint8) error
	Close() error
}

// Button delivers press state changes of one button.
type Button interface {
	// OnPress registers the handler called with true on press and false on
	// release. Handlers run on a driver goroutine.
	OnPress(handler func(pressed bool))
	Close() error
}

// Sensor is the environment sensor. Registered channels are published on the
// bus given to Factory.OpenSensor as events.TemperatureEvent and
// events.PressureEvent.
type Sensor interface {
	RegisterTemperature() error
	RegisterPressure() error
	Close() error
}

// Factory opens the peripherals of one board. Each Open call returns a new
// handle owned by the caller; Close releases shared buses afterwards.
type Factory interface {
	OpenDisplay() (Display, error)
	OpenStrip() (Strip, error)
	OpenLights() (led.Controller, error)
	OpenButton(id ButtonID) (Button, error)
	OpenSensor(bus *events.Bus) (Sensor, error)
	Close() error
}
