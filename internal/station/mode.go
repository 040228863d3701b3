package station

import (
	"github.com/smazurov/weatherhat/internal/hat"
	"github.com/smazurov/weatherhat/internal/led"
)

// Mode is what the station currently shows.
type Mode int32

// Display modes. ModeClosed is terminal.
const (
	ModeTime Mode = iota
	ModeTemperature
	ModePressure
	ModeClosed
)

func (m Mode) String() string {
	switch m {
	case ModeTime:
		return "time"
	case ModeTemperature:
		return "temperature"
	case ModePressure:
		return "pressure"
	case ModeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ModeNames lists the selectable modes by name.
func ModeNames() []string {
	return []string{ModeTime.String(), ModeTemperature.String(), ModePressure.String()}
}

// title is shown while a sensor mode has no reading yet.
func (m Mode) title() string {
	switch m {
	case ModeTemperature:
		return "TEMP"
	case ModePressure:
		return "PRES"
	default:
		return ""
	}
}

// light returns the status LED that marks the mode.
func (m Mode) light() string {
	switch m {
	case ModeTemperature:
		return led.Green
	case ModePressure:
		return led.Blue
	default:
		return led.Red
	}
}

// buttonModes maps each button to the mode it selects.
var buttonModes = map[hat.ButtonID]Mode{
	hat.ButtonA: ModeTime,
	hat.ButtonB: ModeTemperature,
	hat.ButtonC: ModePressure,
}
