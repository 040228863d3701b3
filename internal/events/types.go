package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeTemperature uint32 = iota + 1
	TypePressure
	TypeButton
	TypeModeChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// TemperatureEvent is a temperature reading from the environment sensor.
type TemperatureEvent struct {
	Celsius   float64   `json:"celsius"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for TemperatureEvent.
func (e TemperatureEvent) Type() uint32 { return TypeTemperature }

// PressureEvent is a barometric pressure reading from the environment sensor.
type PressureEvent struct {
	HPa       float64   `json:"hpa"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for PressureEvent.
func (e PressureEvent) Type() uint32 { return TypePressure }

// ButtonEvent is a press or release of one of the HAT buttons.
type ButtonEvent struct {
	Button    string    `json:"button"`
	Pressed   bool      `json:"pressed"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ButtonEvent.
func (e ButtonEvent) Type() uint32 { return TypeButton }

// ModeChangedEvent is published by the station after the display mode switched.
type ModeChangedEvent struct {
	Mode      string    `json:"mode"`
	Previous  string    `json:"previous"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }
