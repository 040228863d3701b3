package station

import (
	"time"

	"github.com/smazurov/weatherhat/internal/colors"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultRefreshInterval = 200 * time.Millisecond
	DefaultBrightness      = 8
	DefaultInboxSize       = 32
	DefaultSlowIOThreshold = 50 * time.Millisecond
	DefaultBarrierTimeout  = 5 * time.Second

	pressWait = time.Second
)

// Config holds the controller settings.
type Config struct {
	// RefreshInterval is the clock tick period.
	RefreshInterval time.Duration
	// UTCOffset is added to the local time before it is shown.
	UTCOffset time.Duration
	// TemperatureDivisor is the number of °C per lit strip pixel.
	TemperatureDivisor float64
	// Brightness of the LED strip, 0-255.
	Brightness uint8
	// InboxSize bounds the number of queued ticks, readings and presses.
	InboxSize int
	// SlowIOThreshold logs peripheral writes that take longer.
	SlowIOThreshold time.Duration
	// BarrierTimeout bounds how long Start, Stop and Close wait for the
	// dispatch loop, e.g. behind a peripheral write that hangs.
	BarrierTimeout time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		RefreshInterval:    DefaultRefreshInterval,
		TemperatureDivisor: colors.DefaultTemperatureDivisor,
		Brightness:         DefaultBrightness,
		InboxSize:          DefaultInboxSize,
		SlowIOThreshold:    DefaultSlowIOThreshold,
		BarrierTimeout:     DefaultBarrierTimeout,
		Now:                time.Now,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = def.RefreshInterval
	}
	if c.TemperatureDivisor <= 0 {
		c.TemperatureDivisor = def.TemperatureDivisor
	}
	if c.Brightness == 0 {
		c.Brightness = def.Brightness
	}
	if c.InboxSize <= 0 {
		c.InboxSize = def.InboxSize
	}
	if c.SlowIOThreshold <= 0 {
		c.SlowIOThreshold = def.SlowIOThreshold
	}
	if c.BarrierTimeout <= 0 {
		c.BarrierTimeout = def.BarrierTimeout
	}
	if c.Now == nil {
		c.Now = def.Now
	}
	return c
}

// Settings are the values that can change while the station runs.
type Settings struct {
	UTCOffset          time.Duration
	TemperatureDivisor float64
	Brightness         uint8
}
