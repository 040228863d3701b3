package led

import (
	"fmt"
	"log/slog"
)

// Drivers accepted by New.
const (
	DriverGPIO   = "gpio"
	DriverSysfs  = "sysfs"
	DriverMemory = "memory"
)

// RainbowHATPins maps the status LEDs to their BCM lines on the Rainbow HAT.
var RainbowHATPins = map[string]string{
	Red:   "GPIO6",
	Green: "GPIO19",
	Blue:  "GPIO26",
}

// New creates a status LED controller for the given driver.
// lines maps LED names to GPIO pin names (gpio) or sysfs LED names (sysfs).
func New(driver string, lines map[string]string, logger *slog.Logger) (Controller, error) {
	if logger != nil {
		logger.Info("Opening status LEDs", "driver", driver, "count", len(lines))
	}

	switch driver {
	case DriverGPIO:
		return newGPIO(lines)
	case DriverSysfs:
		return newSysfs(sysfsLEDPath, lines), nil
	case DriverMemory:
		names := make([]string, 0, len(lines))
		for name := range lines {
			names = append(names, name)
		}
		return NewMemory(logger, names...), nil
	default:
		return nil, fmt.Errorf("unknown LED driver %q", driver)
	}
}
