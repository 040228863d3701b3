package led

import (
	"errors"
	"fmt"
	"slices"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// gpioController drives each LED from a dedicated GPIO output line.
type gpioController struct {
	pins map[string]gpio.PinIO
}

// newGPIO resolves every pin name (e.g. "GPIO6") through the periph registry.
// host.Init must have been called before.
func newGPIO(pins map[string]string) (*gpioController, error) {
	c := &gpioController{pins: make(map[string]gpio.PinIO, len(pins))}
	for name, pinName := range pins {
		pin := gpioreg.ByName(pinName)
		if pin == nil {
			return nil, fmt.Errorf("LED %q: GPIO pin %q not found", name, pinName)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("LED %q: configure %s as output: %w", name, pinName, err)
		}
		c.pins[name] = pin
	}
	return c, nil
}

// Set drives the line high for on, low for off.
func (c *gpioController) Set(name string, on bool) error {
	pin, ok := c.pins[name]
	if !ok {
		return fmt.Errorf("LED %q not supported on this board", name)
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := pin.Out(level); err != nil {
		return fmt.Errorf("LED %q: %w", name, err)
	}
	return nil
}

// Available returns the configured LED names.
func (c *gpioController) Available() []string {
	names := make([]string, 0, len(c.pins))
	for name := range c.pins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close halts every line, collecting all failures.
func (c *gpioController) Close() error {
	var errs []error
	for name, pin := range c.pins {
		if err := pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("LED %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
