// Package rainbowhat implements hat.Factory for the Pimoroni Rainbow HAT on a
// Raspberry Pi using periph.io.
package rainbowhat

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/smazurov/weatherhat/internal/events"
	"github.com/smazurov/weatherhat/internal/hat"
	"github.com/smazurov/weatherhat/internal/led"
)

// Rainbow HAT bus addresses.
const (
	DisplayAddress uint16 = 0x70
	SensorAddress  uint16 = 0x77
)

// ButtonPins maps the buttons to their BCM lines.
var ButtonPins = map[hat.ButtonID]string{
	hat.ButtonA: "GPIO21",
	hat.ButtonB: "GPIO20",
	hat.ButtonC: "GPIO16",
}

// Options configures the board.
type Options struct {
	I2CBus         string // "" selects the default bus
	SPIPort        string // "" selects the default port
	SensorInterval time.Duration
	Brightness     uint8
	LEDDriver      string // led.DriverGPIO unless the overlay exposes sysfs LEDs
	Logger         *slog.Logger
}

// Factory opens Rainbow HAT peripherals. The I²C bus is shared by the display
// and the sensor and lives until Close.
type Factory struct {
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	i2c  i2c.BusCloser
	spi  spi.PortCloser
	done bool
}

// NewFactory initializes periph host drivers.
func NewFactory(opts Options) (*Factory, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SensorInterval <= 0 {
		opts.SensorInterval = time.Second
	}
	if opts.LEDDriver == "" {
		opts.LEDDriver = led.DriverGPIO
	}

	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	opts.Logger.Debug("periph host initialized", "loaded", len(state.Loaded), "failed", len(state.Failed))

	return &Factory{opts: opts, logger: opts.Logger}, nil
}

// OpenDisplay opens the alphanumeric display.
func (f *Factory) OpenDisplay() (hat.Display, error) {
	bus, err := f.i2cBus()
	if err != nil {
		return nil, err
	}
	return openDisplay(bus, DisplayAddress)
}

// OpenStrip opens the LED strip at the configured brightness.
func (f *Factory) OpenStrip() (hat.Strip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return nil, errFactoryClosed
	}
	if f.spi == nil {
		port, err := spireg.Open(f.opts.SPIPort)
		if err != nil {
			return nil, fmt.Errorf("open SPI port %q: %w", f.opts.SPIPort, err)
		}
		f.spi = port
	}
	return openStrip(f.spi, f.opts.Brightness, true)
}

// OpenLights opens the red, green and blue status LEDs.
func (f *Factory) OpenLights() (led.Controller, error) {
	return led.New(f.opts.LEDDriver, led.RainbowHATPins, f.logger)
}

// OpenButton opens one of the capacitive buttons.
func (f *Factory) OpenButton(id hat.ButtonID) (hat.Button, error) {
	pin, ok := ButtonPins[id]
	if !ok {
		return nil, fmt.Errorf("unknown button %q", id)
	}
	return openButton(id, pin, f.logger)
}

// OpenSensor opens the BMP280 and publishes its readings on bus.
func (f *Factory) OpenSensor(bus *events.Bus) (hat.Sensor, error) {
	i2cBus, err := f.i2cBus()
	if err != nil {
		return nil, err
	}
	return openSensor(i2cBus, SensorAddress, bus, f.opts.SensorInterval, f.logger)
}

// Close releases the shared buses. Peripherals must be closed before.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return nil
	}
	f.done = true

	var errs []error
	if f.i2c != nil {
		if err := f.i2c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close I2C bus: %w", err))
		}
	}
	if f.spi != nil {
		if err := f.spi.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close SPI port: %w", err))
		}
	}
	return errors.Join(errs...)
}

var errFactoryClosed = errors.New("rainbowhat: factory closed")

func (f *Factory) i2cBus() (i2c.Bus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return nil, errFactoryClosed
	}
	if f.i2c == nil {
		bus, err := i2creg.Open(f.opts.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("open I2C bus %q: %w", f.opts.I2CBus, err)
		}
		f.i2c = bus
	}
	return f.i2c, nil
}
