package rainbowhat

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ht16k33"

	"github.com/smazurov/weatherhat/internal/hat"
)

// displayBrightnessMax is the highest HT16K33 dimming step.
const displayBrightnessMax = 15

// display drives the HT16K33 backed 14-segment display.
type display struct {
	dev *ht16k33.Dev
}

func openDisplay(bus i2c.Bus, addr uint16) (*display, error) {
	dev, err := ht16k33.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("ht16k33 at %#x: %w", addr, err)
	}
	if err := dev.SetBrightness(displayBrightnessMax); err != nil {
		_ = dev.Halt()
		return nil, fmt.Errorf("ht16k33 brightness: %w", err)
	}
	return &display{dev: dev}, nil
}

func (d *display) Write(text string) error {
	return d.writeColumns(Encode(text))
}

func (d *display) Clear() error {
	return d.writeColumns([hat.DisplayWidth]uint16{})
}

func (d *display) Close() error {
	return d.dev.Halt()
}

func (d *display) writeColumns(cols [hat.DisplayWidth]uint16) error {
	for i, c := range cols {
		if err := d.dev.WriteColumn(i, c); err != nil {
			return fmt.Errorf("display column %d: %w", i, err)
		}
	}
	return nil
}
