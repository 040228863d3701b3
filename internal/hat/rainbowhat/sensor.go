package rainbowhat

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/smazurov/weatherhat/internal/events"
)

// sensor publishes BMP280 readings on the bus while at least one channel is
// registered.
type sensor struct {
	dev      *bmxx80.Dev
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	temperature bool
	pressure    bool
	sensing     bool
	halted      bool
	wg          sync.WaitGroup
}

func openSensor(i2cBus i2c.Bus, addr uint16, bus *events.Bus, interval time.Duration, logger *slog.Logger) (*sensor, error) {
	dev, err := bmxx80.NewI2C(i2cBus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bmp280 at %#x: %w", addr, err)
	}
	return &sensor{
		dev:      dev,
		bus:      bus,
		interval: interval,
		logger:   logger,
	}, nil
}

func (s *sensor) RegisterTemperature() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = true
	return s.startLocked()
}

func (s *sensor) RegisterPressure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressure = true
	return s.startLocked()
}

// Close halts continuous sensing, which closes the reading channel.
func (s *sensor) Close() error {
	s.mu.Lock()
	if s.halted {
		s.mu.Unlock()
		return nil
	}
	s.halted = true
	s.mu.Unlock()

	err := s.dev.Halt()
	s.wg.Wait()
	return err
}

func (s *sensor) startLocked() error {
	if s.halted {
		return fmt.Errorf("bmp280: sensor closed")
	}
	if s.sensing {
		return nil
	}

	ch, err := s.dev.SenseContinuous(s.interval)
	if err != nil {
		return fmt.Errorf("bmp280 sense: %w", err)
	}
	s.sensing = true

	s.wg.Add(1)
	go s.publish(ch)
	s.logger.Info("Environment sensor started", "interval", s.interval)
	return nil
}

func (s *sensor) publish(ch <-chan physic.Env) {
	defer s.wg.Done()

	for env := range ch {
		now := time.Now()

		s.mu.Lock()
		temperature, pressure := s.temperature, s.pressure
		s.mu.Unlock()

		if temperature {
			s.bus.Publish(events.TemperatureEvent{
				Celsius:   env.Temperature.Celsius(),
				Timestamp: now,
			})
		}
		if pressure {
			s.bus.Publish(events.PressureEvent{
				HPa:       hectopascals(env.Pressure),
				Timestamp: now,
			})
		}
	}
}

// hectopascals converts periph's nano Pascal fixed point to hPa.
func hectopascals(p physic.Pressure) float64 {
	return float64(p) / float64(100*physic.Pascal)
}
