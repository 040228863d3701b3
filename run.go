package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/weatherhat/internal/api"
	"github.com/smazurov/weatherhat/internal/config"
	"github.com/smazurov/weatherhat/internal/events"
	"github.com/smazurov/weatherhat/internal/hat"
	"github.com/smazurov/weatherhat/internal/hat/rainbowhat"
	"github.com/smazurov/weatherhat/internal/hat/sim"
	"github.com/smazurov/weatherhat/internal/logging"
	"github.com/smazurov/weatherhat/internal/metrics"
	"github.com/smazurov/weatherhat/internal/metrics/exporters"
	"github.com/smazurov/weatherhat/internal/station"
	"github.com/smazurov/weatherhat/internal/systemd"
)

// run drives the station until ctx is cancelled. SIGUSR1 pauses the station,
// SIGUSR2 resumes it.
func run(ctx context.Context, opts *Options, root *cobra.Command, logger *slog.Logger) error {
	cfg, err := stationConfig(opts)
	if err != nil {
		return err
	}
	sensorInterval, err := parseDuration("hardware.sensor_interval", opts.HardwareInterval)
	if err != nil {
		return err
	}

	bus := events.New()
	defer metrics.Observe(bus, station.ModeNames()...)()

	factory, err := openFactory(opts, sensorInterval, cfg.Brightness)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := factory.Close(); closeErr != nil {
			logger.Warn("Failed to release hardware buses", "error", closeErr)
		}
	}()

	ctrl, err := station.New(factory, bus, cfg, logging.GetLogger("station"))
	if err != nil {
		return fmt.Errorf("create station: %w", err)
	}
	if err := ctrl.Start(); err != nil {
		_ = ctrl.Close()
		return fmt.Errorf("start station: %w", err)
	}

	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	defer bus.Subscribe(func(e events.ModeChangedEvent) {
		notifier.Status("Showing " + e.Mode)
	})()
	notifier.Ready()
	go notifier.RunWatchdog(ctx, ctrl.Ping)

	if opts.ServerListen != "" {
		srv := api.NewServer(&api.Options{Station: ctrl, Bus: bus, MetricsHandler: exporters.HTTPHandler()})
		go func() {
			if serveErr := srv.Serve(ctx, opts.ServerListen); serveErr != nil {
				logger.Error("Status server failed", "error", serveErr)
			}
		}()
	}

	watcher := watchConfig(*opts, root, ctrl, logging.GetLogger("config"))
	if startErr := watcher.Start(); startErr != nil {
		logger.Warn("Config reload disabled", "path", opts.Config, "error", startErr)
	} else {
		defer func() { _ = watcher.Stop() }()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			notifier.Stopping()
			snap := metrics.GetSnapshot()
			logger.Info("Station summary", "writes", snap.Writes, "io_errors", snap.IOErrors,
				"dropped", snap.Dropped, "presses", snap.Presses)
			return ctrl.Close()

		case sig := <-signals:
			switch sig {
			case syscall.SIGUSR1:
				if stopErr := ctrl.Stop(); stopErr != nil {
					logger.Warn("Failed to pause station", "error", stopErr)
					continue
				}
				notifier.Status("Paused")
			case syscall.SIGUSR2:
				if startErr := ctrl.Start(); startErr != nil {
					logger.Warn("Failed to resume station", "error", startErr)
					continue
				}
				notifier.Status("Showing " + ctrl.Mode().String())
			}
		}
	}
}

func openFactory(opts *Options, sensorInterval time.Duration, brightness uint8) (hat.Factory, error) {
	hatLogger := logging.GetLogger("hat")
	driver := hat.ResolveDriver(opts.HardwareDriver)
	hatLogger.Info("Using hardware driver", "driver", driver, "board", hat.DetectBoard())

	switch driver {
	case hat.DriverSim:
		board := sim.NewBoard(hatLogger)
		board.SensorInterval = sensorInterval
		return board, nil
	case hat.DriverRainbowHAT:
		factory, err := rainbowhat.NewFactory(rainbowhat.Options{
			I2CBus:         opts.HardwareBus,
			SPIPort:        opts.HardwarePort,
			SensorInterval: sensorInterval,
			Brightness:     brightness,
			LEDDriver:      opts.HardwareLeds,
			Logger:         hatLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("open Rainbow HAT: %w", err)
		}
		return factory, nil
	default:
		return nil, fmt.Errorf("unknown hardware driver %q", opts.HardwareDriver)
	}
}

// stationConfig validates the options used by the station.
func stationConfig(opts *Options) (station.Config, error) {
	settings, err := stationSettings(opts)
	if err != nil {
		return station.Config{}, err
	}
	refresh, err := parseDuration("clock.refresh", opts.ClockRefresh)
	if err != nil {
		return station.Config{}, err
	}

	cfg := station.DefaultConfig()
	cfg.RefreshInterval = refresh
	cfg.UTCOffset = settings.UTCOffset
	cfg.TemperatureDivisor = settings.TemperatureDivisor
	cfg.Brightness = settings.Brightness
	return cfg, nil
}

// stationSettings extracts the options that can change at runtime.
func stationSettings(opts *Options) (station.Settings, error) {
	offset, err := parseDuration("clock.utc_offset", opts.ClockOffset)
	if err != nil {
		return station.Settings{}, err
	}
	if opts.GaugeDivisor <= 0 {
		return station.Settings{}, fmt.Errorf("gauge.temperature_divisor must be positive, got %d", opts.GaugeDivisor)
	}
	if opts.LedsBrightness < 1 || opts.LedsBrightness > 255 {
		return station.Settings{}, fmt.Errorf("leds.brightness must be between 1 and 255, got %d", opts.LedsBrightness)
	}
	return station.Settings{
		UTCOffset:          offset,
		TemperatureDivisor: float64(opts.GaugeDivisor),
		Brightness:         uint8(opts.LedsBrightness),
	}, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// watchConfig reloads the config file on change and applies what can change
// at runtime: clock offset, gauge divisor, strip brightness and log levels.
// Flags given on the command line keep precedence.
func watchConfig(base Options, root *cobra.Command, ctrl *station.Controller, logger *slog.Logger) *config.Watcher[Options] {
	loader := func(path string) (Options, error) {
		opts := base
		opts.Config = path
		if err := config.LoadConfig(&opts, root); err != nil {
			return Options{}, err
		}
		return opts, nil
	}

	watcher := config.NewConfigWatcher(base.Config, loader, logger)
	watcher.OnReload(func(opts Options) {
		lc := loggingConfig(&opts)
		logging.SetLevels(lc.Level, lc.Modules)

		settings, err := stationSettings(&opts)
		if err != nil {
			logger.Warn("Ignoring invalid station settings", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ctrl.Apply(ctx, settings); err != nil && !errors.Is(err, station.ErrClosed) {
			logger.Warn("Failed to apply settings", "error", err)
		}
	})
	return watcher
}
