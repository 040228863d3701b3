package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/weatherhat/cmd"
	"github.com/smazurov/weatherhat/internal/config"
	"github.com/smazurov/weatherhat/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `doc:"Path to configuration file" short:"c" default:"/etc/weatherhat/weatherhat.toml"`

	// Clock settings
	ClockOffset  string `doc:"Added to the local time, e.g. 1h or -30m" default:"0s" toml:"clock.utc_offset" env:"CLOCK_UTC_OFFSET"`
	ClockRefresh string `doc:"Clock refresh period" default:"200ms" toml:"clock.refresh" env:"CLOCK_REFRESH"`

	// Gauge settings
	GaugeDivisor   int `doc:"Degrees Celsius per lit pixel" default:"7" toml:"gauge.temperature_divisor" env:"GAUGE_TEMPERATURE_DIVISOR"`
	LedsBrightness int `doc:"LED strip brightness (1-255)" default:"8" toml:"leds.brightness" env:"LEDS_BRIGHTNESS"`

	// Hardware settings
	HardwareDriver   string `doc:"Board driver (auto, rainbowhat, sim)" default:"auto" toml:"hardware.driver" env:"HARDWARE_DRIVER"`
	HardwareBus      string `doc:"I2C bus name, empty for the first bus" toml:"hardware.i2c_bus" env:"HARDWARE_I2C_BUS"`
	HardwarePort     string `doc:"SPI port name, empty for the first port" toml:"hardware.spi_port" env:"HARDWARE_SPI_PORT"`
	HardwareLeds     string `doc:"Status LED driver (gpio, sysfs)" default:"gpio" toml:"hardware.status_leds" env:"HARDWARE_STATUS_LEDS"`
	HardwareInterval string `doc:"Sensor sampling interval" default:"1s" toml:"hardware.sensor_interval" env:"HARDWARE_SENSOR_INTERVAL"`

	// Status server settings
	ServerListen string `doc:"Address serving /api/status and /metrics, empty disables" toml:"server.listen" env:"SERVER_LISTEN"`

	// Logging settings
	LoggingLevel   string `doc:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `doc:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingStation string `doc:"Station logging level" default:"info" toml:"logging.station" env:"LOGGING_STATION"`
	LoggingHat     string `doc:"Hardware logging level" default:"info" toml:"logging.hat" env:"LOGGING_HAT"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(loggingConfig(opts))
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		hooks.OnStart(func() {
			defer close(finished)
			if err := run(ctx, opts, cli.Root(), logger); err != nil {
				logger.Error("Weather station failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			select {
			case <-finished:
			case <-time.After(10 * time.Second):
				logger.Error("Shutdown timed out")
			}
		})
	})

	cli.Root().Use = "weatherhat"
	cli.Root().Short = "Clock, thermometer and barometer for the Rainbow HAT"

	cli.Root().AddCommand(cmd.CreatePreviewCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

// loggingConfig merges the logging options with the module levels of the
// [logging] table, which may name any module.
func loggingConfig(opts *Options) logging.Config {
	cfg := config.LoadLoggingConfig(opts.Config)
	cfg.Level = opts.LoggingLevel
	cfg.Format = opts.LoggingFormat
	cfg.Modules["station"] = opts.LoggingStation
	cfg.Modules["hat"] = opts.LoggingHat
	return cfg
}
