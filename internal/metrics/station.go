// Package metrics provides Prometheus metrics for the weather station.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/weatherhat/internal/events"
)

var (
	stationMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "weatherhat",
		Subsystem: "station",
		Name:      "mode",
		Help:      "1 for the active display mode, 0 otherwise",
	}, []string{"mode"})

	temperatureCelsius = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "weatherhat",
		Subsystem: "sensor",
		Name:      "temperature_celsius",
		Help:      "Last temperature reading",
	})

	pressureHPa = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "weatherhat",
		Subsystem: "sensor",
		Name:      "pressure_hpa",
		Help:      "Last pressure reading",
	})

	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weatherhat",
		Name:      "writes_total",
		Help:      "Successful peripheral writes",
	}, []string{"peripheral"})

	ioErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weatherhat",
		Name:      "io_errors_total",
		Help:      "Failed peripheral operations",
	}, []string{"peripheral"})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weatherhat",
		Subsystem: "station",
		Name:      "dropped_total",
		Help:      "Messages dropped before reaching the display, by reason",
	}, []string{"reason"})

	buttonPressesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weatherhat",
		Name:      "button_presses_total",
		Help:      "Button presses",
	}, []string{"button"})

	// Local cache for the shutdown summary.
	snapshot   Snapshot
	snapshotMu sync.Mutex
)

// Snapshot holds running totals for the current process.
type Snapshot struct {
	Writes   uint64
	IOErrors uint64
	Dropped  uint64
	Presses  uint64
	Mode     string

	// Last readings seen on the bus; nil until the first one.
	Temperature *float64
	Pressure    *float64
}

// RecordWrite counts a successful write to a peripheral.
func RecordWrite(peripheral string) {
	writesTotal.WithLabelValues(peripheral).Inc()
	update(func(s *Snapshot) { s.Writes++ })
}

// RecordIOError counts a failed peripheral operation.
func RecordIOError(peripheral string) {
	ioErrorsTotal.WithLabelValues(peripheral).Inc()
	update(func(s *Snapshot) { s.IOErrors++ })
}

// RecordDropped counts a message that was discarded, e.g. "inbox_full" or
// "stale_mode".
func RecordDropped(reason string) {
	droppedTotal.WithLabelValues(reason).Inc()
	update(func(s *Snapshot) { s.Dropped++ })
}

// SetMode marks mode as the active one among modes.
func SetMode(mode string, modes ...string) {
	for _, m := range modes {
		stationMode.WithLabelValues(m).Set(0)
	}
	stationMode.WithLabelValues(mode).Set(1)
	update(func(s *Snapshot) { s.Mode = mode })
}

// GetSnapshot returns a copy of the running totals.
func GetSnapshot() Snapshot {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	return snapshot
}

// Observe keeps the sensor, button and mode metrics in sync with bus events.
// The returned function unsubscribes.
func Observe(bus *events.Bus, modes ...string) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.TemperatureEvent) {
			temperatureCelsius.Set(e.Celsius)
			update(func(s *Snapshot) { s.Temperature = &e.Celsius })
		}),
		bus.Subscribe(func(e events.PressureEvent) {
			pressureHPa.Set(e.HPa)
			update(func(s *Snapshot) { s.Pressure = &e.HPa })
		}),
		bus.Subscribe(func(e events.ButtonEvent) {
			if e.Pressed {
				buttonPressesTotal.WithLabelValues(e.Button).Inc()
				update(func(s *Snapshot) { s.Presses++ })
			}
		}),
		bus.Subscribe(func(e events.ModeChangedEvent) {
			SetMode(e.Mode, modes...)
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func update(fn func(*Snapshot)) {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	fn(&snapshot)
}
