// Package sim implements hat.Factory in memory. It records everything written
// to it, lets callers press buttons and inject readings, and can be told to
// fail individual operations.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/weatherhat/internal/colors"
	"github.com/smazurov/weatherhat/internal/events"
	"github.com/smazurov/weatherhat/internal/hat"
	"github.com/smazurov/weatherhat/internal/led"
)

// Peripheral names used with FailOpen.
const (
	PartDisplay = "display"
	PartStrip   = "strip"
	PartLights  = "lights"
	PartSensor  = "sensor"
)

// PartButton returns the FailOpen name of a button.
func PartButton(id hat.ButtonID) string {
	return "button:" + string(id)
}

// Board is a simulated Rainbow HAT.
type Board struct {
	// SensorInterval enables generated readings when positive.
	SensorInterval time.Duration

	logger *slog.Logger

	mu       sync.Mutex
	failOpen map[string]error
	display  *Display
	strip    *Strip
	lights   *led.Memory
	sensor   *Sensor
	buttons  map[hat.ButtonID]*Button
}

// NewBoard creates a board without generated readings.
func NewBoard(logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		logger:   logger,
		failOpen: make(map[string]error),
		buttons:  make(map[hat.ButtonID]*Button),
	}
}

// FailOpen makes the next Open of part return err.
func (b *Board) FailOpen(part string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failOpen[part] = err
}

func (b *Board) openErr(part string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.failOpen[part]; ok {
		delete(b.failOpen, part)
		return fmt.Errorf("sim %s: %w", part, err)
	}
	return nil
}

// OpenDisplay implements hat.Factory.
func (b *Board) OpenDisplay() (hat.Display, error) {
	if err := b.openErr(PartDisplay); err != nil {
		return nil, err
	}
	d := &Display{logger: b.logger}
	b.mu.Lock()
	b.display = d
	b.mu.Unlock()
	return d, nil
}

// OpenStrip implements hat.Factory.
func (b *Board) OpenStrip() (hat.Strip, error) {
	if err := b.openErr(PartStrip); err != nil {
		return nil, err
	}
	s := &Strip{}
	b.mu.Lock()
	b.strip = s
	b.mu.Unlock()
	return s, nil
}

// OpenLights implements hat.Factory.
func (b *Board) OpenLights() (led.Controller, error) {
	if err := b.openErr(PartLights); err != nil {
		return nil, err
	}
	l := led.NewMemory(b.logger, led.Red, led.Green, led.Blue)
	b.mu.Lock()
	b.lights = l
	b.mu.Unlock()
	return l, nil
}

// OpenButton implements hat.Factory.
func (b *Board) OpenButton(id hat.ButtonID) (hat.Button, error) {
	if !slices.Contains(hat.Buttons, id) {
		return nil, fmt.Errorf("unknown button %q", id)
	}
	if err := b.openErr(PartButton(id)); err != nil {
		return nil, err
	}
	btn := &Button{id: id}
	b.mu.Lock()
	b.buttons[id] = btn
	b.mu.Unlock()
	return btn, nil
}

// OpenSensor implements hat.Factory.
func (b *Board) OpenSensor(bus *events.Bus) (hat.Sensor, error) {
	if err := b.openErr(PartSensor); err != nil {
		return nil, err
	}
	s := &Sensor{
		bus:      bus,
		interval: b.SensorInterval,
		logger:   b.logger,
		done:     make(chan struct{}),
	}
	b.mu.Lock()
	b.sensor = s
	b.mu.Unlock()
	return s, nil
}

// Close implements hat.Factory.
func (b *Board) Close() error {
	return nil
}

// Display returns the last opened display, nil before OpenDisplay.
func (b *Board) Display() *Display {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.display
}

// Strip returns the last opened strip.
func (b *Board) Strip() *Strip {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.strip
}

// Lights returns the status LEDs.
func (b *Board) Lights() *led.Memory {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lights
}

// Sensor returns the environment sensor.
func (b *Board) Sensor() *Sensor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sensor
}

// Button returns the button with the given id.
func (b *Board) Button(id hat.ButtonID) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buttons[id]
}

// Display records written text.
type Display struct {
	logger *slog.Logger

	mu       sync.Mutex
	writes   []string
	current  string
	clears   int
	closes   int
	writeErr error
	closeErr error
	stall    chan struct{}
}

// Write implements hat.Display.
func (d *Display) Write(text string) error {
	d.mu.Lock()
	stall := d.stall
	d.mu.Unlock()
	if stall != nil {
		<-stall
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeErr != nil {
		return d.writeErr
	}
	if text != d.current {
		d.logger.Debug("Display", "text", text)
	}
	d.writes = append(d.writes, text)
	d.current = text
	return nil
}

// Clear implements hat.Display.
func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeErr != nil {
		return d.writeErr
	}
	d.clears++
	d.current = ""
	return nil
}

// Close implements hat.Display.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return d.closeErr
}

// Writes returns every text written so far.
func (d *Display) Writes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.writes)
}

// Text returns what the display currently shows, "" when cleared.
func (d *Display) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Clears returns the number of Clear calls.
func (d *Display) Clears() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// Closes returns the number of Close calls.
func (d *Display) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// FailWrites makes Write and Clear return err until called with nil.
func (d *Display) FailWrites(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeErr = err
}

// StallWrites makes Write block until the returned release is called.
func (d *Display) StallWrites() (release func()) {
	stall := make(chan struct{})
	d.mu.Lock()
	d.stall = stall
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			d.stall = nil
			d.mu.Unlock()
			close(stall)
		})
	}
}

// FailClose makes Close return err.
func (d *Display) FailClose(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeErr = err
}

// Strip records written frames.
type Strip struct {
	mu         sync.Mutex
	frames     []colors.Frame
	brightness uint8
	closes     int
	writeErr   error
	closeErr   error
}

// Write implements hat.Strip.
func (s *Strip) Write(frame colors.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.frames = append(s.frames, frame)
	return nil
}

// SetBrightness implements hat.Strip.
func (s *Strip) SetBrightness(level uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = level
	return nil
}

// Close implements hat.Strip.
func (s *Strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.closeErr
}

// Frames returns every frame written so far.
func (s *Strip) Frames() []colors.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frames)
}

// Last returns the most recent frame and whether one was written.
func (s *Strip) Last() (colors.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return colors.Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Brightness returns the last brightness set.
func (s *Strip) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Closes returns the number of Close calls.
func (s *Strip) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// FailWrites makes Write return err until called with nil.
func (s *Strip) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// FailClose makes Close return err.
func (s *Strip) FailClose(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeErr = err
}

// Button can be pressed from code.
type Button struct {
	id hat.ButtonID

	mu      sync.Mutex
	handler func(pressed bool)
	closes  int
}

// OnPress implements hat.Button.
func (b *Button) OnPress(handler func(pressed bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

// Close implements hat.Button. Presses after Close are ignored.
func (b *Button) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return nil
}

// Press delivers a press followed by a release.
func (b *Button) Press() {
	b.Set(true)
	b.Set(false)
}

// Set delivers a single state change.
func (b *Button) Set(pressed bool) {
	b.mu.Lock()
	handler := b.handler
	closed := b.closes > 0
	b.mu.Unlock()

	if handler != nil && !closed {
		handler(pressed)
	}
}

// Closes returns the number of Close calls.
func (b *Button) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// Sensor publishes injected or generated readings.
type Sensor struct {
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	temperature bool
	pressure    bool
	generating  bool
	closed      bool
	closes      int
	done        chan struct{}
	wg          sync.WaitGroup
}

var errSensorClosed = errors.New("sim sensor: closed")

// RegisterTemperature implements hat.Sensor.
func (s *Sensor) RegisterTemperature() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSensorClosed
	}
	s.temperature = true
	s.startLocked()
	return nil
}

// RegisterPressure implements hat.Sensor.
func (s *Sensor) RegisterPressure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSensorClosed
	}
	s.pressure = true
	s.startLocked()
	return nil
}

// Close implements hat.Sensor.
func (s *Sensor) Close() error {
	s.mu.Lock()
	s.closes++
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Closes returns the number of Close calls.
func (s *Sensor) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Temperature publishes a reading when the channel is registered.
func (s *Sensor) Temperature(celsius float64) {
	s.mu.Lock()
	ok := s.temperature && !s.closed
	s.mu.Unlock()
	if ok {
		s.bus.Publish(events.TemperatureEvent{Celsius: celsius, Timestamp: time.Now()})
	}
}

// Pressure publishes a reading when the channel is registered.
func (s *Sensor) Pressure(hPa float64) {
	s.mu.Lock()
	ok := s.pressure && !s.closed
	s.mu.Unlock()
	if ok {
		s.bus.Publish(events.PressureEvent{HPa: hPa, Timestamp: time.Now()})
	}
}

func (s *Sensor) startLocked() {
	if s.generating || s.interval <= 0 {
		return
	}
	s.generating = true
	s.wg.Add(1)
	go s.generate()
	s.logger.Info("Simulated sensor started", "interval", s.interval)
}

// generate emits a slow daily-looking swing around 21°C and 1013hPa.
func (s *Sensor) generate() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			phase := now.Sub(start).Minutes() / 10 * 2 * math.Pi
			s.Temperature(21 + 6*math.Sin(phase))
			s.Pressure(1013 + 20*math.Cos(phase))
		}
	}
}
