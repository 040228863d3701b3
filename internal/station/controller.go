// Package station runs the weather station: it owns the Rainbow HAT
// peripherals, tracks the display mode and renders the clock and sensor
// readings.
//
// All peripheral access happens on a single dispatch goroutine. The refresh
// ticker, sensor subscriptions and button handlers only enqueue messages.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/weatherhat/internal/colors"
	"github.com/smazurov/weatherhat/internal/events"
	"github.com/smazurov/weatherhat/internal/hat"
	"github.com/smazurov/weatherhat/internal/led"
	"github.com/smazurov/weatherhat/internal/metrics"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("station: controller closed")

// Lifecycle is the part of the controller driven by the process shell.
type Lifecycle interface {
	Start() error
	Stop() error
	Close() error
}

var _ Lifecycle = (*Controller)(nil)

type message any

type tickMsg struct {
	gen uint64
}

type readingMsg struct {
	gen   uint64
	mode  Mode
	value float64
}

type pressMsg struct {
	gen     uint64
	mode    Mode
	pressed bool
}

type callMsg struct {
	fn   func()
	done chan struct{}
}

type closer struct {
	name  string
	close func() error
}

// Controller drives the display, the LED strip and the status LEDs.
type Controller struct {
	cfg    Config
	bus    *events.Bus
	logger *slog.Logger

	display  hat.Display
	strip    hat.Strip
	lights   led.Controller
	selector *led.Selector
	sensor   hat.Sensor
	buttons  []hat.Button

	inbox    chan message
	closing  chan struct{}
	quit     chan struct{}
	done     chan struct{}
	gen      atomic.Uint64
	snapshot atomic.Int32

	// Lifecycle state, guarded by mu.
	mu      sync.Mutex
	running bool
	closed  bool
	unsubs  []func()
	cancel  context.CancelFunc
	tickers sync.WaitGroup

	// Owned by the dispatch goroutine.
	mode       Mode
	active     bool
	activeGen  uint64
	offset     time.Duration
	divisor    float64
	brightness uint8
	last       map[Mode]float64
}

// New opens every peripheral of the board and shows "Init" on the display.
// If any peripheral cannot be opened, the ones already opened are released
// and the error is returned.
func New(factory hat.Factory, bus *events.Bus, cfg Config, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	c := &Controller{
		cfg:        cfg,
		bus:        bus,
		logger:     logger,
		inbox:      make(chan message, cfg.InboxSize),
		closing:    make(chan struct{}),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		mode:       ModeTime,
		offset:     cfg.UTCOffset,
		divisor:    cfg.TemperatureDivisor,
		brightness: cfg.Brightness,
		last:       make(map[Mode]float64),
	}

	var opened []closer
	fail := func(err error) (*Controller, error) {
		c.release(opened)
		return nil, err
	}

	display, err := factory.OpenDisplay()
	if err != nil {
		return fail(fmt.Errorf("open display: %w", err))
	}
	c.display = display
	opened = append(opened, closer{"display", display.Close})
	c.io("display", func() error { return display.Write("Init") })

	sensor, err := factory.OpenSensor(bus)
	if err != nil {
		return fail(fmt.Errorf("open sensor: %w", err))
	}
	c.sensor = sensor
	opened = append(opened, closer{"sensor", sensor.Close})
	if err := sensor.RegisterTemperature(); err != nil {
		return fail(fmt.Errorf("register temperature: %w", err))
	}
	if err := sensor.RegisterPressure(); err != nil {
		return fail(fmt.Errorf("register pressure: %w", err))
	}

	strip, err := factory.OpenStrip()
	if err != nil {
		return fail(fmt.Errorf("open strip: %w", err))
	}
	c.strip = strip
	opened = append(opened, closer{"strip", strip.Close})
	if err := strip.SetBrightness(cfg.Brightness); err != nil {
		return fail(fmt.Errorf("set strip brightness: %w", err))
	}

	lights, err := factory.OpenLights()
	if err != nil {
		return fail(fmt.Errorf("open status LEDs: %w", err))
	}
	c.lights = lights
	opened = append(opened, closer{"lights", lights.Close})
	c.selector, err = led.NewSelector(lights, led.Red, led.Green, led.Blue)
	if err != nil {
		return fail(fmt.Errorf("status LEDs: %w", err))
	}
	if err := c.selector.Select(ModeTime.light()); err != nil {
		return fail(fmt.Errorf("select status LED: %w", err))
	}

	for _, id := range hat.Buttons {
		btn, err := factory.OpenButton(id)
		if err != nil {
			return fail(fmt.Errorf("open button %s: %w", id, err))
		}
		c.buttons = append(c.buttons, btn)
		opened = append(opened, closer{"button " + string(id), btn.Close})
		btn.OnPress(c.pressHandler(id))
	}

	c.snapshot.Store(int32(ModeTime))
	metrics.SetMode(ModeTime.String(), ModeNames()...)

	go c.run()

	logger.Info("Station ready", "refresh", cfg.RefreshInterval, "utc_offset", cfg.UTCOffset,
		"divisor", cfg.TemperatureDivisor, "brightness", cfg.Brightness)
	return c, nil
}

// Mode returns the current display mode.
func (c *Controller) Mode() Mode {
	return Mode(c.snapshot.Load())
}

// Start begins refreshing the clock and listening to sensor readings.
// Starting a running controller does nothing.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.running {
		return nil
	}

	gen := c.gen.Add(1)
	if err := c.barrier("start", func() {
		c.active = true
		c.activeGen = gen
		c.render()
	}); err != nil {
		// A late activation must not accept anything: retire gen.
		c.gen.Add(1)
		return err
	}

	c.unsubs = []func(){
		c.bus.Subscribe(func(e events.TemperatureEvent) {
			c.offer(readingMsg{gen: gen, mode: ModeTemperature, value: e.Celsius})
		}),
		c.bus.Subscribe(func(e events.PressureEvent) {
			c.offer(readingMsg{gen: gen, mode: ModePressure, value: e.HPa})
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.tickers.Add(1)
	go c.tick(ctx, gen)

	c.running = true
	c.logger.Info("Station started", "mode", c.Mode())
	return nil
}

// Stop halts the refresh ticker and sensor subscriptions. When Stop returns,
// nothing queued before the call can reach a peripheral anymore.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if !c.running {
		return nil
	}

	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
	c.cancel()
	c.tickers.Wait()
	c.running = false

	if err := c.barrier("stop", func() { c.active = false }); err != nil {
		return err
	}
	c.logger.Info("Station stopped")
	return nil
}

// Close stops the station, blanks every output and releases all peripherals.
// Teardown continues past failures; they are logged and returned joined.
// Closing a closed controller returns nil.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closing)

	var errs []error
	if err := c.stopLocked(); err != nil {
		errs = append(errs, err)
	}
	result := make(chan []error, 1)
	if err := c.barrier("close", func() { result <- c.teardown() }); err != nil {
		errs = append(errs, err)
	} else {
		errs = append(errs, <-result...)
	}

	close(c.quit)
	select {
	case <-c.done:
	case <-time.After(c.cfg.BarrierTimeout):
		c.logger.Error("Dispatch loop did not exit, abandoning it", "timeout", c.cfg.BarrierTimeout)
		errs = append(errs, fmt.Errorf("close: dispatch loop still busy after %s", c.cfg.BarrierTimeout))
	}

	c.snapshot.Store(int32(ModeClosed))
	c.logger.Info("Station closed", "errors", len(errs))
	return errors.Join(errs...)
}

// Apply changes the runtime settings and re-renders the current mode.
func (c *Controller) Apply(ctx context.Context, s Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.call(ctx, func() {
		c.offset = s.UTCOffset
		if s.TemperatureDivisor > 0 {
			c.divisor = s.TemperatureDivisor
		}
		if s.Brightness != 0 && s.Brightness != c.brightness {
			c.brightness = s.Brightness
			c.io("strip", func() error { return c.strip.SetBrightness(s.Brightness) })
		}
		c.logger.Info("Settings applied", "utc_offset", c.offset, "divisor", c.divisor, "brightness", c.brightness)
		if c.active {
			c.render()
		}
	})
}

// Ping returns once the dispatch loop has drained everything queued before
// it. It is the liveness check behind the service watchdog.
func (c *Controller) Ping(ctx context.Context) error {
	return c.call(ctx, func() {})
}

func (c *Controller) pressHandler(id hat.ButtonID) func(bool) {
	mode := buttonModes[id]
	return func(pressed bool) {
		c.bus.Publish(events.ButtonEvent{Button: string(id), Pressed: pressed, Timestamp: time.Now()})
		if !pressed {
			return
		}
		c.offerWait(pressMsg{gen: c.gen.Load(), mode: mode, pressed: pressed}, pressWait)
	}
}

func (c *Controller) tick(ctx context.Context, gen uint64) {
	defer c.tickers.Done()

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.offer(tickMsg{gen: gen})
		}
	}
}

// offer enqueues msg or drops it when the inbox is full.
func (c *Controller) offer(msg message) {
	select {
	case c.inbox <- msg:
	default:
		metrics.RecordDropped("inbox_full")
		c.logger.Debug("Inbox full, dropping message", "type", fmt.Sprintf("%T", msg))
	}
}

// offerWait waits up to d for room in the inbox.
func (c *Controller) offerWait(msg message, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case c.inbox <- msg:
	case <-c.closing:
	case <-timer.C:
		metrics.RecordDropped("inbox_full")
		c.logger.Warn("Inbox full, dropping button press", "wait", d)
	}
}

// barrier runs fn on the dispatch goroutine, waiting at most
// cfg.BarrierTimeout. fn may still run after a timeout.
func (c *Controller) barrier(op string, fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.BarrierTimeout)
	defer cancel()

	err := c.call(ctx, fn)
	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Error("Dispatch loop did not answer", "op", op, "timeout", c.cfg.BarrierTimeout)
		return fmt.Errorf("%s: dispatch loop busy: %w", op, err)
	}
	return err
}

// call runs fn on the dispatch goroutine and waits for it to finish.
func (c *Controller) call(ctx context.Context, fn func()) error {
	msg := callMsg{fn: fn, done: make(chan struct{})}

	select {
	case c.inbox <- msg:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-msg.done:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case <-c.quit:
			return
		case msg := <-c.inbox:
			c.handle(msg)
		}
	}
}

func (c *Controller) handle(msg message) {
	switch m := msg.(type) {
	case callMsg:
		m.fn()
		close(m.done)
	case tickMsg:
		if !c.accept(m.gen) {
			return
		}
		if c.mode == ModeTime {
			c.renderTime()
		}
	case readingMsg:
		if !c.accept(m.gen) {
			return
		}
		c.last[m.mode] = m.value
		if m.mode != c.mode {
			metrics.RecordDropped("stale_mode")
			return
		}
		c.renderReading(m.mode, m.value)
	case pressMsg:
		if !c.accept(m.gen) || !m.pressed {
			return
		}
		c.switchMode(m.mode)
	}
}

// accept reports whether a message from generation gen may reach the
// peripherals.
func (c *Controller) accept(gen uint64) bool {
	if c.active && gen == c.activeGen {
		return true
	}
	metrics.RecordDropped("stopped")
	return false
}

func (c *Controller) switchMode(next Mode) {
	prev := c.mode
	c.mode = next
	c.snapshot.Store(int32(next))

	c.io("lights", func() error { return c.selector.Select(next.light()) })

	if prev != next {
		c.logger.Info("Mode changed", "mode", next, "previous", prev)
		c.bus.Publish(events.ModeChangedEvent{
			Mode:      next.String(),
			Previous:  prev.String(),
			Timestamp: time.Now(),
		})
	}
	c.render()
}

func (c *Controller) render() {
	switch c.mode {
	case ModeTime:
		c.renderTime()
	case ModeTemperature, ModePressure:
		if v, ok := c.last[c.mode]; ok {
			c.renderReading(c.mode, v)
			return
		}
		c.writeDisplay(c.mode.title())
		c.writeStrip(colors.AllOff())
	}
}

func (c *Controller) renderTime() {
	now := c.cfg.Now().Add(c.offset)
	c.writeDisplay(clockText(now))
	c.writeStrip(colors.TimeColors(now.Second()))
}

func (c *Controller) renderReading(mode Mode, value float64) {
	switch mode {
	case ModeTemperature:
		c.writeDisplay(temperatureText(value))
		c.writeStrip(colors.TemperatureColorsWithDivisor(value, c.divisor))
	case ModePressure:
		c.writeDisplay(pressureText(value))
		c.writeStrip(colors.PressureColors(value))
	}
}

func (c *Controller) writeDisplay(text string) {
	c.io("display", func() error { return c.display.Write(text) })
}

func (c *Controller) writeStrip(frame colors.Frame) {
	c.io("strip", func() error { return c.strip.Write(frame) })
}

// io runs one peripheral operation, logging and counting failures and slow
// writes. Failures leave the output as it was.
func (c *Controller) io(peripheral string, fn func() error) {
	start := time.Now()
	err := fn()
	if elapsed := time.Since(start); elapsed > c.cfg.SlowIOThreshold {
		c.logger.Warn("Slow peripheral write", "peripheral", peripheral, "elapsed", elapsed)
	}
	if err != nil {
		metrics.RecordIOError(peripheral)
		c.logger.Warn("Peripheral write failed", "peripheral", peripheral, "error", err)
		return
	}
	metrics.RecordWrite(peripheral)
}

// teardown blanks the outputs and closes every peripheral. Buttons and the
// sensor go first so no new input arrives while the outputs are cleared.
func (c *Controller) teardown() []error {
	var errs []error
	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			metrics.RecordIOError(name)
			c.logger.Warn("Teardown step failed", "step", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	for i, btn := range c.buttons {
		step("close button "+string(hat.Buttons[i]), btn.Close)
	}
	step("close sensor", c.sensor.Close)

	step("clear display", c.display.Clear)
	step("blank strip", func() error { return c.strip.Write(colors.AllOff()) })
	step("status LEDs off", c.selector.Off)

	step("close display", c.display.Close)
	step("close strip", c.strip.Close)
	step("close status LEDs", c.lights.Close)

	c.active = false
	c.mode = ModeClosed
	return errs
}

// release closes partially opened peripherals in reverse order.
func (c *Controller) release(opened []closer) {
	for i := len(opened) - 1; i >= 0; i-- {
		if err := opened[i].close(); err != nil {
			c.logger.Warn("Failed to release peripheral", "peripheral", opened[i].name, "error", err)
		}
	}
}
