package rainbowhat

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/smazurov/weatherhat/internal/hat"
)

const (
	// edgePoll bounds how long the watcher blocks before checking for Close.
	edgePoll = 100 * time.Millisecond
	debounce = 20 * time.Millisecond
)

// button watches an active-low input line with edge detection.
type button struct {
	id     hat.ButtonID
	pin    gpio.PinIO
	logger *slog.Logger

	mu      sync.Mutex
	handler func(pressed bool)

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func openButton(id hat.ButtonID, pinName string, logger *slog.Logger) (*button, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("button %s: GPIO pin %q not found", id, pinName)
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("button %s: configure %s: %w", id, pinName, err)
	}

	b := &button{
		id:     id,
		pin:    pin,
		logger: logger,
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.watch()
	return b, nil
}

func (b *button) OnPress(handler func(pressed bool)) {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
}

func (b *button) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		err = b.pin.Halt()
	})
	return err
}

func (b *button) watch() {
	defer b.wg.Done()

	pressed := b.pin.Read() == gpio.Low
	var changedAt time.Time

	for {
		select {
		case <-b.done:
			return
		default:
		}

		if !b.pin.WaitForEdge(edgePoll) {
			continue
		}

		now := time.Now()
		state := b.pin.Read() == gpio.Low
		if state == pressed || now.Sub(changedAt) < debounce {
			continue
		}
		pressed = state
		changedAt = now

		b.logger.Debug("Button changed", "button", b.id, "pressed", pressed)

		b.mu.Lock()
		handler := b.handler
		b.mu.Unlock()
		if handler != nil {
			handler(pressed)
		}
	}
}
