package led

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Memory implements Controller without hardware. It keeps the LED states in
// memory and logs changes, which makes it the simulator and test backend.
type Memory struct {
	logger *slog.Logger

	mu     sync.Mutex
	names  []string
	state  map[string]bool
	maxOn  int
	sets   int
	closes int
	err    error
}

// NewMemory creates an in-memory controller for the given LED names.
func NewMemory(logger *slog.Logger, names ...string) *Memory {
	state := make(map[string]bool, len(names))
	for _, name := range names {
		state[name] = false
	}
	return &Memory{
		logger: logger,
		names:  slices.Clone(names),
		state:  state,
	}
}

// Set records the requested LED state.
func (m *Memory) Set(name string, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, ok := m.state[name]; !ok {
		return fmt.Errorf("LED %q not supported on this board", name)
	}

	m.state[name] = on
	m.sets++
	if n := m.countOn(); n > m.maxOn {
		m.maxOn = n
	}

	if m.logger != nil {
		m.logger.Debug("Status LED changed", "led", name, "on", on)
	}
	return nil
}

// Available returns the configured LED names.
func (m *Memory) Available() []string {
	return slices.Clone(m.names)
}

// Close counts the call; Memory stays usable for inspection.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// State reports whether the named LED is on.
func (m *Memory) State(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[name]
}

// On returns the names of all LEDs that are currently on.
func (m *Memory) On() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var on []string
	for _, name := range m.names {
		if m.state[name] {
			on = append(on, name)
		}
	}
	return on
}

// MaxOn is the highest number of LEDs ever lit at the same time.
func (m *Memory) MaxOn() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxOn
}

// Closes returns how many times Close was called.
func (m *Memory) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// FailWith makes every following Set return err. A nil err clears the fault.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) countOn() int {
	n := 0
	for _, on := range m.state {
		if on {
			n++
		}
	}
	return n
}
