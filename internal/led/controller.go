// Package led drives the single-color status LEDs that indicate the active
// display mode.
package led

// Names of the Rainbow HAT status LEDs.
const (
	Red   = "red"
	Green = "green"
	Blue  = "blue"
)

// Controller abstracts status LED hardware.
// Implementations map a board-independent LED name to a physical line.
type Controller interface {
	// Set switches the named LED on or off.
	Set(name string, on bool) error

	// Available returns the LED names supported by this controller
	Available() []string

	// Close releases the underlying lines. The LEDs are left as they are.
	Close() error
}
