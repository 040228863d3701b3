package led

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller using Linux sysfs LED interface, for boards where
// a gpio-leds overlay exposes the status LEDs.
type sysfs struct {
	root string
	leds map[string]string // LED name -> sysfs name mapping
}

// newSysfs creates a new sysfs LED controller with board-specific LED mappings
func newSysfs(root string, leds map[string]string) *sysfs {
	return &sysfs{
		root: root,
		leds: leds,
	}
}

// Set controls an LED's state
func (s *sysfs) Set(name string, on bool) error {
	sysfsName, ok := s.leds[name]
	if !ok {
		return fmt.Errorf("LED %q not supported on this board", name)
	}

	ledPath := filepath.Join(s.root, sysfsName)

	// Check if LED exists
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s", name, ledPath)
	}

	// Manual control only
	triggerPath := filepath.Join(ledPath, "trigger")
	if _, err := os.Stat(triggerPath); err == nil {
		if err := os.WriteFile(triggerPath, []byte("none"), 0644); err != nil {
			return fmt.Errorf("failed to set LED trigger to none: %w", err)
		}
	}

	brightnessValue := "0"
	if on {
		brightnessValue = "1"
	}

	brightnessPath := filepath.Join(ledPath, "brightness")
	if err := os.WriteFile(brightnessPath, []byte(brightnessValue), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}

	return nil
}

// Available returns the list of LED names supported by this controller
func (s *sysfs) Available() []string {
	names := make([]string, 0, len(s.leds))
	for name := range s.leds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close is a no-op, sysfs files are opened per write.
func (s *sysfs) Close() error {
	return nil
}
