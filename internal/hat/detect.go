package hat

import (
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Drivers accepted by the hardware.driver option.
const (
	DriverAuto       = "auto"
	DriverRainbowHAT = "rainbowhat"
	DriverSim        = "sim"
)

// ResolveDriver turns DriverAuto into a concrete driver based on board
// detection. Other values are returned unchanged.
func ResolveDriver(driver string) string {
	if driver != DriverAuto && driver != "" {
		return driver
	}
	if strings.Contains(DetectBoard(), "Raspberry Pi") {
		return DriverRainbowHAT
	}
	return DriverSim
}

// DetectBoard reads the device tree model to identify the board.
func DetectBoard() string {
	return readModel(deviceTreeModelPath)
}

func readModel(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
