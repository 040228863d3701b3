package models

// StationStatus describes what the station is currently showing.
type StationStatus struct {
	Mode        string   `json:"mode" example:"temperature" doc:"Active display mode (time, temperature, pressure, closed)"`
	Temperature *float64 `json:"temperature_celsius,omitempty" example:"21.4" doc:"Last temperature reading"`
	Pressure    *float64 `json:"pressure_hpa,omitempty" example:"1013.2" doc:"Last pressure reading"`
	Writes      uint64   `json:"writes" doc:"Peripheral writes since start"`
	IOErrors    uint64   `json:"io_errors" doc:"Failed peripheral operations since start"`
	Dropped     uint64   `json:"dropped" doc:"Discarded ticks, readings and presses"`
	Presses     uint64   `json:"presses" doc:"Button presses since start"`
	Version     string   `json:"version" example:"v1.0.0" doc:"Daemon version"`
}

// StationStatusResponse wraps StationStatus for API responses.
type StationStatusResponse struct {
	Body StationStatus
}

// Health reports whether the dispatch loop answers.
type Health struct {
	Status string `json:"status" example:"ok" doc:"ok when the station loop responds"`
}

// HealthResponse wraps Health for API responses.
type HealthResponse struct {
	Body Health
}
