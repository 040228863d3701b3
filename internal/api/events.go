package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/weatherhat/internal/events"
)

// registerSSERoutes streams bus events to clients. The first message is
// always the current mode.
func (s *Server) registerSSERoutes() {
	if s.options.Bus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Readings, button presses and mode changes as they happen",
		Tags:        []string{"events"},
	}, map[string]any{
		"temperature":  events.TemperatureEvent{},
		"pressure":     events.PressureEvent{},
		"button":       events.ButtonEvent{},
		"mode-changed": events.ModeChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.TemperatureEvent](s.options.Bus, eventCh),
			events.SubscribeToChannel[events.PressureEvent](s.options.Bus, eventCh),
			events.SubscribeToChannel[events.ButtonEvent](s.options.Bus, eventCh),
			events.SubscribeToChannel[events.ModeChangedEvent](s.options.Bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		mode := s.options.Station.Mode().String()
		if err := send.Data(events.ModeChangedEvent{Mode: mode, Previous: mode, Timestamp: time.Now()}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
