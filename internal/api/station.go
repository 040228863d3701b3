package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/weatherhat/internal/api/models"
	"github.com/smazurov/weatherhat/internal/metrics"
	"github.com/smazurov/weatherhat/internal/version"
)

func (s *Server) registerStationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Station status",
		Description: "Active mode, last readings and running totals",
		Tags:        []string{"station"},
	}, func(_ context.Context, _ *struct{}) (*models.StationStatusResponse, error) {
		snap := metrics.GetSnapshot()
		return &models.StationStatusResponse{
			Body: models.StationStatus{
				Mode:        s.options.Station.Mode().String(),
				Temperature: snap.Temperature,
				Pressure:    snap.Pressure,
				Writes:      snap.Writes,
				IOErrors:    snap.IOErrors,
				Dropped:     snap.Dropped,
				Presses:     snap.Presses,
				Version:     version.Get().Version,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health probe",
		Description: "Succeeds when the station loop answers within the ping timeout",
		Tags:        []string{"station"},
	}, func(ctx context.Context, _ *struct{}) (*models.HealthResponse, error) {
		pingCtx, cancel := context.WithTimeout(ctx, s.options.PingTimeout)
		defer cancel()
		if err := s.options.Station.Ping(pingCtx); err != nil {
			return nil, huma.Error503ServiceUnavailable("Station loop is not responding", err)
		}
		return &models.HealthResponse{Body: models.Health{Status: "ok"}}, nil
	})
}
