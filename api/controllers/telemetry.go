package controllers

import (
	"net/http"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/telemetry"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

// TruncatedHeader is set on telemetry responses that hit the store's item
// cap. Clients narrow the window or resume from the last timestamp.
const TruncatedHeader = "X-Result-Truncated"

func writeTelemetry[T any](w http.ResponseWriter, page telemetry.Page[T]) {
	if page.Truncated {
		w.Header().Set(TruncatedHeader, "true")
	}
	responses.WriteSuccess(w, page.Items)
}

// SensorParameterValues returns parameter readings in [start, end].
func SensorParameterValues(svc telemetry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telemetry service unavailable"))
			return
		}

		sensorID, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		start, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		end, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ParameterValues(ctx, middleware.PrincipalFromContext(ctx), sensorID, telemetry.ParameterQuery{
			Start:      start,
			End:        end,
			Parameters: validators.QueryValues(r, "parameter"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeTelemetry(w, page)
	}
}

// SensorSpectrogramReadings returns spectrogram rows in [start, end],
// optionally for one LED wavelength.
func SensorSpectrogramReadings(svc telemetry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telemetry service unavailable"))
			return
		}

		sensorID, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		start, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		end, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		led, err := validators.ParseQueryFloat(r, "ledWavelength")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.SpectrogramReadings(ctx, middleware.PrincipalFromContext(ctx), sensorID, telemetry.SpectrogramQuery{
			Start:         start,
			End:           end,
			LEDWavelength: led,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeTelemetry(w, page)
	}
}
