package controllers

import (
	"net/http"
	"time"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/alerts"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

// AlertList returns a sensor's alerts, newest first.
func AlertList(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		sensorID, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		acknowledged, err := validators.ParseQueryBool(r, "acknowledged")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListBySensor(ctx, middleware.PrincipalFromContext(ctx), sensorID, alerts.ListFilter{
			Acknowledged: acknowledged,
			Limit:        limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AlertAcknowledge(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		sensorID, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		alertID, err := validators.PathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alert, err := svc.Acknowledge(ctx, middleware.PrincipalFromContext(ctx), sensorID, alertID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

type alertCreateRequest struct {
	Type      string     `json:"type" validate:"required,max=100"`
	Severity  int        `json:"severity" validate:"required,min=1,max=3"`
	Message   string     `json:"message" validate:"required,max=2000"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func AdminAlertCreate(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		sensorID, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload alertCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alert, err := svc.Create(ctx, middleware.PrincipalFromContext(ctx), sensorID, alerts.CreateAlertInput{
			Type:      payload.Type,
			Severity:  payload.Severity,
			Message:   payload.Message,
			Timestamp: payload.Timestamp,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, alert)
	}
}
