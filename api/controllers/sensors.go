package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/sensors"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

type sensorRequest struct {
	SerialNumber         *string         `json:"serialNumber,omitempty" validate:"omitempty,max=100"`
	Name                 *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	Lat                  *float64        `json:"lat,omitempty" validate:"omitempty,latitude"`
	Long                 *float64        `json:"long,omitempty" validate:"omitempty,longitude"`
	LocationName         *string         `json:"locationName,omitempty"`
	Status               *int            `json:"status,omitempty"`
	Enabled              *bool           `json:"enabled,omitempty"`
	FirmwareVersion      *string         `json:"firmwareVersion,omitempty"`
	HardwareVersion      *string         `json:"hardwareVersion,omitempty"`
	BatteryLevel         *float64        `json:"batteryLevel,omitempty" validate:"omitempty,min=0,max=100"`
	LastServiceDate      *time.Time      `json:"lastServiceDate,omitempty"`
	NextScheduledService *time.Time      `json:"nextScheduledService,omitempty"`
	LEDConfiguration     json.RawMessage `json:"ledConfiguration,omitempty"`
	CalibrationData      json.RawMessage `json:"calibrationData,omitempty"`
	MeasurableParameters *[]string       `json:"measurableParameters,omitempty"`
}

func (req sensorRequest) toFields() sensors.Fields {
	return sensors.Fields{
		SerialNumber:         trimmed(req.SerialNumber),
		Name:                 trimmed(req.Name),
		Lat:                  req.Lat,
		Long:                 req.Long,
		LocationName:         trimmed(req.LocationName),
		Status:               req.Status,
		Enabled:              req.Enabled,
		FirmwareVersion:      trimmed(req.FirmwareVersion),
		HardwareVersion:      trimmed(req.HardwareVersion),
		BatteryLevel:         req.BatteryLevel,
		LastServiceDate:      req.LastServiceDate,
		NextScheduledService: req.NextScheduledService,
		LEDConfiguration:     req.LEDConfiguration,
		CalibrationData:      req.CalibrationData,
		MeasurableParameters: req.MeasurableParameters,
	}
}

// SensorList returns the sensors visible to the caller.
func SensorList(svc sensors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sensor service unavailable"))
			return
		}

		rows, err := svc.ListVisible(ctx, middleware.PrincipalFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func SensorGet(svc sensors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sensor service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sensor, err := svc.Get(ctx, middleware.PrincipalFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sensor)
	}
}

type sensorRegisterRequest struct {
	sensorRequest
	SerialNumber string `json:"serialNumber" validate:"required,max=100"`
	Name         string `json:"name" validate:"required,max=200"`
}

func AdminSensorRegister(svc sensors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sensor service unavailable"))
			return
		}

		var payload sensorRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		fields := payload.toFields()
		fields.SerialNumber = trimmed(&payload.SerialNumber)
		fields.Name = trimmed(&payload.Name)
		sensor, err := svc.Register(ctx, middleware.PrincipalFromContext(ctx), fields)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sensor)
	}
}

func AdminSensorUpdate(svc sensors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sensor service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload sensorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sensor, err := svc.Update(ctx, middleware.PrincipalFromContext(ctx), id, payload.toFields())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sensor)
	}
}

// AdminSensorLink attaches a sensor to an organization. Linking twice is a
// no-op reported with changed=false.
func AdminSensorLink(svc sensors.Service, logg *logger.Logger) http.HandlerFunc {
	return sensorLinkHandler(svc, logg, true)
}

func AdminSensorUnlink(svc sensors.Service, logg *logger.Logger) http.HandlerFunc {
	return sensorLinkHandler(svc, logg, false)
}

func sensorLinkHandler(svc sensors.Service, logg *logger.Logger, link bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sensor service unavailable"))
			return
		}

		sensorID, err := validators.PathUUID(r, "sensorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(ctx)
		var res sensors.LinkResult
		if link {
			res, err = svc.LinkOrganization(ctx, p, sensorID, orgID)
		} else {
			res, err = svc.UnlinkOrganization(ctx, p, sensorID, orgID)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}
