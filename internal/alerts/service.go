package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type alertRepository interface {
	Create(ctx context.Context, alert *models.SensorAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SensorAlert, error)
	ListBySensor(ctx context.Context, sensorID uuid.UUID, filter ListFilter) ([]models.SensorAlert, error)
	Acknowledge(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)
}

// sensorScope authorizes access to a sensor's data; sensors.Service satisfies it.
type sensorScope interface {
	Scope(ctx context.Context, p authz.Principal, entity authz.Entity, action authz.Action, sensorID uuid.UUID) ([]uuid.UUID, error)
}

// Service exposes sensor alert operations.
type Service interface {
	ListBySensor(ctx context.Context, p authz.Principal, sensorID uuid.UUID, filter ListFilter) ([]AlertDTO, error)
	Create(ctx context.Context, p authz.Principal, sensorID uuid.UUID, input CreateAlertInput) (*AlertDTO, error)
	Acknowledge(ctx context.Context, p authz.Principal, sensorID, alertID uuid.UUID) (*AlertDTO, error)
}

type service struct {
	repo    alertRepository
	sensors sensorScope
	now     func() time.Time
}

func NewService(repo alertRepository, sensors sensorScope) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alert repository required")
	}
	if sensors == nil {
		return nil, fmt.Errorf("sensor scope required")
	}
	return &service{repo: repo, sensors: sensors, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) ListBySensor(ctx context.Context, p authz.Principal, sensorID uuid.UUID, filter ListFilter) ([]AlertDTO, error) {
	if _, err := s.sensors.Scope(ctx, p, authz.EntitySensorAlert, authz.ActionList, sensorID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListBySensor(ctx, sensorID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sensor alerts")
	}
	return FromModels(rows), nil
}

// Create records an alert. The organization id is copied from the sensor's
// first link.
func (s *service) Create(ctx context.Context, p authz.Principal, sensorID uuid.UUID, input CreateAlertInput) (*AlertDTO, error) {
	severity, err := enums.ParseAlertSeverity(input.Severity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid severity")
	}
	alertType := strings.TrimSpace(input.Type)
	message := strings.TrimSpace(input.Message)
	if alertType == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type and message are required")
	}

	orgIDs, err := s.sensors.Scope(ctx, p, authz.EntitySensorAlert, authz.ActionCreate, sensorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ts := now
	if input.Timestamp != nil {
		ts = input.Timestamp.UTC()
	}
	alert := &models.SensorAlert{
		ID:        uuid.New(),
		SensorID:  sensorID,
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		Timestamp: ts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(orgIDs) > 0 {
		org := orgIDs[0]
		alert.OrganizationID = &org
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sensor alert")
	}
	return FromModel(alert), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.SensorAlert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sensor alert")
	}
	return alert, nil
}

// Acknowledge marks the alert as seen by the caller. A second call returns
// the recorded acknowledgement unchanged.
func (s *service) Acknowledge(ctx context.Context, p authz.Principal, sensorID, alertID uuid.UUID) (*AlertDTO, error) {
	if _, err := s.sensors.Scope(ctx, p, authz.EntitySensorAlert, authz.ActionUpdate, sensorID); err != nil {
		return nil, err
	}
	alert, err := s.load(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.SensorID != sensorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
	}
	if alert.Acknowledged {
		return FromModel(alert), nil
	}
	if _, err := s.repo.Acknowledge(ctx, alertID, p.Subject, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acknowledge sensor alert")
	}
	alert, err = s.load(ctx, alertID)
	if err != nil {
		return nil, err
	}
	return FromModel(alert), nil
}
