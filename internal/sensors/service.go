package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type sensorRepository interface {
	Create(ctx context.Context, sensor *models.Sensor) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sensor, error)
	Update(ctx context.Context, sensor *models.Sensor) error
	ListAll(ctx context.Context) ([]models.Sensor, error)
	ListForUser(ctx context.Context, userID string) ([]models.Sensor, error)
	Link(ctx context.Context, sensorID, orgID uuid.UUID) (bool, error)
	Unlink(ctx context.Context, sensorID, orgID uuid.UUID) (bool, error)
	OrganizationIDs(ctx context.Context, sensorID uuid.UUID) ([]uuid.UUID, error)
}

type organizationLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TenantAuthorizer is the slice of the policy engine the sensor family needs.
type TenantAuthorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
	SeesAllTenants(p authz.Principal) bool
}

// LinkResult reports whether a link call changed anything.
type LinkResult struct {
	SensorID       uuid.UUID `json:"sensorId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Changed        bool      `json:"changed"`
}

// Service exposes sensor operations.
type Service interface {
	Register(ctx context.Context, p authz.Principal, fields Fields) (*SensorDTO, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*SensorDTO, error)
	ListVisible(ctx context.Context, p authz.Principal) ([]SensorDTO, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, fields Fields) (*SensorDTO, error)
	LinkOrganization(ctx context.Context, p authz.Principal, sensorID, orgID uuid.UUID) (LinkResult, error)
	UnlinkOrganization(ctx context.Context, p authz.Principal, sensorID, orgID uuid.UUID) (LinkResult, error)
	// Scope authorizes action on entity for a sensor's data and returns the
	// sensor's organization ids.
	Scope(ctx context.Context, p authz.Principal, entity authz.Entity, action authz.Action, sensorID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	repo  sensorRepository
	orgs  organizationLookup
	authz TenantAuthorizer
	now   func() time.Time
}

func NewService(repo sensorRepository, orgs organizationLookup, authorizer TenantAuthorizer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sensor repository required")
	}
	if orgs == nil {
		return nil, fmt.Errorf("organization lookup required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{repo: repo, orgs: orgs, authz: authorizer, now: func() time.Time { return time.Now().UTC() }}, nil
}

func validateFields(f Fields, creating bool) (Fields, error) {
	var problems []string
	if f.SerialNumber != nil {
		trimmed := strings.TrimSpace(*f.SerialNumber)
		f.SerialNumber = &trimmed
	}
	if f.Name != nil {
		trimmed := strings.TrimSpace(*f.Name)
		f.Name = &trimmed
	}
	if creating && (f.SerialNumber == nil || *f.SerialNumber == "") {
		problems = append(problems, "serialNumber is required")
	} else if f.SerialNumber != nil && *f.SerialNumber == "" {
		problems = append(problems, "serialNumber cannot be empty")
	}
	if creating && (f.Name == nil || *f.Name == "") {
		problems = append(problems, "name is required")
	} else if f.Name != nil && *f.Name == "" {
		problems = append(problems, "name cannot be empty")
	}
	if f.Lat != nil && (*f.Lat < -90 || *f.Lat > 90) {
		problems = append(problems, "lat must be within -90..90")
	}
	if f.Long != nil && (*f.Long < -180 || *f.Long > 180) {
		problems = append(problems, "long must be within -180..180")
	}
	if f.Status != nil && !enums.SensorStatus(*f.Status).IsValid() {
		problems = append(problems, "status must be within 0..3")
	}
	if f.BatteryLevel != nil && (*f.BatteryLevel < 0 || *f.BatteryLevel > 100) {
		problems = append(problems, "batteryLevel must be within 0..100")
	}
	if len(f.LEDConfiguration) > 0 && !json.Valid(f.LEDConfiguration) {
		problems = append(problems, "ledConfiguration must be valid JSON")
	}
	if len(f.CalibrationData) > 0 && !json.Valid(f.CalibrationData) {
		problems = append(problems, "calibrationData must be valid JSON")
	}
	if len(problems) > 0 {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "invalid sensor").WithDetails(map[string]any{"problems": problems})
	}
	return f, nil
}

func (s *service) Register(ctx context.Context, p authz.Principal, fields Fields) (*SensorDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, authz.Resource{Entity: authz.EntitySensor}); err != nil {
		return nil, err
	}
	fields, err := validateFields(fields, true)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sensor := &models.Sensor{
		ID:                   uuid.New(),
		Enabled:              true,
		MeasurableParameters: []string{},
		CreatedAt:            now,
		LastUpdated:          now,
	}
	fields.apply(sensor)
	if err := s.repo.Create(ctx, sensor); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "serial number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sensor")
	}
	return FromModel(sensor), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	sensor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sensor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sensor")
	}
	return sensor, nil
}

func (s *service) organizationIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.OrganizationIDs(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sensor organizations")
	}
	return ids, nil
}

func (s *service) Scope(ctx context.Context, p authz.Principal, entity authz.Entity, action authz.Action, sensorID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.load(ctx, sensorID); err != nil {
		return nil, err
	}
	ids, err := s.organizationIDs(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, action, authz.Resource{Entity: entity, OrganizationIDs: ids}); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*SensorDTO, error) {
	sensor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.organizationIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionRead, authz.Resource{Entity: authz.EntitySensor, OrganizationIDs: ids}); err != nil {
		return nil, err
	}
	dto := FromModel(sensor)
	dto.OrganizationIDs = ids
	return dto, nil
}

// ListVisible returns every sensor to callers that see all tenants and only
// sensors linked to the caller's organizations otherwise.
func (s *service) ListVisible(ctx context.Context, p authz.Principal) ([]SensorDTO, error) {
	if !p.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	var (
		rows []models.Sensor
		err  error
	)
	if s.authz.SeesAllTenants(p) {
		if err := s.authz.Authorize(ctx, p, authz.ActionList, authz.Resource{Entity: authz.EntitySensor}); err != nil {
			return nil, err
		}
		rows, err = s.repo.ListAll(ctx)
	} else {
		rows, err = s.repo.ListForUser(ctx, p.Subject)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sensors")
	}
	return FromModels(rows), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, fields Fields) (*SensorDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, authz.Resource{Entity: authz.EntitySensor}); err != nil {
		return nil, err
	}
	fields, err := validateFields(fields, false)
	if err != nil {
		return nil, err
	}
	sensor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	fields.apply(sensor)
	sensor.LastUpdated = s.now()
	if err := s.repo.Update(ctx, sensor); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "serial number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sensor")
	}
	return FromModel(sensor), nil
}

func (s *service) checkLinkTargets(ctx context.Context, sensorID, orgID uuid.UUID) error {
	if _, err := s.load(ctx, sensorID); err != nil {
		return err
	}
	ok, err := s.orgs.Exists(ctx, orgID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup organization")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
	}
	return nil
}

func (s *service) LinkOrganization(ctx context.Context, p authz.Principal, sensorID, orgID uuid.UUID) (LinkResult, error) {
	res := authz.Resource{Entity: authz.EntitySensorOrganization, OrganizationIDs: []uuid.UUID{orgID}}
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, res); err != nil {
		return LinkResult{}, err
	}
	if err := s.checkLinkTargets(ctx, sensorID, orgID); err != nil {
		return LinkResult{}, err
	}
	changed, err := s.repo.Link(ctx, sensorID, orgID)
	if err != nil {
		return LinkResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link sensor")
	}
	return LinkResult{SensorID: sensorID, OrganizationID: orgID, Changed: changed}, nil
}

func (s *service) UnlinkOrganization(ctx context.Context, p authz.Principal, sensorID, orgID uuid.UUID) (LinkResult, error) {
	res := authz.Resource{Entity: authz.EntitySensorOrganization, OrganizationIDs: []uuid.UUID{orgID}}
	if err := s.authz.Authorize(ctx, p, authz.ActionDelete, res); err != nil {
		return LinkResult{}, err
	}
	changed, err := s.repo.Unlink(ctx, sensorID, orgID)
	if err != nil {
		return LinkResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink sensor")
	}
	return LinkResult{SensorID: sensorID, OrganizationID: orgID, Changed: changed}, nil
}
