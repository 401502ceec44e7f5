package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	"github.com/aquamesh/aquaview-backend/internal/sensors"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type organizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListBasic(ctx context.Context) ([]BasicDTO, error)
	Update(ctx context.Context, org *models.Organization) error
}

type sensorLister interface {
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Sensor, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
}

type invalidator interface {
	Invalidate(ctx context.Context, userID string, orgID uuid.UUID)
}

// Service exposes organization operations.
type Service interface {
	Create(ctx context.Context, p authz.Principal, fields Fields, creatorUserID string) (*OrganizationDTO, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*OrganizationDTO, error)
	ListBasic(ctx context.Context, p authz.Principal) ([]BasicDTO, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, fields Fields) (*OrganizationDTO, error)
	ListSensors(ctx context.Context, p authz.Principal, id uuid.UUID) ([]sensors.SensorDTO, error)
}

// ServiceParams wires the organization service.
type ServiceParams struct {
	Repo    organizationRepository
	Sensors sensorLister
	Tx      txRunner
	Authz   authorizer
	Cache   invalidator
}

type service struct {
	repo    organizationRepository
	sensors sensorLister
	tx      txRunner
	authz   authorizer
	cache   invalidator
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if params.Sensors == nil {
		return nil, fmt.Errorf("sensor lister required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Authz == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{
		repo:    params.Repo,
		sensors: params.Sensors,
		tx:      params.Tx,
		authz:   params.Authz,
		cache:   params.Cache,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func orgResource(id uuid.UUID) authz.Resource {
	return authz.Resource{Entity: authz.EntityOrganization, OrganizationIDs: []uuid.UUID{id}}
}

func normalizeName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
	}
	return &trimmed, nil
}

// Create inserts the organization and its creator's Owner membership in one
// transaction.
func (s *service) Create(ctx context.Context, p authz.Principal, fields Fields, creatorUserID string) (*OrganizationDTO, error) {
	if fields.Name == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
	}
	name, err := normalizeName(fields.Name)
	if err != nil {
		return nil, err
	}
	fields.Name = name
	creatorUserID = strings.TrimSpace(creatorUserID)
	if creatorUserID == "" {
		creatorUserID = p.Subject
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, authz.Resource{Entity: authz.EntityOrganization}); err != nil {
		return nil, err
	}

	now := s.now()
	org := &models.Organization{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	fields.apply(org)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).Create(ctx, org); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create organization")
		}
		invitedBy := p.Subject
		if _, _, err := memberships.NewRepository(tx).Join(ctx, creatorUserID, org.ID, enums.MemberRoleOwner, &invitedBy); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add organization owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, creatorUserID, org.ID)
	}
	return FromModel(org), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	return org, nil
}

func (s *service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*OrganizationDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionRead, orgResource(id)); err != nil {
		return nil, err
	}
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(org), nil
}

func (s *service) ListBasic(ctx context.Context, p authz.Principal) ([]BasicDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, authz.Resource{Entity: authz.EntityOrganization}); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListBasic(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizations")
	}
	if rows == nil {
		rows = []BasicDTO{}
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, fields Fields) (*OrganizationDTO, error) {
	name, err := normalizeName(fields.Name)
	if err != nil {
		return nil, err
	}
	fields.Name = name
	if fields.Size != nil && *fields.Size < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size cannot be negative")
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, orgResource(id)); err != nil {
		return nil, err
	}
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	fields.apply(org)
	org.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organization")
	}
	return FromModel(org), nil
}

func (s *service) ListSensors(ctx context.Context, p authz.Principal, id uuid.UUID) ([]sensors.SensorDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, authz.Resource{Entity: authz.EntitySensor, OrganizationIDs: []uuid.UUID{id}}); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.sensors.ListByOrganization(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organization sensors")
	}
	return sensors.FromModels(rows), nil
}
