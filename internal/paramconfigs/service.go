package paramconfigs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type configRepository interface {
	Create(ctx context.Context, cfg *models.ParameterConfig) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ParameterConfig, error)
	Update(ctx context.Context, cfg *models.ParameterConfig) error
	ListScoped(ctx context.Context, orgID *uuid.UUID) ([]models.ParameterConfig, error)
	NameTaken(ctx context.Context, name string, orgID *uuid.UUID, exclude uuid.UUID) (bool, error)
}

type authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
}

// Service exposes parameter config operations.
type Service interface {
	List(ctx context.Context, p authz.Principal, orgID *uuid.UUID) ([]ConfigDTO, error)
	Create(ctx context.Context, p authz.Principal, input Input) (*ConfigDTO, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, input Input) (*ConfigDTO, error)
}

type service struct {
	repo  configRepository
	authz authorizer
	now   func() time.Time
}

func NewService(repo configRepository, authorizer authorizer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("parameter config repository required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{repo: repo, authz: authorizer, now: func() time.Time { return time.Now().UTC() }}, nil
}

func scopeResource(orgID *uuid.UUID) authz.Resource {
	res := authz.Resource{Entity: authz.EntityParameterConfig}
	if orgID != nil {
		res.OrganizationIDs = []uuid.UUID{*orgID}
	}
	return res
}

// List returns the effective configs for orgID: every global config, each
// replaced by the organization's config of the same parameter name.
func (s *service) List(ctx context.Context, p authz.Principal, orgID *uuid.UUID) ([]ConfigDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, scopeResource(orgID)); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListScoped(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parameter configs")
	}

	effective := make(map[string]*models.ParameterConfig, len(rows))
	for i := range rows {
		row := &rows[i]
		current, ok := effective[row.ParameterName]
		if !ok || (current.OrganizationID == nil && row.OrganizationID != nil) {
			effective[row.ParameterName] = row
		}
	}

	out := make([]ConfigDTO, 0, len(effective))
	for _, row := range effective {
		out = append(out, *FromModel(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParameterName < out[j].ParameterName })
	return out, nil
}

func normalize(in Input) Input {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	in.ParameterName = trim(in.ParameterName)
	in.DisplayName = trim(in.DisplayName)
	in.Unit = trim(in.Unit)
	return in
}

func validate(m *models.ParameterConfig, in Input) error {
	var problems []string
	if m.ParameterName == "" {
		problems = append(problems, "parameterName is required")
	}
	if m.DisplayName == "" {
		problems = append(problems, "displayName is required")
	}
	if m.Unit == "" {
		problems = append(problems, "unit is required")
	}
	if len(in.CalculationParameters) > 0 && !json.Valid(in.CalculationParameters) {
		problems = append(problems, "calculationParameters must be valid JSON")
	}
	if m.MinValidValue != nil && m.MaxValidValue != nil && *m.MinValidValue > *m.MaxValidValue {
		problems = append(problems, "minValidValue must not exceed maxValidValue")
	}
	for _, led := range m.RequiredLEDs {
		if led <= 0 {
			problems = append(problems, "requiredLEDs must be positive wavelengths")
			break
		}
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid parameter config").WithDetails(map[string]any{"problems": problems})
	}
	return nil
}

func (s *service) ensureUniqueName(ctx context.Context, m *models.ParameterConfig) error {
	taken, err := s.repo.NameTaken(ctx, m.ParameterName, m.OrganizationID, m.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check parameter name")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "parameter already configured for this scope")
	}
	return nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, input Input) (*ConfigDTO, error) {
	input = normalize(input)
	now := s.now()
	cfg := &models.ParameterConfig{ID: uuid.New(), RequiredLEDs: []float64{}, CreatedAt: now, UpdatedAt: now}
	input.apply(cfg)

	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, scopeResource(cfg.OrganizationID)); err != nil {
		return nil, err
	}
	if err := validate(cfg, input); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, cfg); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create parameter config")
	}
	return FromModel(cfg), nil
}

// Update applies input to an existing config. Moving a config between
// scopes requires write access to both.
func (s *service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input Input) (*ConfigDTO, error) {
	input = normalize(input)
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parameter config not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parameter config")
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, scopeResource(cfg.OrganizationID)); err != nil {
		return nil, err
	}

	before := cfg.OrganizationID
	input.apply(cfg)
	if !sameScope(before, cfg.OrganizationID) {
		if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, scopeResource(cfg.OrganizationID)); err != nil {
			return nil, err
		}
	}
	if err := validate(cfg, input); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, cfg); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update parameter config")
	}
	return FromModel(cfg), nil
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
