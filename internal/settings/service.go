package settings

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
	"github.com/aquamesh/aquaview-backend/pkg/logger"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

type settingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.UserSettings, error)
	Create(ctx context.Context, owner, userID string, theme enums.Theme, layout types.JSONDocument) (*models.UserSettings, error)
	EnsureDefault(ctx context.Context, owner, userID string) (*models.UserSettings, bool, error)
	UpdateByUserID(ctx context.Context, userID string, cols map[string]any) (*models.UserSettings, error)
}

type authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
}

// SettingsDTO is the transport shape for user settings.
type SettingsDTO struct {
	ID        uuid.UUID          `json:"id"`
	Owner     string             `json:"owner"`
	UserID    string             `json:"userId"`
	Theme     enums.Theme        `json:"theme"`
	UILayout  types.JSONDocument `json:"uiLayout"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// UpdateInput changes theme and/or the opaque dashboard layout.
type UpdateInput struct {
	Theme    *string
	UILayout json.RawMessage
}

func FromModel(m *models.UserSettings) *SettingsDTO {
	if m == nil {
		return nil
	}
	layout := m.UILayout
	if layout.IsEmpty() {
		layout = types.EmptyObject
	}
	return &SettingsDTO{
		ID:        m.ID,
		Owner:     m.Owner,
		UserID:    m.UserID,
		Theme:     m.Theme,
		UILayout:  layout,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Service exposes settings operations.
type Service interface {
	// CreateDefault provisions light-theme settings for a new user.
	CreateDefault(ctx context.Context, owner, userID string) (*SettingsDTO, error)
	GetByUserID(ctx context.Context, p authz.Principal, userID string) (*SettingsDTO, error)
	GetOrCreateDefault(ctx context.Context, p authz.Principal) (*SettingsDTO, error)
	Update(ctx context.Context, p authz.Principal, input UpdateInput) (*SettingsDTO, error)
}

type service struct {
	repo  settingsRepository
	authz authorizer
	logg  *logger.Logger
}

func NewService(repo settingsRepository, authorizer authorizer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, authz: authorizer, logg: logg}, nil
}

func settingsResource(owner, userID string) authz.Resource {
	return authz.Resource{Entity: authz.EntityUserSettings, Owner: owner, UserID: userID}
}

func (s *service) CreateDefault(ctx context.Context, owner, userID string) (*SettingsDTO, error) {
	row, err := s.repo.Create(ctx, owner, userID, enums.DefaultTheme, types.EmptyObject)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "settings already exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create settings")
	}
	return FromModel(row), nil
}

func (s *service) GetByUserID(ctx context.Context, p authz.Principal, userID string) (*SettingsDTO, error) {
	row, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithUserID(ctx, userID), "settings.not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settings not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionRead, settingsResource(row.Owner, row.UserID)); err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

// GetOrCreateDefault repairs users whose provisioning stopped before settings were written.
func (s *service) GetOrCreateDefault(ctx context.Context, p authz.Principal) (*SettingsDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, settingsResource(p.OwnerIdentity(), p.Subject)); err != nil {
		return nil, err
	}
	row, created, err := s.repo.EnsureDefault(ctx, p.OwnerIdentity(), p.Subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure settings")
	}
	if created {
		s.logg.Warn(s.logg.WithUserID(ctx, p.Subject), "settings.created_on_read")
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionRead, settingsResource(row.Owner, row.UserID)); err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, input UpdateInput) (*SettingsDTO, error) {
	cols := map[string]any{}
	if input.Theme != nil {
		theme, err := enums.ParseTheme(strings.ToLower(strings.TrimSpace(*input.Theme)))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "theme must be one of light, dark, system")
		}
		cols["theme"] = theme
	}
	if len(input.UILayout) > 0 {
		if !json.Valid(input.UILayout) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "uiLayout must be valid JSON")
		}
		cols["ui_layout"] = types.JSONDocument(input.UILayout)
	}

	current, err := s.GetOrCreateDefault(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, settingsResource(current.Owner, current.UserID)); err != nil {
		return nil, err
	}
	row, err := s.repo.UpdateByUserID(ctx, current.UserID, cols)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "settings not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return FromModel(row), nil
}
