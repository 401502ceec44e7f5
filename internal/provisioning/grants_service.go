package provisioning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type grantRepository interface {
	Create(ctx context.Context, grant *models.PendingAdminGrant) error
	List(ctx context.Context) ([]models.PendingAdminGrant, error)
}

type authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
}

// GrantDTO is the transport shape for a pending admin grant.
type GrantDTO struct {
	Email            string     `json:"email"`
	GrantedBy        string     `json:"grantedBy"`
	Note             *string    `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ConsumedAt       *time.Time `json:"consumedAt,omitempty"`
	ConsumedByUserID *string    `json:"consumedByUserId,omitempty"`
}

// GrantInput is the admin payload creating a grant.
type GrantInput struct {
	Email string  `json:"email" validate:"required,email"`
	Note  *string `json:"note" validate:"omitempty,max=500"`
}

func grantFromModel(m *models.PendingAdminGrant) GrantDTO {
	return GrantDTO{
		Email:            m.Email,
		GrantedBy:        m.GrantedBy,
		Note:             m.Note,
		CreatedAt:        m.CreatedAt,
		ConsumedAt:       m.ConsumedAt,
		ConsumedByUserID: m.ConsumedByUserID,
	}
}

// GrantService manages the auditable admin allow-list.
type GrantService interface {
	List(ctx context.Context, p authz.Principal) ([]GrantDTO, error)
	Create(ctx context.Context, p authz.Principal, input GrantInput) (*GrantDTO, error)
}

type grantService struct {
	repo     grantRepository
	authz    authorizer
	validate *validator.Validate
	now      func() time.Time
}

func NewGrantService(repo grantRepository, authorizer authorizer) (GrantService, error) {
	if repo == nil {
		return nil, fmt.Errorf("grant repository required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &grantService{
		repo:     repo,
		authz:    authorizer,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

var grantResource = authz.Resource{Entity: authz.EntityPendingAdminGrant}

func (s *grantService) List(ctx context.Context, p authz.Principal) ([]GrantDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, grantResource); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admin grants")
	}
	out := make([]GrantDTO, 0, len(rows))
	for i := range rows {
		out = append(out, grantFromModel(&rows[i]))
	}
	return out, nil
}

func (s *grantService) Create(ctx context.Context, p authz.Principal, input GrantInput) (*GrantDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, grantResource); err != nil {
		return nil, err
	}
	input.Email = normalizeEmail(input.Email)
	if input.Note != nil {
		trimmed := strings.TrimSpace(*input.Note)
		input.Note = &trimmed
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin grant")
	}

	grant := &models.PendingAdminGrant{
		Email:     input.Email,
		GrantedBy: p.Subject,
		Note:      input.Note,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, grant); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "grant already exists for email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin grant")
	}
	dto := grantFromModel(grant)
	return &dto, nil
}
