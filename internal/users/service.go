package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/pagination"
)

type usersRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error)
	CompareAndSetStage(ctx context.Context, id string, expected, next enums.UserSetupStage) (bool, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
}

// Service exposes user profile operations.
type Service interface {
	Create(ctx context.Context, dto CreateUserDTO) (*UserDTO, error)
	Get(ctx context.Context, p authz.Principal, id string) (*UserDTO, error)
	Me(ctx context.Context, p authz.Principal) (*UserDTO, error)
	List(ctx context.Context, p authz.Principal, params pagination.Params) (pagination.Page[UserDTO], error)
	UpdateProfile(ctx context.Context, p authz.Principal, id string, input UpdateProfileInput) (*UserDTO, error)
	AdvanceSetupStage(ctx context.Context, p authz.Principal, id string, stage string) (*UserDTO, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type service struct {
	repo    usersRepository
	authz   authorizer
	machine SetupStageMachine
	now     func() time.Time
}

// NewService builds a users service.
func NewService(repo usersRepository, authorizer authorizer, machine SetupStageMachine) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{
		repo:    repo,
		authz:   authorizer,
		machine: machine,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func userResource(u *models.User) authz.Resource {
	return authz.Resource{Entity: authz.EntityUser, Owner: u.Owner, UserID: u.ID}
}

func (s *service) Create(ctx context.Context, dto CreateUserDTO) (*UserDTO, error) {
	dto.ID = strings.TrimSpace(dto.ID)
	dto.Email = strings.TrimSpace(dto.Email)
	if dto.ID == "" || dto.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and username are required")
	}
	if dto.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if dto.Now.IsZero() {
		dto.Now = s.now()
	}
	user, err := s.repo.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, p authz.Principal, id string) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionRead, userResource(user)); err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// Me returns the caller's own profile and records the visit as a login.
func (s *service) Me(ctx context.Context, p authz.Principal) (*UserDTO, error) {
	dto, err := s.Get(ctx, p, p.Subject)
	if err != nil {
		return nil, err
	}
	if err := s.TouchLastLogin(ctx, p.Subject); err == nil {
		now := s.now()
		dto.LastLogin = &now
	}
	return dto, nil
}

func (s *service) List(ctx context.Context, p authz.Principal, params pagination.Params) (pagination.Page[UserDTO], error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, authz.Resource{Entity: authz.EntityUser}); err != nil {
		return pagination.Page[UserDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params.Limit, cursor)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return pagination.Trim(dtos, params.Limit, func(u UserDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	}), nil
}

func (s *service) UpdateProfile(ctx context.Context, p authz.Principal, id string, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, userResource(user)); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateProfile(ctx, id, trimProfile(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(updated), nil
}

func (s *service) AdvanceSetupStage(ctx context.Context, p authz.Principal, id string, rawStage string) (*UserDTO, error) {
	target, err := enums.ParseUserSetupStage(strings.ToUpper(strings.TrimSpace(rawStage)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid setup stage")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, userResource(user)); err != nil {
		return nil, err
	}

	transition, err := s.machine.Validate(user.UserSetupStage, target)
	if err != nil {
		return nil, err
	}
	if !transition.Changed {
		return FromModel(user), nil
	}

	ok, err := s.repo.CompareAndSetStage(ctx, id, transition.From, transition.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update setup stage")
	}
	if !ok {
		// Another request moved the stage first; accept it only if it landed on target.
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.UserSetupStage == target {
			return FromModel(current), nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "setup stage changed concurrently").
			WithDetails(map[string]any{"currentStage": current.UserSetupStage})
	}
	user.UserSetupStage = transition.To
	user.UpdatedAt = s.now()
	return FromModel(user), nil
}

func (s *service) TouchLastLogin(ctx context.Context, id string) error {
	if err := s.repo.UpdateLastLogin(ctx, id, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	return nil
}

func trimProfile(in UpdateProfileInput) UpdateProfileInput {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return UpdateProfileInput{
		FirstName:      trim(in.FirstName),
		LastName:       trim(in.LastName),
		PhoneNumber:    trim(in.PhoneNumber),
		ProfilePicture: trim(in.ProfilePicture),
		Industry:       trim(in.Industry),
		JobTitle:       trim(in.JobTitle),
		Bio:            trim(in.Bio),
		Location:       trim(in.Location),
	}
}
