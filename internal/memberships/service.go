package memberships

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type membershipRepository interface {
	Join(ctx context.Context, userID string, orgID uuid.UUID, role enums.MemberRole, invitedBy *string) (*models.UserOrganization, bool, error)
	Leave(ctx context.Context, userID string, orgID uuid.UUID) (*models.UserOrganization, error)
	UpdateRole(ctx context.Context, userID string, orgID uuid.UUID, role enums.MemberRole) (*models.UserOrganization, error)
	ListUserOrganizations(ctx context.Context, userID string) ([]MembershipWithOrganization, error)
	ListOrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]OrganizationMemberDTO, error)
}

type organizationLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type userLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, action authz.Action, res authz.Resource) error
}

type invalidator interface {
	Invalidate(ctx context.Context, userID string, orgID uuid.UUID)
}

// Service exposes membership operations.
type Service interface {
	Join(ctx context.Context, p authz.Principal, orgID uuid.UUID) (JoinResult, error)
	AddMember(ctx context.Context, p authz.Principal, orgID uuid.UUID, input AddMemberInput) (JoinResult, error)
	Leave(ctx context.Context, p authz.Principal, orgID uuid.UUID) error
	RemoveMember(ctx context.Context, p authz.Principal, orgID uuid.UUID, userID string) error
	UpdateRole(ctx context.Context, p authz.Principal, orgID uuid.UUID, userID string, role string) (*MembershipDTO, error)
	ListMine(ctx context.Context, p authz.Principal) ([]MembershipWithOrganization, error)
	ListMembers(ctx context.Context, p authz.Principal, orgID uuid.UUID) ([]OrganizationMemberDTO, error)
}

// AddMemberInput captures a manager adding someone to an organization.
type AddMemberInput struct {
	UserID string
	Role   string
}

// ServiceParams wires the membership service.
type ServiceParams struct {
	Repo          membershipRepository
	Organizations organizationLookup
	Users         userLookup
	Authz         authorizer
	Cache         invalidator
}

type service struct {
	repo  membershipRepository
	orgs  organizationLookup
	users userLookup
	authz authorizer
	cache invalidator
}

// NewService builds a membership service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if params.Organizations == nil {
		return nil, fmt.Errorf("organizations lookup required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Authz == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{
		repo:  params.Repo,
		orgs:  params.Organizations,
		users: params.Users,
		authz: params.Authz,
		cache: params.Cache,
	}, nil
}

// ParseRole validates a role from user input. Empty means User.
func ParseRole(raw string) (enums.MemberRole, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.MemberRoleUser, nil
	}
	role, err := enums.ParseMemberRole(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "role must be one of Owner, Admin, User")
	}
	return role, nil
}

func membershipResource(userID string, orgID uuid.UUID) authz.Resource {
	return authz.Resource{
		Entity:          authz.EntityUserOrganization,
		UserID:          userID,
		OrganizationIDs: []uuid.UUID{orgID},
	}
}

func (s *service) Join(ctx context.Context, p authz.Principal, orgID uuid.UUID) (JoinResult, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, membershipResource(p.Subject, orgID)); err != nil {
		return JoinResult{}, err
	}
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return JoinResult{}, err
	}
	return s.join(ctx, p.Subject, orgID, enums.MemberRoleUser, nil)
}

func (s *service) AddMember(ctx context.Context, p authz.Principal, orgID uuid.UUID, input AddMemberInput) (JoinResult, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return JoinResult{}, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	role, err := ParseRole(input.Role)
	if err != nil {
		return JoinResult{}, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionCreate, membershipResource(userID, orgID)); err != nil {
		return JoinResult{}, err
	}
	// A self-add is a plain join and never escalates the caller's role.
	if userID == p.Subject && role != enums.MemberRoleUser {
		if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, membershipResource(userID, orgID)); err != nil {
			return JoinResult{}, err
		}
	}
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return JoinResult{}, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return JoinResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !ok {
		return JoinResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	invitedBy := p.Subject
	return s.join(ctx, userID, orgID, role, &invitedBy)
}

func (s *service) join(ctx context.Context, userID string, orgID uuid.UUID, role enums.MemberRole, invitedBy *string) (JoinResult, error) {
	membership, inserted, err := s.repo.Join(ctx, userID, orgID, role, invitedBy)
	if err != nil {
		return JoinResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "join organization")
	}
	s.invalidate(ctx, userID, orgID)
	outcome := JoinAlreadyExists
	if inserted {
		outcome = JoinInserted
	}
	return JoinResult{Outcome: outcome, Membership: ToDTO(membership)}, nil
}

func (s *service) Leave(ctx context.Context, p authz.Principal, orgID uuid.UUID) error {
	return s.RemoveMember(ctx, p, orgID, p.Subject)
}

func (s *service) RemoveMember(ctx context.Context, p authz.Principal, orgID uuid.UUID, userID string) error {
	if err := s.authz.Authorize(ctx, p, authz.ActionDelete, membershipResource(userID, orgID)); err != nil {
		return err
	}
	if _, err := s.repo.Leave(ctx, userID, orgID); err != nil {
		return mapRepoError(err, "leave organization")
	}
	s.invalidate(ctx, userID, orgID)
	return nil
}

func (s *service) UpdateRole(ctx context.Context, p authz.Principal, orgID uuid.UUID, userID string, rawRole string) (*MembershipDTO, error) {
	if strings.TrimSpace(rawRole) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role is required")
	}
	role, err := ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, authz.ActionUpdate, membershipResource(userID, orgID)); err != nil {
		return nil, err
	}
	membership, err := s.repo.UpdateRole(ctx, userID, orgID, role)
	if err != nil {
		return nil, mapRepoError(err, "update member role")
	}
	s.invalidate(ctx, userID, orgID)
	return ToDTO(membership), nil
}

func (s *service) ListMine(ctx context.Context, p authz.Principal) ([]MembershipWithOrganization, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, authz.Resource{Entity: authz.EntityUserOrganization, UserID: p.Subject}); err != nil {
		return nil, err
	}
	list, err := s.repo.ListUserOrganizations(ctx, p.Subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user organizations")
	}
	return list, nil
}

func (s *service) ListMembers(ctx context.Context, p authz.Principal, orgID uuid.UUID) ([]OrganizationMemberDTO, error) {
	if err := s.authz.Authorize(ctx, p, authz.ActionList, authz.Resource{Entity: authz.EntityUserOrganization, OrganizationIDs: []uuid.UUID{orgID}}); err != nil {
		return nil, err
	}
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListOrganizationMembers(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organization members")
	}
	return members, nil
}

func (s *service) requireOrganization(ctx context.Context, orgID uuid.UUID) error {
	ok, err := s.orgs.Exists(ctx, orgID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup organization")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, userID string, orgID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID, orgID)
	}
}

func mapRepoError(err error, action string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	case errors.Is(err, ErrLastOwner):
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove or demote the last owner")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}
