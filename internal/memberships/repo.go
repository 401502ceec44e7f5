package memberships

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// ErrLastOwner is returned when a change would leave an organization without an Owner.
var ErrLastOwner = errors.New("organization must keep at least one owner")

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Join inserts the membership unless the (user, organization) pair already
// exists. The unique index decides the winner, so concurrent calls for the
// same pair produce exactly one row.
func (r *Repository) Join(ctx context.Context, userID string, orgID uuid.UUID, role enums.MemberRole, invitedBy *string) (*models.UserOrganization, bool, error) {
	if !role.IsValid() {
		return nil, false, fmt.Errorf("invalid member role %q", role)
	}

	now := time.Now().UTC()
	membership := &models.UserOrganization{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		JoinedAt:       now,
		InvitedBy:      invitedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "organization_id"}},
			DoNothing: true,
		}).
		Create(membership)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return membership, true, nil
	}

	existing, err := r.GetMembership(ctx, userID, orgID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetMembership retrieves a membership by user and organization.
func (r *Repository) GetMembership(ctx context.Context, userID string, orgID uuid.UUID) (*models.UserOrganization, error) {
	var membership models.UserOrganization
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// Leave deletes the membership, refusing to remove the final Owner.
func (r *Repository) Leave(ctx context.Context, userID string, orgID uuid.UUID) (*models.UserOrganization, error) {
	var removed *models.UserOrganization
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx)
		membership, err := txRepo.GetMembership(ctx, userID, orgID)
		if err != nil {
			return err
		}
		if membership.Role == enums.MemberRoleOwner {
			if err := txRepo.ensureAnotherOwner(ctx, orgID); err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.UserOrganization{}, "id = ?", membership.ID).Error; err != nil {
			return err
		}
		removed = membership
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// UpdateRole changes the member's role, refusing to demote the final Owner.
func (r *Repository) UpdateRole(ctx context.Context, userID string, orgID uuid.UUID, role enums.MemberRole) (*models.UserOrganization, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", role)
	}

	var updated *models.UserOrganization
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx)
		membership, err := txRepo.GetMembership(ctx, userID, orgID)
		if err != nil {
			return err
		}
		if membership.Role == role {
			updated = membership
			return nil
		}
		if membership.Role == enums.MemberRoleOwner {
			if err := txRepo.ensureAnotherOwner(ctx, orgID); err != nil {
				return err
			}
		}
		membership.Role = role
		membership.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&models.UserOrganization{}).
			Where("id = ?", membership.ID).
			Updates(map[string]any{"role": role, "updated_at": membership.UpdatedAt}).Error; err != nil {
			return err
		}
		updated = membership
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ensureAnotherOwner locks the org's Owner rows before counting them, so two
// owners leaving or demoting each other at once serialize and the second one
// sees a single owner.
func (r *Repository) ensureAnotherOwner(ctx context.Context, orgID uuid.UUID) error {
	var ownerIDs []uuid.UUID
	if err := lockOwners(r.db.WithContext(ctx), orgID).Pluck("id", &ownerIDs).Error; err != nil {
		return err
	}
	if len(ownerIDs) <= 1 {
		return ErrLastOwner
	}
	return nil
}

func lockOwners(tx *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return tx.Model(&models.UserOrganization{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND role = ?", orgID, enums.MemberRoleOwner).
		Order("id")
}

// CountMembersWithRoles counts members of orgID holding one of roles.
func (r *Repository) CountMembersWithRoles(ctx context.Context, orgID uuid.UUID, roles ...enums.MemberRole) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.UserOrganization{}).
		Where("organization_id = ?", orgID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListUserOrganizations returns the organizations a user belongs to along with membership metadata.
func (r *Repository) ListUserOrganizations(ctx context.Context, userID string) ([]MembershipWithOrganization, error) {
	var rows []membershipWithOrganizationRow

	err := r.db.WithContext(ctx).
		Model(&models.UserOrganization{}).
		Select("user_organizations.*, organizations.name AS organization_name, organizations.logo AS logo, organizations.description AS description, organizations.industry AS industry").
		Joins("JOIN organizations ON organizations.id = user_organizations.organization_id").
		Where("user_organizations.user_id = ?", userID).
		Order("organizations.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return membershipRowsToDTO(rows), nil
}

// ListOrganizationIDs returns the ids of every organization the user belongs to.
func (r *Repository) ListOrganizationIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserOrganization{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListOrganizationMembers returns memberships for the organization along with user metadata.
func (r *Repository) ListOrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]OrganizationMemberDTO, error) {
	var rows []organizationMemberRow
	err := r.db.WithContext(ctx).
		Model(&models.UserOrganization{}).
		Select("user_organizations.*, users.email AS email, users.first_name AS first_name, users.last_name AS last_name, users.last_login AS last_login").
		Joins("JOIN users ON users.id = user_organizations.user_id").
		Where("user_organizations.organization_id = ?", orgID).
		Order("user_organizations.joined_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return organizationMembersFromRows(rows), nil
}

// RoleOf returns the caller's role in orgID, or "" when not a member.
func (r *Repository) RoleOf(ctx context.Context, userID string, orgID uuid.UUID) (enums.MemberRole, error) {
	membership, err := r.GetMembership(ctx, userID, orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return membership.Role, nil
}

// IsMember reports whether the user belongs to orgID with any role.
func (r *Repository) IsMember(ctx context.Context, userID string, orgID uuid.UUID) (bool, error) {
	return r.HasRole(ctx, userID, orgID)
}

// HasRole reports whether the user holds one of roles for orgID. No roles
// means any membership.
func (r *Repository) HasRole(ctx context.Context, userID string, orgID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.UserOrganization{}).
		Where("user_id = ? AND organization_id = ?", userID, orgID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
