package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// UserOrganization links a user to an organization with a role. The
// (user_id, organization_id) pair is unique.
type UserOrganization struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID         string           `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_user_organizations_user_org,priority:1"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_user_organizations_user_org,priority:2;index"`
	Role           enums.MemberRole `gorm:"column:role;type:text;not null"`
	JoinedAt       time.Time        `gorm:"column:joined_at;not null"`
	InvitedBy      *string          `gorm:"column:invited_by"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
