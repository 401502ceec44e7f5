package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// JoinOutcome tells a caller whether Join wrote a row.
type JoinOutcome string

const (
	JoinInserted      JoinOutcome = "Inserted"
	JoinAlreadyExists JoinOutcome = "AlreadyExists"
)

// JoinResult is returned by Join. Membership is the stored row in both cases.
type JoinResult struct {
	Outcome    JoinOutcome    `json:"outcome"`
	Membership *MembershipDTO `json:"membership"`
}

// Inserted reports whether this call created the membership.
func (r JoinResult) Inserted() bool {
	return r.Outcome == JoinInserted
}

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID             uuid.UUID        `json:"id"`
	UserID         string           `json:"userId"`
	OrganizationID uuid.UUID        `json:"organizationId"`
	Role           enums.MemberRole `json:"role"`
	JoinedAt       time.Time        `json:"joinedAt"`
	InvitedBy      *string          `json:"invitedBy,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// MembershipWithOrganization includes basic organization metadata with the membership.
type MembershipWithOrganization struct {
	MembershipID     uuid.UUID        `json:"membershipId"`
	OrganizationID   uuid.UUID        `json:"organizationId"`
	UserID           string           `json:"userId"`
	OrganizationName string           `json:"organizationName"`
	Logo             *string          `json:"logo,omitempty"`
	Description      *string          `json:"description,omitempty"`
	Industry         *string          `json:"industry,omitempty"`
	Role             enums.MemberRole `json:"role"`
	JoinedAt         time.Time        `json:"joinedAt"`
}

// OrganizationMemberDTO mixes membership metadata with the member's profile.
type OrganizationMemberDTO struct {
	MembershipID   uuid.UUID        `json:"membershipId"`
	OrganizationID uuid.UUID        `json:"organizationId"`
	UserID         string           `json:"userId"`
	Email          string           `json:"email"`
	FirstName      *string          `json:"firstName,omitempty"`
	LastName       *string          `json:"lastName,omitempty"`
	Role           enums.MemberRole `json:"role"`
	JoinedAt       time.Time        `json:"joinedAt"`
	LastLogin      *time.Time       `json:"lastLogin,omitempty"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.UserOrganization) *MembershipDTO {
	if m == nil {
		return nil
	}

	return &MembershipDTO{
		ID:             m.ID,
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		Role:           m.Role,
		JoinedAt:       m.JoinedAt,
		InvitedBy:      copyStringPointer(m.InvitedBy),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func copyStringPointer(src *string) *string {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}
