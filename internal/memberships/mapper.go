package memberships

import (
	"time"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
)

type membershipWithOrganizationRow struct {
	models.UserOrganization
	OrganizationName string  `gorm:"column:organization_name"`
	Logo             *string `gorm:"column:logo"`
	Description      *string `gorm:"column:description"`
	Industry         *string `gorm:"column:industry"`
}

func membershipWithOrganizationFromRow(row membershipWithOrganizationRow) MembershipWithOrganization {
	return MembershipWithOrganization{
		MembershipID:     row.ID,
		OrganizationID:   row.OrganizationID,
		UserID:           row.UserID,
		OrganizationName: row.OrganizationName,
		Logo:             copyStringPointer(row.Logo),
		Description:      copyStringPointer(row.Description),
		Industry:         copyStringPointer(row.Industry),
		Role:             row.Role,
		JoinedAt:         row.JoinedAt,
	}
}

func membershipRowsToDTO(rows []membershipWithOrganizationRow) []MembershipWithOrganization {
	out := make([]MembershipWithOrganization, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipWithOrganizationFromRow(row))
	}
	return out
}

type organizationMemberRow struct {
	models.UserOrganization
	Email     string     `gorm:"column:email"`
	FirstName *string    `gorm:"column:first_name"`
	LastName  *string    `gorm:"column:last_name"`
	LastLogin *time.Time `gorm:"column:last_login"`
}

func organizationMembersFromRows(rows []organizationMemberRow) []OrganizationMemberDTO {
	out := make([]OrganizationMemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, OrganizationMemberDTO{
			MembershipID:   row.ID,
			OrganizationID: row.OrganizationID,
			UserID:         row.UserID,
			Email:          row.Email,
			FirstName:      copyStringPointer(row.FirstName),
			LastName:       copyStringPointer(row.LastName),
			Role:           row.Role,
			JoinedAt:       row.JoinedAt,
			LastLogin:      row.LastLogin,
		})
	}
	return out
}
