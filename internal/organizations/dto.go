package organizations

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
)

// OrganizationDTO is the full organization record.
type OrganizationDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Logo        *string   `json:"logo,omitempty"`
	Address     *string   `json:"address,omitempty"`
	City        *string   `json:"city,omitempty"`
	State       *string   `json:"state,omitempty"`
	ZipCode     *string   `json:"zipCode,omitempty"`
	Country     *string   `json:"country,omitempty"`
	Website     *string   `json:"website,omitempty"`
	Industry    *string   `json:"industry,omitempty"`
	Size        *int      `json:"size,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BasicDTO is the directory entry shown to every signed-in user.
type BasicDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Logo     *string   `json:"logo,omitempty"`
	Industry *string   `json:"industry,omitempty"`
}

// Fields lists the writable organization attributes. On update a nil
// pointer leaves the column untouched.
type Fields struct {
	Name        *string
	Description *string
	Logo        *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Country     *string
	Website     *string
	Industry    *string
	Size        *int
}

func (f Fields) apply(org *models.Organization) {
	if f.Name != nil {
		org.Name = *f.Name
	}
	setString := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	setString(&org.Description, f.Description)
	setString(&org.Logo, f.Logo)
	setString(&org.Address, f.Address)
	setString(&org.City, f.City)
	setString(&org.State, f.State)
	setString(&org.ZipCode, f.ZipCode)
	setString(&org.Country, f.Country)
	setString(&org.Website, f.Website)
	setString(&org.Industry, f.Industry)
	if f.Size != nil {
		size := *f.Size
		org.Size = &size
	}
}

func FromModel(m *models.Organization) *OrganizationDTO {
	if m == nil {
		return nil
	}
	return &OrganizationDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Logo:        m.Logo,
		Address:     m.Address,
		City:        m.City,
		State:       m.State,
		ZipCode:     m.ZipCode,
		Country:     m.Country,
		Website:     m.Website,
		Industry:    m.Industry,
		Size:        m.Size,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
