package users

import (
	"time"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// UserDTO is the transport shape for a user profile.
type UserDTO struct {
	ID             string               `json:"id"`
	Owner          string               `json:"owner"`
	Email          string               `json:"email"`
	PhoneNumber    *string              `json:"phoneNumber,omitempty"`
	ProfilePicture *string              `json:"profilePicture,omitempty"`
	FirstName      *string              `json:"firstName,omitempty"`
	LastName       *string              `json:"lastName,omitempty"`
	Industry       *string              `json:"industry,omitempty"`
	JobTitle       *string              `json:"jobTitle,omitempty"`
	Bio            *string              `json:"bio,omitempty"`
	Location       *string              `json:"location,omitempty"`
	UserSetupStage enums.UserSetupStage `json:"userSetupStage"`
	SetupComplete  bool                 `json:"setupComplete"`
	GlobalAdmin    bool                 `json:"globalAdmin"`
	LastLogin      *time.Time           `json:"lastLogin,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID          string
	Username    string
	Email       string
	PhoneNumber *string
	GlobalAdmin bool
	Now         time.Time
}

// UpdateProfileInput lists the profile fields a user may change. Nil leaves
// a field untouched.
type UpdateProfileInput struct {
	FirstName      *string
	LastName       *string
	PhoneNumber    *string
	ProfilePicture *string
	Industry       *string
	JobTitle       *string
	Bio            *string
	Location       *string
}

func (in UpdateProfileInput) columns() map[string]any {
	cols := map[string]any{}
	set := func(name string, value *string) {
		if value != nil {
			cols[name] = *value
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("phone_number", in.PhoneNumber)
	set("profile_picture", in.ProfilePicture)
	set("industry", in.Industry)
	set("job_title", in.JobTitle)
	set("bio", in.Bio)
	set("location", in.Location)
	return cols
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:             u.ID,
		Owner:          u.Owner,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		ProfilePicture: u.ProfilePicture,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Industry:       u.Industry,
		JobTitle:       u.JobTitle,
		Bio:            u.Bio,
		Location:       u.Location,
		UserSetupStage: u.UserSetupStage,
		SetupComplete:  u.UserSetupStage == enums.SetupStageComplete,
		GlobalAdmin:    u.GlobalAdmin,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// ToModel builds a fresh user at the INITIAL setup stage.
func (c CreateUserDTO) ToModel() *models.User {
	now := c.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	lastLogin := now
	return &models.User{
		ID:             c.ID,
		Owner:          c.ID + "::" + c.Username,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
		UserSetupStage: enums.SetupStageInitial,
		GlobalAdmin:    c.GlobalAdmin,
		LastLogin:      &lastLogin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
