package models

import (
	"time"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// User is the profile bound to one identity provider subject. ID is the subject.
type User struct {
	ID             string               `gorm:"column:id;type:text;primaryKey"`
	Owner          string               `gorm:"column:owner;type:text;not null"`
	Email          string               `gorm:"column:email;type:text;not null"`
	PhoneNumber    *string              `gorm:"column:phone_number"`
	ProfilePicture *string              `gorm:"column:profile_picture"`
	FirstName      *string              `gorm:"column:first_name"`
	LastName       *string              `gorm:"column:last_name"`
	Industry       *string              `gorm:"column:industry"`
	JobTitle       *string              `gorm:"column:job_title"`
	Bio            *string              `gorm:"column:bio"`
	Location       *string              `gorm:"column:location"`
	UserSetupStage enums.UserSetupStage `gorm:"column:user_setup_stage;type:text;not null"`
	GlobalAdmin    bool                 `gorm:"column:global_admin;not null"`
	LastLogin      *time.Time           `gorm:"column:last_login"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
