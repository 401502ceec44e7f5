package models

import "time"

// PendingAdminGrant promotes the account signing up with Email to global
// admin. Consumed rows stay for audit.
type PendingAdminGrant struct {
	Email            string     `gorm:"column:email;type:text;primaryKey"`
	GrantedBy        string     `gorm:"column:granted_by;type:text;not null"`
	Note             *string    `gorm:"column:note"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	ConsumedAt       *time.Time `gorm:"column:consumed_at"`
	ConsumedByUserID *string    `gorm:"column:consumed_by_user_id"`
}
