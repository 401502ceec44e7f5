package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant.
type Organization struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description *string   `gorm:"column:description"`
	Logo        *string   `gorm:"column:logo"`
	Address     *string   `gorm:"column:address"`
	City        *string   `gorm:"column:city"`
	State       *string   `gorm:"column:state"`
	ZipCode     *string   `gorm:"column:zip_code"`
	Country     *string   `gorm:"column:country"`
	Website     *string   `gorm:"column:website"`
	Industry    *string   `gorm:"column:industry"`
	Size        *int      `gorm:"column:size"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
