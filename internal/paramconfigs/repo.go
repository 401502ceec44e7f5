package paramconfigs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
)

// Repository persists parameter configs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, cfg *models.ParameterConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ParameterConfig, error) {
	var cfg models.ParameterConfig
	if err := r.db.WithContext(ctx).First(&cfg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Repository) Update(ctx context.Context, cfg *models.ParameterConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

// ListScoped returns the global configs and, when orgID is set, that
// organization's overrides.
func (r *Repository) ListScoped(ctx context.Context, orgID *uuid.UUID) ([]models.ParameterConfig, error) {
	query := r.db.WithContext(ctx)
	if orgID != nil {
		query = query.Where("organization_id IS NULL OR organization_id = ?", *orgID)
	} else {
		query = query.Where("organization_id IS NULL")
	}
	var rows []models.ParameterConfig
	if err := query.Order("parameter_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// NameTaken reports whether another config in the same scope uses name.
func (r *Repository) NameTaken(ctx context.Context, name string, orgID *uuid.UUID, exclude uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ParameterConfig{}).
		Where("parameter_name = ? AND id <> ?", name, exclude)
	if orgID != nil {
		query = query.Where("organization_id = ?", *orgID)
	} else {
		query = query.Where("organization_id IS NULL")
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
