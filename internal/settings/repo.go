package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	"github.com/aquamesh/aquaview-backend/pkg/types"
)

// Repository persists user settings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUserID loads the settings row for a user.
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	var row models.UserSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a settings row. A second row for the same user violates the unique index.
func (r *Repository) Create(ctx context.Context, owner, userID string, theme enums.Theme, layout types.JSONDocument) (*models.UserSettings, error) {
	now := time.Now().UTC()
	row := &models.UserSettings{
		ID:        uuid.New(),
		Owner:     owner,
		UserID:    userID,
		Theme:     theme,
		UILayout:  layout,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// EnsureDefault inserts default settings unless the user already has a row,
// then returns the stored row.
func (r *Repository) EnsureDefault(ctx context.Context, owner, userID string) (*models.UserSettings, bool, error) {
	now := time.Now().UTC()
	row := &models.UserSettings{
		ID:        uuid.New(),
		Owner:     owner,
		UserID:    userID,
		Theme:     enums.DefaultTheme,
		UILayout:  types.EmptyObject,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return row, true, nil
	}
	existing, err := r.FindByUserID(ctx, userID)
	return existing, false, err
}

// UpdateByUserID writes the provided columns on the user's row.
func (r *Repository) UpdateByUserID(ctx context.Context, userID string, cols map[string]any) (*models.UserSettings, error) {
	if len(cols) > 0 {
		cols["updated_at"] = time.Now().UTC()
		res := r.db.WithContext(ctx).Model(&models.UserSettings{}).Where("user_id = ?", userID).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByUserID(ctx, userID)
}
