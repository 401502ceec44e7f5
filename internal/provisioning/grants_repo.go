package provisioning

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
)

// GrantRepository persists pending admin grants.
type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GrantRepository) Create(ctx context.Context, grant *models.PendingAdminGrant) error {
	grant.Email = normalizeEmail(grant.Email)
	return r.db.WithContext(ctx).Create(grant).Error
}

// FindPending returns the unconsumed grant for email, or nil when none exists.
func (r *GrantRepository) FindPending(ctx context.Context, email string) (*models.PendingAdminGrant, error) {
	var grant models.PendingAdminGrant
	err := r.db.WithContext(ctx).
		Where("email = ? AND consumed_at IS NULL", normalizeEmail(email)).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

// MarkConsumed stamps the grant. It reports false when the grant was already
// consumed.
func (r *GrantRepository) MarkConsumed(ctx context.Context, email, userID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PendingAdminGrant{}).
		Where("email = ? AND consumed_at IS NULL", normalizeEmail(email)).
		Updates(map[string]any{
			"consumed_at":         at,
			"consumed_by_user_id": userID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns every grant, pending ones first.
func (r *GrantRepository) List(ctx context.Context) ([]models.PendingAdminGrant, error) {
	var rows []models.PendingAdminGrant
	err := r.db.WithContext(ctx).
		Order("consumed_at IS NOT NULL").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
