package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
)

// Repository persists sensor alerts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, alert *models.SensorAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SensorAlert, error) {
	var alert models.SensorAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListBySensor returns the sensor's alerts newest first.
func (r *Repository) ListBySensor(ctx context.Context, sensorID uuid.UUID, filter ListFilter) ([]models.SensorAlert, error) {
	query := r.db.WithContext(ctx).Where("sensor_id = ?", sensorID)
	if filter.Acknowledged != nil {
		query = query.Where("acknowledged = ?", *filter.Acknowledged)
	}
	var rows []models.SensorAlert
	err := query.
		Order("timestamp DESC").
		Order("id DESC").
		Limit(filter.limit()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Acknowledge flips an unacknowledged alert. It reports false when the alert
// was already acknowledged so the caller keeps the first acknowledgement.
func (r *Repository) Acknowledge(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SensorAlert{}).
		Where("id = ? AND acknowledged = ?", id, false).
		Updates(map[string]any{
			"acknowledged":    true,
			"acknowledged_by": by,
			"acknowledged_at": at,
			"updated_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
