package sensors

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aquamesh/aquaview-backend/pkg/db/models"
)

// Repository persists sensors and their organization links.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, sensor *models.Sensor) error {
	return r.db.WithContext(ctx).Create(sensor).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	var sensor models.Sensor
	if err := r.db.WithContext(ctx).First(&sensor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sensor, nil
}

func (r *Repository) Update(ctx context.Context, sensor *models.Sensor) error {
	return r.db.WithContext(ctx).Save(sensor).Error
}

// ListAll returns every sensor ordered by name.
func (r *Repository) ListAll(ctx context.Context) ([]models.Sensor, error) {
	var rows []models.Sensor
	if err := r.db.WithContext(ctx).Order("name").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForUser returns sensors linked to any organization the user belongs to.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.Sensor, error) {
	linked := r.db.WithContext(ctx).
		Table("sensor_organizations").
		Select("sensor_organizations.sensor_id").
		Joins("JOIN user_organizations ON user_organizations.organization_id = sensor_organizations.organization_id").
		Where("user_organizations.user_id = ?", userID)

	var rows []models.Sensor
	if err := r.db.WithContext(ctx).Where("id IN (?)", linked).Order("name").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByOrganization returns sensors linked to orgID.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Sensor, error) {
	var rows []models.Sensor
	err := r.db.WithContext(ctx).
		Select("sensors.*").
		Joins("JOIN sensor_organizations ON sensor_organizations.sensor_id = sensors.id").
		Where("sensor_organizations.organization_id = ?", orgID).
		Order("sensors.name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Link inserts the sensor/organization pair unless it already exists.
func (r *Repository) Link(ctx context.Context, sensorID, orgID uuid.UUID) (bool, error) {
	link := &models.SensorOrganization{
		ID:             uuid.New(),
		SensorID:       sensorID,
		OrganizationID: orgID,
		CreatedAt:      time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sensor_id"}, {Name: "organization_id"}},
			DoNothing: true,
		}).
		Create(link)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Unlink removes the pair and reports whether a row was deleted.
func (r *Repository) Unlink(ctx context.Context, sensorID, orgID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("sensor_id = ? AND organization_id = ?", sensorID, orgID).
		Delete(&models.SensorOrganization{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OrganizationIDs lists the organizations a sensor is linked to.
func (r *Repository) OrganizationIDs(ctx context.Context, sensorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.SensorOrganization{}).
		Where("sensor_id = ?", sensorID).
		Order("created_at").
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
