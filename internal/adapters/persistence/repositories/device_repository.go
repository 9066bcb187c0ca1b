package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// deviceRepository implements DeviceRepository interface
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// GetByIMEI gets a device by IMEI (unscoped; used by the device
// credential path after IMEI validation)
func (r *deviceRepository) GetByIMEI(ctx context.Context, imei string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).
		Where("imei = ?", imei).
		Preload("Customer").
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByIMEIForOwner gets a device owned by the given admin
func (r *deviceRepository) GetByIMEIForOwner(ctx context.Context, imei string, userID uint) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).
		Where("imei = ? AND user_id = ?", imei, userID).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// UpdateState applies lock-state updates to a device row
func (r *deviceRepository) UpdateState(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListForOwner lists devices of an admin, newest first
func (r *deviceRepository) ListForOwner(ctx context.Context, userID uint) ([]*models.Device, error) {
	var devices []*models.Device
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Customer").
		Order("registered_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
