package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fcmTokenRepository implements FCMTokenRepository interface
type fcmTokenRepository struct {
	db *gorm.DB
}

// NewFCMTokenRepository creates a new push token repository
func NewFCMTokenRepository(db *gorm.DB) FCMTokenRepository {
	return &fcmTokenRepository{db: db}
}

// Upsert creates or replaces the push token for an IMEI
func (r *fcmTokenRepository) Upsert(ctx context.Context, imei, token string) error {
	row := models.FCMToken{IMEI: imei, Token: token}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "imei_1"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
		}).
		Create(&row).Error
}

// GetByIMEI gets the push token registered for an IMEI
func (r *fcmTokenRepository) GetByIMEI(ctx context.Context, imei string) (*models.FCMToken, error) {
	var row models.FCMToken
	err := r.db.WithContext(ctx).Where("imei_1 = ?", imei).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
