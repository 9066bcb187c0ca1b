package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// balanceKeyRepository implements BalanceKeyRepository interface
type balanceKeyRepository struct {
	db *gorm.DB
}

// NewBalanceKeyRepository creates a new balance key repository
func NewBalanceKeyRepository(db *gorm.DB) BalanceKeyRepository {
	return &balanceKeyRepository{db: db}
}

// Create creates a new balance key
func (r *balanceKeyRepository) Create(ctx context.Context, key *models.BalanceKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

// ListForOwner lists keys issued by an admin with pagination, newest first
func (r *balanceKeyRepository) ListForOwner(ctx context.Context, userID uint, offset, limit int) ([]*models.BalanceKey, int64, error) {
	var keys []*models.BalanceKey
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.BalanceKey{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&keys).Error; err != nil {
		return nil, 0, err
	}

	return keys, total, nil
}
