package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// emiRepository implements EMIRepository interface
type emiRepository struct {
	db *gorm.DB
}

// NewEMIRepository creates a new EMI repository
func NewEMIRepository(db *gorm.DB) EMIRepository {
	return &emiRepository{db: db}
}

// Create creates a new EMI
func (r *emiRepository) Create(ctx context.Context, emi *models.EMI) error {
	return r.db.WithContext(ctx).Create(emi).Error
}

// GetByIDForOwner gets an EMI whose customer belongs to the given admin
func (r *emiRepository) GetByIDForOwner(ctx context.Context, id, userID uint) (*models.EMI, error) {
	var emi models.EMI
	err := r.db.WithContext(ctx).
		Joins("JOIN customers ON customers.id = emis.customer_id").
		Where("emis.id = ? AND customers.user_id = ?", id, userID).
		Preload("Customer").
		First(&emi).Error
	if err != nil {
		return nil, err
	}
	return &emi, nil
}

// HasOpen reports whether the customer already has an open EMI
func (r *emiRepository) HasOpen(ctx context.Context, customerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EMI{}).
		Where("customer_id = ? AND is_closed = ?", customerID, false).
		Count(&count).Error
	return count > 0, err
}

// ListForOwner lists EMIs across all customers of an admin,
// ordered by next due date
func (r *emiRepository) ListForOwner(ctx context.Context, userID uint, pendingOnly bool) ([]*models.EMI, error) {
	var emis []*models.EMI
	q := r.db.WithContext(ctx).
		Joins("JOIN customers ON customers.id = emis.customer_id").
		Where("customers.user_id = ?", userID).
		Preload("Customer").
		Order("emis.next_due_date ASC")
	if pendingOnly {
		q = q.Where("emis.is_closed = ?", false)
	}
	if err := q.Find(&emis).Error; err != nil {
		return nil, err
	}
	return emis, nil
}

// ListForCustomer lists EMIs of one customer (device-scoped path)
func (r *emiRepository) ListForCustomer(ctx context.Context, customerID uint, pendingOnly bool) ([]*models.EMI, error) {
	var emis []*models.EMI
	q := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Customer").
		Order("next_due_date ASC")
	if pendingOnly {
		q = q.Where("is_closed = ?", false)
	}
	if err := q.Find(&emis).Error; err != nil {
		return nil, err
	}
	return emis, nil
}
