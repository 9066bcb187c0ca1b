package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// customerRepository implements CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create creates a new customer
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// GetByID gets a customer owned by the given admin
func (r *customerRepository) GetByID(ctx context.Context, id, userID uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByIMEI gets a customer by primary or secondary IMEI slot.
// Unscoped: the device registration flow resolves customers before
// any admin context exists.
func (r *customerRepository) GetByIMEI(ctx context.Context, imei string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("imei_1 = ? OR imei_2 = ?", imei, imei).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List lists customers of an admin with pagination, newest first
func (r *customerRepository) List(ctx context.Context, userID uint, offset, limit int) ([]*models.Customer, int64, error) {
	var customers []*models.Customer
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

// UpdateFields writes only the given columns. Callers pass profile
// columns exclusively, so a payment committed between their read and
// this write is never clobbered by a stale full-row save.
func (r *customerRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a customer and, in the same transaction, its EMIs
// and their payments. Ownership is re-checked inside the transaction.
func (r *customerRepository) Delete(ctx context.Context, id, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&customer).Error; err != nil {
			return err
		}

		var emiIDs []uint
		if err := tx.Model(&models.EMI{}).
			Where("customer_id = ?", customer.ID).
			Pluck("id", &emiIDs).Error; err != nil {
			return err
		}

		if len(emiIDs) > 0 {
			if err := tx.Where("emi_id IN ?", emiIDs).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", emiIDs).Delete(&models.EMI{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&customer).Error
	})
}

// ExistsByMobile checks if a customer mobile number exists
func (r *customerRepository) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("mobile = ?", mobile).Count(&count).Error
	return count > 0, err
}
