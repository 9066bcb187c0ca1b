package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// ListForOwner lists payments across all customers of an admin, newest first
func (r *paymentRepository) ListForOwner(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN emis ON emis.id = payments.emi_id").
		Joins("JOIN customers ON customers.id = emis.customer_id").
		Where("customers.user_id = ?", userID).
		Order("payments.paid_on DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListForCustomer lists payments of one customer (device-scoped path)
func (r *paymentRepository) ListForCustomer(ctx context.Context, customerID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN emis ON emis.id = payments.emi_id").
		Where("emis.customer_id = ?", customerID).
		Order("payments.paid_on DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
