package services

import (
	"context"
	"errors"
	"log"
	"time"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/adapters/persistence/repositories"
	"emitrack/internal/core/domain"
	"emitrack/internal/pkg/imei"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerService handles customer onboarding and profile CRUD. It
// never touches ledger counters; those belong to LedgerService.
type CustomerService struct {
	customerRepo repositories.CustomerRepository
	fcmRepo      repositories.FCMTokenRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repositories.CustomerRepository, fcmRepo repositories.FCMTokenRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, fcmRepo: fcmRepo}
}

// CustomerInput represents customer create/update input
type CustomerInput struct {
	Name            string          `json:"name"`
	Mobile          string          `json:"mobile"`
	AltMobile       string          `json:"alt_mobile"`
	Email           string          `json:"email"`
	LoanAccountNo   string          `json:"loan_account_no"`
	IMEI1           string          `json:"imei_1"`
	IMEI2           string          `json:"imei_2"`
	DeviceModel     string          `json:"device_model"`
	TotalEMIAmount  decimal.Decimal `json:"total_emi_amount"`
	EMIPerMonth     decimal.Decimal `json:"emi_per_month"`
	TotalMonths     int             `json:"total_months"`
	NextPaymentDate *time.Time      `json:"next_payment_date"`
}

// Create onboards a new customer for the admin
func (s *CustomerService) Create(ctx context.Context, adminID uint, input *CustomerInput) (*models.Customer, error) {
	if input.Name == "" || input.Mobile == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.TotalMonths < 0 || input.TotalEMIAmount.IsNegative() || input.EMIPerMonth.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if input.IMEI1 != "" && !imei.Valid(input.IMEI1) {
		return nil, domain.ErrInvalidIMEI
	}
	if input.IMEI2 != "" && !imei.Valid(input.IMEI2) {
		return nil, domain.ErrInvalidIMEI
	}

	exists, err := s.customerRepo.ExistsByMobile(ctx, input.Mobile)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEntry
	}

	customer := &models.Customer{
		UserID:          adminID,
		Name:            input.Name,
		Mobile:          input.Mobile,
		AltMobile:       input.AltMobile,
		Email:           input.Email,
		LoanAccountNo:   input.LoanAccountNo,
		IMEI1:           input.IMEI1,
		IMEI2:           input.IMEI2,
		DeviceModel:     input.DeviceModel,
		TotalEMIAmount:  input.TotalEMIAmount,
		EMIPerMonth:     input.EMIPerMonth,
		TotalMonths:     input.TotalMonths,
		RemainingMonths: input.TotalMonths,
		NextPaymentDate: input.NextPaymentDate,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	log.Printf("✅ Customer created: id=%d admin=%d", customer.ID, adminID)
	return customer, nil
}

// Get returns one customer owned by the admin
func (s *CustomerService) Get(ctx context.Context, id, adminID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// List lists the admin's customers with pagination
func (s *CustomerService) List(ctx context.Context, adminID uint, offset, limit int) ([]*models.Customer, int64, error) {
	return s.customerRepo.List(ctx, adminID, offset, limit)
}

// Update applies profile-field updates to a customer. Only the
// provided fields are written; paid_months and next_payment_date are
// never touched, so a payment recorded concurrently survives the edit.
func (s *CustomerService) Update(ctx context.Context, id, adminID uint, input *CustomerInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, id, adminID)
	if err != nil {
		return nil, err
	}

	if input.IMEI1 != "" && !imei.Valid(input.IMEI1) {
		return nil, domain.ErrInvalidIMEI
	}
	if input.IMEI2 != "" && !imei.Valid(input.IMEI2) {
		return nil, domain.ErrInvalidIMEI
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Mobile != "" {
		updates["mobile"] = input.Mobile
	}
	if input.AltMobile != "" {
		updates["alt_mobile"] = input.AltMobile
	}
	if input.Email != "" {
		updates["email"] = input.Email
	}
	if input.LoanAccountNo != "" {
		updates["loan_account_no"] = input.LoanAccountNo
	}
	if input.IMEI1 != "" {
		updates["imei_1"] = input.IMEI1
	}
	if input.IMEI2 != "" {
		updates["imei_2"] = input.IMEI2
	}
	if input.DeviceModel != "" {
		updates["device_model"] = input.DeviceModel
	}
	if !input.TotalEMIAmount.IsZero() {
		updates["total_emi_amount"] = input.TotalEMIAmount
	}
	if !input.EMIPerMonth.IsZero() {
		updates["emi_per_month"] = input.EMIPerMonth
	}
	if input.TotalMonths > 0 {
		updates["total_months"] = input.TotalMonths
		// remaining_months derives from paid_months as it stands in the
		// database at write time, not from the row read above.
		updates["remaining_months"] = gorm.Expr("? - paid_months", input.TotalMonths)
	}

	if len(updates) > 0 {
		if err := s.customerRepo.UpdateFields(ctx, customer.ID, updates); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id, adminID)
}

// Delete removes a customer together with its EMIs and payments
func (s *CustomerService) Delete(ctx context.Context, id, adminID uint) error {
	err := s.customerRepo.Delete(ctx, id, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrCustomerNotFound
		}
		return err
	}

	log.Printf("✅ Customer deleted (cascade): id=%d admin=%d", id, adminID)
	return nil
}

// RegisterFCMToken stores the push token for a customer's primary
// IMEI. The IMEI must belong to one of the admin's own customers.
func (s *CustomerService) RegisterFCMToken(ctx context.Context, adminID uint, deviceIMEI, token string) error {
	if token == "" {
		return domain.ErrInvalidInput
	}
	if !imei.Valid(deviceIMEI) {
		return domain.ErrInvalidIMEI
	}

	customer, err := s.customerRepo.GetByIMEI(ctx, deviceIMEI)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	if customer.UserID != adminID {
		return domain.ErrForbidden
	}

	return s.fcmRepo.Upsert(ctx, deviceIMEI, token)
}
