package services

import (
	"context"
	"errors"
	"log"
	"time"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/adapters/persistence/repositories"
	"emitrack/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService is the EMI payment state machine. AdvancePayment is
// the only code path that mutates paid/remaining month counters, the
// next payment date, EMI paid amounts and the payments table.
type LedgerService struct {
	db           *gorm.DB
	customerRepo repositories.CustomerRepository
	emiRepo      repositories.EMIRepository
	paymentRepo  repositories.PaymentRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	db *gorm.DB,
	customerRepo repositories.CustomerRepository,
	emiRepo repositories.EMIRepository,
	paymentRepo repositories.PaymentRepository,
) *LedgerService {
	return &LedgerService{
		db:           db,
		customerRepo: customerRepo,
		emiRepo:      emiRepo,
		paymentRepo:  paymentRepo,
	}
}

// LedgerResult represents the counters after a successful advance
type LedgerResult struct {
	PaidMonths      int        `json:"paid_months"`
	RemainingMonths int        `json:"remaining_months"`
	NextPaymentDate *time.Time `json:"next_payment_date"`
}

// AdvancePayment records one monthly installment for a customer:
// increments paid_months, recomputes remaining_months, pushes the
// next payment date 30 days forward, adds emi_per_month to the open
// EMI (closing it when fully paid) and appends a Payment row.
//
// The whole mutation runs in one transaction holding an exclusive
// lock on the customer row and its open EMI, so two concurrent calls
// for the same customer serialize; the loser of the final advance
// observes ErrAlreadyFullyPaid. Only the acting admin's own customers
// are reachable.
func (s *LedgerService) AdvancePayment(ctx context.Context, customerID, adminID uint) (*LedgerResult, error) {
	var result LedgerResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock customer row for the duration of the transaction
		var customer models.Customer
		if err := forUpdate(tx).
			Where("id = ? AND user_id = ?", customerID, adminID).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCustomerNotFound
			}
			return err
		}

		// Guard: never advance past total_months
		if customer.PaidMonths >= customer.TotalMonths {
			return domain.ErrAlreadyFullyPaid
		}

		paidMonths := customer.PaidMonths + 1
		remainingMonths := customer.TotalMonths - paidMonths

		base := time.Now().Truncate(24 * time.Hour)
		if customer.NextPaymentDate != nil {
			base = *customer.NextPaymentDate
		}
		nextPaymentDate := base.AddDate(0, 0, 30)

		if err := tx.Model(&customer).Updates(map[string]interface{}{
			"paid_months":       paidMonths,
			"remaining_months":  remainingMonths,
			"next_payment_date": nextPaymentDate,
		}).Error; err != nil {
			return err
		}

		// Advance the open EMI, if any, and append the payment record.
		// A zero emi_per_month still produces a Payment row of 0.00.
		amount := customer.EMIPerMonth
		var emi models.EMI
		err := forUpdate(tx).
			Where("customer_id = ? AND is_closed = ?", customer.ID, false).
			Order("id ASC").
			First(&emi).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			paidAmount := emi.PaidAmount.Add(amount)
			updates := map[string]interface{}{"paid_amount": paidAmount}
			if paidAmount.GreaterThanOrEqual(emi.TotalAmount) {
				updates["is_closed"] = true
			}
			if err := tx.Model(&emi).Updates(updates).Error; err != nil {
				return err
			}

			payment := models.Payment{EMIID: emi.ID, Amount: amount}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		}

		result = LedgerResult{
			PaidMonths:      paidMonths,
			RemainingMonths: remainingMonths,
			NextPaymentDate: &nextPaymentDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ EMI advanced: customer=%d paid_months=%d remaining=%d", customerID, result.PaidMonths, result.RemainingMonths)
	return &result, nil
}

// CreateEMIInput represents EMI creation input
type CreateEMIInput struct {
	CustomerID  uint            `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	NextDueDate time.Time       `json:"next_due_date"`
}

// CreateEMI sets up a new installment plan for a customer. At most
// one open EMI per customer is allowed.
func (s *LedgerService) CreateEMI(ctx context.Context, adminID uint, input *CreateEMIInput) (*models.EMI, error) {
	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	open, err := s.emiRepo.HasOpen(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, domain.ErrOpenEMIExists
	}

	if input.TotalAmount.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	emi := &models.EMI{
		CustomerID:  customer.ID,
		TotalAmount: input.TotalAmount,
		PaidAmount:  decimal.Zero,
		NextDueDate: input.NextDueDate,
	}
	if err := s.emiRepo.Create(ctx, emi); err != nil {
		return nil, err
	}
	return emi, nil
}

// GetEMI returns one EMI owned by the acting admin
func (s *LedgerService) GetEMI(ctx context.Context, id, adminID uint) (*models.EMI, error) {
	emi, err := s.emiRepo.GetByIDForOwner(ctx, id, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEMINotFound
		}
		return nil, err
	}
	return emi, nil
}

// ListEMIs lists EMIs visible to the caller; pendingOnly restricts to
// open plans ordered by next due date
func (s *LedgerService) ListEMIs(ctx context.Context, scope Scope, pendingOnly bool) ([]*models.EMI, error) {
	if scope.AdminID != 0 {
		return s.emiRepo.ListForOwner(ctx, scope.AdminID, pendingOnly)
	}
	return s.emiRepo.ListForCustomer(ctx, scope.CustomerID, pendingOnly)
}

// ListPayments lists payments visible to the caller
func (s *LedgerService) ListPayments(ctx context.Context, scope Scope) ([]*models.Payment, error) {
	if scope.AdminID != 0 {
		return s.paymentRepo.ListForOwner(ctx, scope.AdminID)
	}
	return s.paymentRepo.ListForCustomer(ctx, scope.CustomerID)
}
