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

// DeviceService binds physical devices (by IMEI) to customers and
// admins, and drives lock/unlock state transitions.
type DeviceService struct {
	db          *gorm.DB
	deviceRepo  repositories.DeviceRepository
	fcmRepo     repositories.FCMTokenRepository
	keyService  *BalanceKeyService
	pushService *PushService
}

// NewDeviceService creates a new device service
func NewDeviceService(
	db *gorm.DB,
	deviceRepo repositories.DeviceRepository,
	fcmRepo repositories.FCMTokenRepository,
	keyService *BalanceKeyService,
	pushService *PushService,
) *DeviceService {
	return &DeviceService{
		db:          db,
		deviceRepo:  deviceRepo,
		fcmRepo:     fcmRepo,
		keyService:  keyService,
		pushService: pushService,
	}
}

// RegisterInput represents device registration input. Key and IMEI
// are required; the remaining fields, when non-empty, update the
// matched customer's profile.
type RegisterInput struct {
	Key         string `json:"key"`
	IMEI        string `json:"imei"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DeviceModel string `json:"device_model"`
}

// Register binds a device to the customer already holding that IMEI.
//
// Registration policy is match-existing: the customer must have been
// onboarded with this IMEI in either slot beforehand; an unknown IMEI
// fails with ErrCustomerNotFound. The balance key is consumed in the
// same transaction, so a failed registration never burns a key and a
// consumed key always has a registered device.
func (s *DeviceService) Register(ctx context.Context, input *RegisterInput) (*models.Device, error) {
	if input.Key == "" {
		return nil, domain.ErrInvalidInput
	}
	if !imei.Valid(input.IMEI) {
		return nil, domain.ErrInvalidIMEI
	}

	var device models.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Resolve customer by IMEI (either slot)
		var customer models.Customer
		if err := forUpdate(tx).
			Where("imei_1 = ? OR imei_2 = ?", input.IMEI, input.IMEI).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCustomerNotFound
			}
			return err
		}

		// Consume the balance key exactly once
		key, err := s.keyService.redeem(tx, input.Key, customer.ID)
		if err != nil {
			return err
		}

		// Apply attribute updates supplied by the registration request
		updates := map[string]interface{}{}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Email != "" {
			updates["email"] = input.Email
		}
		if input.DeviceModel != "" {
			updates["device_model"] = input.DeviceModel
		}
		if len(updates) > 0 {
			if err := tx.Model(&customer).Updates(updates).Error; err != nil {
				return err
			}
		}

		// Create-or-update the device row keyed by IMEI. Re-registering
		// an IMEI bound elsewhere reassigns it; the prior binding loss
		// is logged for audit.
		var existing models.Device
		err = forUpdate(tx).Where("imei = ?", input.IMEI).First(&existing).Error
		switch {
		case err == nil:
			if existing.CustomerID != nil && *existing.CustomerID != customer.ID {
				log.Printf("⚠️ Device %s reassigned: customer %d → %d", input.IMEI, *existing.CustomerID, customer.ID)
			}
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"user_id":     key.UserID,
				"customer_id": customer.ID,
				"is_locked":   false,
				"last_action": models.ActionRegistered,
			}).Error; err != nil {
				return err
			}
			device = existing
			device.UserID = key.UserID
			device.CustomerID = &customer.ID
			device.IsLocked = false
			device.LastAction = models.ActionRegistered
		case errors.Is(err, gorm.ErrRecordNotFound):
			device = models.Device{
				UserID:     key.UserID,
				CustomerID: &customer.ID,
				IMEI:       input.IMEI,
				IsLocked:   false,
				LastAction: models.ActionRegistered,
			}
			if err := tx.Create(&device).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Device registered: imei=%s admin=%d", input.IMEI, device.UserID)
	return &device, nil
}

// List returns the admin's device inventory, newest first
func (s *DeviceService) List(ctx context.Context, adminID uint) ([]*models.Device, error) {
	return s.deviceRepo.ListForOwner(ctx, adminID)
}

// Lock locks a device owned by the acting admin. Idempotent: locking
// a locked device only bumps last_updated.
func (s *DeviceService) Lock(ctx context.Context, deviceIMEI string, adminID uint) error {
	return s.setLockState(ctx, deviceIMEI, adminID, true, models.ActionLocked, "LOCK")
}

// Unlock unlocks a device owned by the acting admin. Idempotent.
func (s *DeviceService) Unlock(ctx context.Context, deviceIMEI string, adminID uint) error {
	return s.setLockState(ctx, deviceIMEI, adminID, false, models.ActionUnlocked, "UNLOCK")
}

func (s *DeviceService) setLockState(ctx context.Context, deviceIMEI string, adminID uint, locked bool, action, command string) error {
	if !imei.Valid(deviceIMEI) {
		return domain.ErrInvalidIMEI
	}

	// Scoped lookup: a device belonging to another admin is reported
	// as not found, never as forbidden
	device, err := s.deviceRepo.GetByIMEIForOwner(ctx, deviceIMEI, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrDeviceNotFound
		}
		return err
	}

	if err := s.deviceRepo.UpdateState(ctx, device.ID, map[string]interface{}{
		"is_locked":    locked,
		"last_action":  action,
		"last_updated": time.Now(),
	}); err != nil {
		return err
	}

	log.Printf("✅ Device %s by admin %d: imei=%s", action, adminID, deviceIMEI)

	// Push the command to the handset immediately when it has a
	// registered push token; delivery is best-effort
	go s.pushCommand(deviceIMEI, command)

	return nil
}

func (s *DeviceService) pushCommand(deviceIMEI, command string) {
	token, err := s.fcmRepo.GetByIMEI(context.Background(), deviceIMEI)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("❌ Push token lookup failed for %s: %v", deviceIMEI, err)
		}
		return
	}
	if err := s.pushService.SendCommand(token.Token, command); err != nil {
		log.Printf("❌ Push %s to %s failed: %v", command, deviceIMEI, err)
	}
}

// CustomerSnapshot is the ledger summary returned to a device caller
type CustomerSnapshot struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Mobile          string          `json:"mobile"`
	Email           string          `json:"email"`
	TotalEMIAmount  decimal.Decimal `json:"total_emi_amount"`
	EMIPerMonth     decimal.Decimal `json:"emi_per_month"`
	PaidMonths      int             `json:"paid_months"`
	RemainingMonths int             `json:"remaining_months"`
	NextPaymentDate *time.Time      `json:"next_payment_date"`
}

// ResolveCustomer maps a device IMEI credential to its bound
// customer. Unknown or unbound devices are refused outright, never
// answered with an empty result.
func (s *DeviceService) ResolveCustomer(ctx context.Context, deviceIMEI string) (*models.Customer, error) {
	if !imei.Valid(deviceIMEI) {
		return nil, domain.ErrInvalidIMEI
	}

	device, err := s.deviceRepo.GetByIMEI(ctx, deviceIMEI)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorizedDevice
		}
		return nil, err
	}
	if device.Customer == nil {
		return nil, domain.ErrUnauthorizedDevice
	}
	return device.Customer, nil
}

// Snapshot returns the bound customer's ledger summary for a device
func (s *DeviceService) Snapshot(ctx context.Context, deviceIMEI string) (*CustomerSnapshot, error) {
	customer, err := s.ResolveCustomer(ctx, deviceIMEI)
	if err != nil {
		return nil, err
	}

	return &CustomerSnapshot{
		ID:              customer.ID,
		Name:            customer.Name,
		Mobile:          customer.Mobile,
		Email:           customer.Email,
		TotalEMIAmount:  customer.TotalEMIAmount,
		EMIPerMonth:     customer.EMIPerMonth,
		PaidMonths:      customer.PaidMonths,
		RemainingMonths: customer.RemainingMonths,
		NextPaymentDate: customer.NextPaymentDate,
	}, nil
}
