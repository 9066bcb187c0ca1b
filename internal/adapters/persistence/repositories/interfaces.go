package repositories

import (
	"context"

	"emitrack/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.UserProfile) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// CustomerRepository defines customer repository interface.
// All lookups except GetByIMEI are scoped to the owning admin.
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id, userID uint) (*models.Customer, error)
	GetByIMEI(ctx context.Context, imei string) (*models.Customer, error)
	List(ctx context.Context, userID uint, offset, limit int) ([]*models.Customer, int64, error)
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id, userID uint) error
	ExistsByMobile(ctx context.Context, mobile string) (bool, error)
}

// EMIRepository defines EMI repository interface
type EMIRepository interface {
	Create(ctx context.Context, emi *models.EMI) error
	GetByIDForOwner(ctx context.Context, id, userID uint) (*models.EMI, error)
	HasOpen(ctx context.Context, customerID uint) (bool, error)
	ListForOwner(ctx context.Context, userID uint, pendingOnly bool) ([]*models.EMI, error)
	ListForCustomer(ctx context.Context, customerID uint, pendingOnly bool) ([]*models.EMI, error)
}

// PaymentRepository defines payment repository interface (append-only;
// rows are created by the ledger engine, never from here)
type PaymentRepository interface {
	ListForOwner(ctx context.Context, userID uint) ([]*models.Payment, error)
	ListForCustomer(ctx context.Context, customerID uint) ([]*models.Payment, error)
}

// DeviceRepository defines device repository interface
type DeviceRepository interface {
	GetByIMEI(ctx context.Context, imei string) (*models.Device, error)
	GetByIMEIForOwner(ctx context.Context, imei string, userID uint) (*models.Device, error)
	UpdateState(ctx context.Context, id uint, updates map[string]interface{}) error
	ListForOwner(ctx context.Context, userID uint) ([]*models.Device, error)
}

// BalanceKeyRepository defines balance key repository interface
type BalanceKeyRepository interface {
	Create(ctx context.Context, key *models.BalanceKey) error
	ListForOwner(ctx context.Context, userID uint, offset, limit int) ([]*models.BalanceKey, int64, error)
}

// FCMTokenRepository defines push token repository interface
type FCMTokenRepository interface {
	Upsert(ctx context.Context, imei, token string) error
	GetByIMEI(ctx context.Context, imei string) (*models.FCMToken, error)
}
