package services

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/adapters/persistence/repositories"
	"emitrack/internal/core/domain"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// BalanceKeyService issues and redeems single-use device registration
// tokens. A key is bound to the issuing admin; redeeming it binds the
// registered device to that admin.
type BalanceKeyService struct {
	db      *gorm.DB
	keyRepo repositories.BalanceKeyRepository
}

// NewBalanceKeyService creates a new balance key service
func NewBalanceKeyService(db *gorm.DB, keyRepo repositories.BalanceKeyRepository) *BalanceKeyService {
	return &BalanceKeyService{db: db, keyRepo: keyRepo}
}

const qrSize = 256

// Issue creates a new unused key for the admin. The token value is a
// random UUID (128-bit space, collisions negligible; the unique index
// on `key` backstops it) plus a scannable QR encoding of the token.
func (s *BalanceKeyService) Issue(ctx context.Context, adminID uint) (*models.BalanceKey, error) {
	token := uuid.New().String()

	png, err := qrcode.Encode(token, qrcode.Medium, qrSize)
	if err != nil {
		return nil, err
	}

	key := &models.BalanceKey{
		Key:    token,
		UserID: adminID,
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	log.Printf("✅ Balance key issued: admin=%d key_id=%d", adminID, key.ID)
	return key, nil
}

// List lists keys issued by the admin, newest first
func (s *BalanceKeyService) List(ctx context.Context, adminID uint, offset, limit int) ([]*models.BalanceKey, int64, error) {
	return s.keyRepo.ListForOwner(ctx, adminID, offset, limit)
}

// redeem consumes the key for a customer inside the caller's
// transaction. The guarded UPDATE (is_used = 0 in the WHERE clause)
// is an atomic compare-and-set: of two racing redemptions exactly one
// flips the flag; the other sees zero rows affected and gets
// ErrKeyAlreadyUsed. Returns the key row as it was before redemption
// so the caller can read the issuing admin.
func (s *BalanceKeyService) redeem(tx *gorm.DB, token string, customerID uint) (*models.BalanceKey, error) {
	var key models.BalanceKey
	if err := tx.Where("`key` = ?", token).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}

	now := time.Now()
	res := tx.Model(&models.BalanceKey{}).
		Where("`key` = ? AND is_used = ?", token, false).
		Updates(map[string]interface{}{
			"is_used":    true,
			"used_by_id": customerID,
			"used_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrKeyAlreadyUsed
	}

	return &key, nil
}
