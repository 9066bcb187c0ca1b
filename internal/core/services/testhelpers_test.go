package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/adapters/persistence/repositories"
	"emitrack/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// newTestDB opens a private in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Single connection: sqlite allows one writer, so concurrent
	// transactions queue instead of failing with a busy error.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func seedAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@shop.test",
		Password: "x",
		Role:     "ADMIN",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type customerSeed struct {
	AdminID     uint
	Name        string
	Mobile      string
	IMEI1       string
	IMEI2       string
	EMIPerMonth string
	TotalAmount string
	TotalMonths int
	NextDate    *time.Time
}

func seedCustomer(t *testing.T, db *gorm.DB, seed customerSeed) *models.Customer {
	t.Helper()

	if seed.Name == "" {
		seed.Name = "Customer " + seed.Mobile
	}
	if seed.EMIPerMonth == "" {
		seed.EMIPerMonth = "0"
	}
	if seed.TotalAmount == "" {
		seed.TotalAmount = "0"
	}

	customer := &models.Customer{
		UserID:          seed.AdminID,
		Name:            seed.Name,
		Mobile:          seed.Mobile,
		IMEI1:           seed.IMEI1,
		IMEI2:           seed.IMEI2,
		TotalEMIAmount:  decimal.RequireFromString(seed.TotalAmount),
		EMIPerMonth:     decimal.RequireFromString(seed.EMIPerMonth),
		TotalMonths:     seed.TotalMonths,
		RemainingMonths: seed.TotalMonths,
		NextPaymentDate: seed.NextDate,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func newLedgerService(db *gorm.DB) *LedgerService {
	return NewLedgerService(
		db,
		repositories.NewCustomerRepository(db),
		repositories.NewEMIRepository(db),
		repositories.NewPaymentRepository(db),
	)
}

func newDeviceService(db *gorm.DB) *DeviceService {
	return NewDeviceService(
		db,
		repositories.NewDeviceRepository(db),
		repositories.NewFCMTokenRepository(db),
		NewBalanceKeyService(db, repositories.NewBalanceKeyRepository(db)),
		NewPushService(&config.Config{}),
	)
}
