package services

import (
	"context"
	"testing"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIMEI = "356938035643809"

func TestRegister_BindsDeviceAndConsumesKey(t *testing.T) {
	// GIVEN: a customer onboarded with the device's IMEI and a fresh key
	// WHEN: the device registers
	// THEN: it is bound to that customer, unlocked, and the key is burnt

	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID: admin.ID,
		Mobile:  "9000000030",
		IMEI1:   testIMEI,
	})

	issued, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)

	device, err := svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	require.NoError(t, err)
	require.NotNil(t, device.CustomerID)
	assert.Equal(t, customer.ID, *device.CustomerID)
	assert.Equal(t, admin.ID, device.UserID)
	assert.False(t, device.IsLocked)
	assert.Equal(t, models.ActionRegistered, device.LastAction)

	var key models.BalanceKey
	require.NoError(t, db.First(&key, issued.ID).Error)
	assert.True(t, key.IsUsed)
	require.NotNil(t, key.UsedByID)
	assert.Equal(t, customer.ID, *key.UsedByID)

	// The same key cannot register a second device
	_, err = svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	assert.ErrorIs(t, err, domain.ErrKeyAlreadyUsed)
}

func TestRegister_MatchesSecondIMEISlot(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID: admin.ID,
		Mobile:  "9000000031",
		IMEI1:   "111111111111111",
		IMEI2:   testIMEI,
	})

	issued, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)

	device, err := svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, *device.CustomerID)
}

func TestRegister_UnknownIMEILeavesKeyUnused(t *testing.T) {
	// A failed registration must not burn the key

	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	issued, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	var key models.BalanceKey
	require.NoError(t, db.First(&key, issued.ID).Error)
	assert.False(t, key.IsUsed)
}

func TestRegister_InputValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterInput{Key: "", IMEI: testIMEI})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, bad := range []string{"", "1234", "35693803564380a", "35693803564380912345"} {
		_, err := svc.Register(ctx, &RegisterInput{Key: "some-key", IMEI: bad})
		assert.ErrorIs(t, err, domain.ErrInvalidIMEI, "imei %q", bad)
	}
}

func TestRegister_AppliesCustomerAttributeUpdates(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID: admin.ID,
		Mobile:  "9000000032",
		IMEI1:   testIMEI,
	})

	issued, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterInput{
		Key:         issued.Key,
		IMEI:        testIMEI,
		Name:        "Ravi Kumar",
		Email:       "ravi@example.test",
		DeviceModel: "Galaxy A15",
	})
	require.NoError(t, err)

	var got models.Customer
	require.NoError(t, db.First(&got, customer.ID).Error)
	assert.Equal(t, "Ravi Kumar", got.Name)
	assert.Equal(t, "ravi@example.test", got.Email)
	assert.Equal(t, "Galaxy A15", got.DeviceModel)
}

func TestRegister_ReRegistrationUpdatesExistingRow(t *testing.T) {
	// Re-registering the same IMEI with a fresh key reuses the device
	// row and resets its lock state

	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	seedCustomer(t, db, customerSeed{AdminID: admin.ID, Mobile: "9000000033", IMEI1: testIMEI})

	k1, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)
	first, err := svc.Register(ctx, &RegisterInput{Key: k1.Key, IMEI: testIMEI})
	require.NoError(t, err)

	require.NoError(t, svc.Lock(ctx, testIMEI, admin.ID))

	k2, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)
	second, err := svc.Register(ctx, &RegisterInput{Key: k2.Key, IMEI: testIMEI})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same IMEI maps to the same device row")
	assert.False(t, second.IsLocked)

	var count int64
	require.NoError(t, db.Model(&models.Device{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLockUnlock_TransitionsAndIdempotency(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	seedCustomer(t, db, customerSeed{AdminID: admin.ID, Mobile: "9000000034", IMEI1: testIMEI})

	issued, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	require.NoError(t, err)

	require.NoError(t, svc.Lock(ctx, testIMEI, admin.ID))

	var device models.Device
	require.NoError(t, db.Where("imei = ?", testIMEI).First(&device).Error)
	assert.True(t, device.IsLocked)
	assert.Equal(t, models.ActionLocked, device.LastAction)

	// Locking a locked device is not an error
	require.NoError(t, svc.Lock(ctx, testIMEI, admin.ID))

	require.NoError(t, svc.Unlock(ctx, testIMEI, admin.ID))
	require.NoError(t, db.Where("imei = ?", testIMEI).First(&device).Error)
	assert.False(t, device.IsLocked)
	assert.Equal(t, models.ActionUnlocked, device.LastAction)
}

func TestLock_ForeignAdminSeesNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	owner := seedAdmin(t, db, "shop1")
	other := seedAdmin(t, db, "shop2")
	seedCustomer(t, db, customerSeed{AdminID: owner.ID, Mobile: "9000000035", IMEI1: testIMEI})

	issued, err := svc.keyService.Issue(ctx, owner.ID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	require.NoError(t, err)

	err = svc.Lock(ctx, testIMEI, other.ID)
	assert.ErrorIs(t, err, domain.ErrDeviceNotFound,
		"another admin's device reads as not found, not forbidden")
}

func TestSnapshot_ReturnsBoundCustomerLedger(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000036",
		IMEI1:       testIMEI,
		EMIPerMonth: "750",
		TotalAmount: "9000",
		TotalMonths: 12,
	})

	issued, err := svc.keyService.Issue(ctx, admin.ID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterInput{Key: issued.Key, IMEI: testIMEI})
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(ctx, testIMEI)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, snapshot.ID)
	assert.Equal(t, 12, snapshot.RemainingMonths)
	assert.True(t, snapshot.EMIPerMonth.Equal(customer.EMIPerMonth))
}

func TestSnapshot_UnregisteredDeviceRefused(t *testing.T) {
	db := newTestDB(t)
	svc := newDeviceService(db)

	_, err := svc.Snapshot(context.Background(), testIMEI)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDevice)
}
