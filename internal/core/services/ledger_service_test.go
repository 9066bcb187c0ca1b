package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvancePayment_FullPlanLifecycle(t *testing.T) {
	// GIVEN: a 3-month plan at 1000/month with an open EMI of 3000
	// WHEN: advancing three times
	// THEN: counters walk 1/2, 2/1, 3/0, the EMI closes on the last
	//       advance and every advance leaves one payment row

	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000001",
		EMIPerMonth: "1000",
		TotalAmount: "3000",
		TotalMonths: 3,
		NextDate:    &start,
	})

	emi, err := svc.CreateEMI(ctx, admin.ID, &CreateEMIInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString("3000"),
		NextDueDate: start,
	})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		result, err := svc.AdvancePayment(ctx, customer.ID, admin.ID)
		require.NoError(t, err, "advance %d should succeed", i)
		assert.Equal(t, i, result.PaidMonths)
		assert.Equal(t, 3-i, result.RemainingMonths)

		require.NotNil(t, result.NextPaymentDate)
		want := start.AddDate(0, 0, 30*i)
		assert.True(t, result.NextPaymentDate.Equal(want),
			"advance %d: next date should be %s, got %s", i, want, result.NextPaymentDate)
	}

	var got models.EMI
	require.NoError(t, db.First(&got, emi.ID).Error)
	assert.True(t, got.IsClosed, "EMI should close once paid amount reaches total")
	assert.True(t, got.PaidAmount.Equal(decimal.RequireFromString("3000")))

	var payments int64
	require.NoError(t, db.Model(&models.Payment{}).Where("emi_id = ?", emi.ID).Count(&payments).Error)
	assert.EqualValues(t, 3, payments)
}

func TestAdvancePayment_RejectsBeyondTotalMonths(t *testing.T) {
	// GIVEN: a fully paid 2-month plan
	// WHEN: advancing again
	// THEN: ErrAlreadyFullyPaid, and nothing changes

	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000002",
		EMIPerMonth: "500",
		TotalAmount: "1000",
		TotalMonths: 2,
	})

	_, err := svc.AdvancePayment(ctx, customer.ID, admin.ID)
	require.NoError(t, err)
	_, err = svc.AdvancePayment(ctx, customer.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.AdvancePayment(ctx, customer.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFullyPaid)

	var got models.Customer
	require.NoError(t, db.First(&got, customer.ID).Error)
	assert.Equal(t, 2, got.PaidMonths)
	assert.Equal(t, 0, got.RemainingMonths)

	var payments int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&payments).Error)
	assert.EqualValues(t, 0, payments, "no open EMI was seeded, so no payment rows")
}

func TestAdvancePayment_ConcurrentAdvancesNeverExceedPlan(t *testing.T) {
	// GIVEN: a 3-month plan and five callers racing to advance it
	// WHEN: all five run at once
	// THEN: exactly three succeed, the rest see the plan as fully
	//       paid, and the stored counters land on 3/0

	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000010",
		EMIPerMonth: "1000",
		TotalAmount: "3000",
		TotalMonths: 3,
	})

	const callers = 5
	start := make(chan struct{})
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			<-start
			_, err := svc.AdvancePayment(ctx, customer.ID, admin.ID)
			errs <- err
		}()
	}
	close(start)

	var advanced, refused int
	for i := 0; i < callers; i++ {
		switch err := <-errs; {
		case err == nil:
			advanced++
		case errors.Is(err, domain.ErrAlreadyFullyPaid):
			refused++
		default:
			t.Fatalf("unexpected advance error: %v", err)
		}
	}
	assert.Equal(t, 3, advanced, "only total_months advances may land")
	assert.Equal(t, callers-3, refused)

	var got models.Customer
	require.NoError(t, db.First(&got, customer.ID).Error)
	assert.Equal(t, 3, got.PaidMonths)
	assert.Equal(t, 0, got.RemainingMonths)

	var payments int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&payments).Error)
	assert.EqualValues(t, 0, payments, "no open EMI was seeded, so no payment rows")
}

func TestAdvancePayment_ZeroMonthPlanAlreadyFullyPaid(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID: admin.ID,
		Mobile:  "9000000003",
	})

	_, err := svc.AdvancePayment(context.Background(), customer.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFullyPaid)
}

func TestAdvancePayment_UnsetNextDateAnchorsOnToday(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000004",
		EMIPerMonth: "100",
		TotalMonths: 6,
	})

	result, err := svc.AdvancePayment(context.Background(), customer.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, result.NextPaymentDate)

	want := time.Now().AddDate(0, 0, 30)
	assert.WithinDuration(t, want, *result.NextPaymentDate, 24*time.Hour)
}

func TestAdvancePayment_CustomerOfAnotherAdminIsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)

	owner := seedAdmin(t, db, "shop1")
	other := seedAdmin(t, db, "shop2")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     owner.ID,
		Mobile:      "9000000005",
		TotalMonths: 3,
	})

	_, err := svc.AdvancePayment(context.Background(), customer.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	var got models.Customer
	require.NoError(t, db.First(&got, customer.ID).Error)
	assert.Equal(t, 0, got.PaidMonths, "foreign admin must not move the ledger")
}

func TestAdvancePayment_ZeroInstallmentStillRecordsPayment(t *testing.T) {
	// An open EMI with emi_per_month of 0 still gets a 0.00 payment row

	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000006",
		TotalAmount: "1000",
		TotalMonths: 4,
	})

	emi, err := svc.CreateEMI(ctx, admin.ID, &CreateEMIInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString("1000"),
		NextDueDate: time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.AdvancePayment(ctx, customer.ID, admin.ID)
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, db.Where("emi_id = ?", emi.ID).First(&payment).Error)
	assert.True(t, payment.Amount.IsZero())

	var got models.EMI
	require.NoError(t, db.First(&got, emi.ID).Error)
	assert.False(t, got.IsClosed)
}

func TestCreateEMI_SecondOpenPlanRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000007",
		TotalMonths: 3,
	})

	_, err := svc.CreateEMI(ctx, admin.ID, &CreateEMIInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString("2000"),
		NextDueDate: time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.CreateEMI(ctx, admin.ID, &CreateEMIInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString("999"),
		NextDueDate: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrOpenEMIExists)
}

func TestListEMIs_ScopedPerCaller(t *testing.T) {
	// Admins see only their own customers' EMIs; a device scope sees
	// only its bound customer's

	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin1 := seedAdmin(t, db, "shop1")
	admin2 := seedAdmin(t, db, "shop2")
	c1 := seedCustomer(t, db, customerSeed{AdminID: admin1.ID, Mobile: "9000000008", TotalMonths: 3})
	c2 := seedCustomer(t, db, customerSeed{AdminID: admin2.ID, Mobile: "9000000009", TotalMonths: 3})

	_, err := svc.CreateEMI(ctx, admin1.ID, &CreateEMIInput{CustomerID: c1.ID, TotalAmount: decimal.RequireFromString("100"), NextDueDate: time.Now()})
	require.NoError(t, err)
	_, err = svc.CreateEMI(ctx, admin2.ID, &CreateEMIInput{CustomerID: c2.ID, TotalAmount: decimal.RequireFromString("200"), NextDueDate: time.Now()})
	require.NoError(t, err)

	forAdmin1, err := svc.ListEMIs(ctx, AdminScope(admin1.ID), false)
	require.NoError(t, err)
	require.Len(t, forAdmin1, 1)
	assert.Equal(t, c1.ID, forAdmin1[0].CustomerID)

	forDevice, err := svc.ListEMIs(ctx, DeviceScope(c2.ID), false)
	require.NoError(t, err)
	require.Len(t, forDevice, 1)
	assert.Equal(t, c2.ID, forDevice[0].CustomerID)
}

func TestListEMIs_PendingOnlyExcludesClosed(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "shop1")
	customer := seedCustomer(t, db, customerSeed{
		AdminID:     admin.ID,
		Mobile:      "9000000010",
		EMIPerMonth: "1000",
		TotalMonths: 1,
	})

	_, err := svc.CreateEMI(ctx, admin.ID, &CreateEMIInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString("1000"),
		NextDueDate: time.Now(),
	})
	require.NoError(t, err)

	pending, err := svc.ListEMIs(ctx, AdminScope(admin.ID), true)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	// One advance pays it off entirely
	_, err = svc.AdvancePayment(ctx, customer.ID, admin.ID)
	require.NoError(t, err)

	pending, err = svc.ListEMIs(ctx, AdminScope(admin.ID), true)
	require.NoError(t, err)
	assert.Len(t, pending, 0)

	all, err := svc.ListEMIs(ctx, AdminScope(admin.ID), false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
