package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table (shop owners / admin operators)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'ADMIN'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// UserProfile represents user_profiles table (1:1 with users,
// created in the same transaction as the account)
type UserProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PhoneNumber string    `gorm:"size:15" json:"phone_number"`
	ShopName    string    `gorm:"size:100" json:"shop_name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Ledger Tables
// ============================================================

// Customer — installment buyer, owned by one admin.
// paid_months / remaining_months / next_payment_date are mutated only
// by the ledger engine; remaining_months = total_months - paid_months.
type Customer struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Mobile          string          `gorm:"uniqueIndex;size:15;not null" json:"mobile"`
	AltMobile       string          `gorm:"size:15" json:"alt_mobile"`
	Email           string          `gorm:"size:100" json:"email"`
	LoanAccountNo   string          `gorm:"size:50" json:"loan_account_no"`
	IMEI1           string          `gorm:"column:imei_1;size:16;index" json:"imei_1"`
	IMEI2           string          `gorm:"column:imei_2;size:16;index" json:"imei_2"`
	DeviceModel     string          `gorm:"size:100" json:"device_model"`
	TotalEMIAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_emi_amount"`
	EMIPerMonth     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"emi_per_month"`
	TotalMonths     int             `gorm:"default:0" json:"total_months"`
	PaidMonths      int             `gorm:"default:0" json:"paid_months"`
	RemainingMonths int             `gorm:"default:0" json:"remaining_months"`
	NextPaymentDate *time.Time      `gorm:"type:date" json:"next_payment_date"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Owner *User `gorm:"foreignKey:UserID" json:"-"`
	EMIs  []EMI `gorm:"foreignKey:CustomerID" json:"emis,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

// EMI — one installment plan. At most one open (is_closed=false) EMI
// per customer; once closed it never reopens.
type EMI struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"index;not null" json:"customer_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"paid_amount"`
	NextDueDate time.Time       `gorm:"type:date;not null" json:"next_due_date"`
	IsClosed    bool            `gorm:"default:false;index" json:"is_closed"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (EMI) TableName() string {
	return "emis"
}

// EMIResponse DTO
type EMIResponse struct {
	ID           uint            `json:"id"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	NextDueDate  time.Time       `json:"next_due_date"`
	IsClosed     bool            `json:"is_closed"`
}

func (e *EMI) ToResponse() *EMIResponse {
	resp := &EMIResponse{
		ID:          e.ID,
		CustomerID:  e.CustomerID,
		TotalAmount: e.TotalAmount,
		PaidAmount:  e.PaidAmount,
		NextDueDate: e.NextDueDate,
		IsClosed:    e.IsClosed,
	}
	if e.Customer != nil {
		resp.CustomerName = e.Customer.Name
	}
	return resp
}

// Payment — append-only record of one installment payment.
// Never updated or deleted after creation.
type Payment struct {
	ID     uint            `gorm:"primaryKey" json:"id"`
	EMIID  uint            `gorm:"column:emi_id;index;not null" json:"emi_id"`
	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaidOn time.Time       `gorm:"autoCreateTime" json:"paid_on"`

	EMI *EMI `gorm:"foreignKey:EMIID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// ============================================================
// Device & Balance Key Tables
// ============================================================

// Device binds one physical unit (by IMEI) to a customer and the
// admin who issued the balance key used at registration.
type Device struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	CustomerID   *uint     `gorm:"index" json:"customer_id"`
	IMEI         string    `gorm:"column:imei;uniqueIndex;size:16;not null" json:"imei"`
	IsLocked     bool      `gorm:"default:false" json:"is_locked"`
	LastAction   string    `gorm:"size:20;default:'registered'" json:"last_action"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`
	LastUpdated  time.Time `gorm:"autoUpdateTime" json:"last_updated"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Device) TableName() string {
	return "devices"
}

// Device last_action values
const (
	ActionRegistered = "registered"
	ActionLocked     = "locked"
	ActionUnlocked   = "unlocked"
)

// BalanceKey — single-use authorization token for device registration.
// is_used flips false→true exactly once, together with used_by/used_at.
type BalanceKey struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Key       string     `gorm:"uniqueIndex;size:64;not null" json:"key"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	IsUsed    bool       `gorm:"default:false;index" json:"is_used"`
	UsedByID  *uint      `gorm:"column:used_by_id" json:"used_by_id"`
	QRCode    string     `gorm:"type:text" json:"qr_code"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UsedAt    *time.Time `json:"used_at"`

	Issuer *User     `gorm:"foreignKey:UserID" json:"-"`
	UsedBy *Customer `gorm:"foreignKey:UsedByID" json:"used_by,omitempty"`
}

func (BalanceKey) TableName() string {
	return "balance_keys"
}

// FCMToken maps a customer's primary IMEI to the push token of the
// companion app running on the device.
type FCMToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IMEI      string    `gorm:"column:imei_1;uniqueIndex;size:16;not null" json:"imei_1"`
	Token     string    `gorm:"type:text;not null" json:"fcm_token"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FCMToken) TableName() string {
	return "fcm_tokens"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserProfile{},
		&RefreshToken{},
		&Customer{},
		&EMI{},
		&Payment{},
		&Device{},
		&BalanceKey{},
		&FCMToken{},
	)
}
