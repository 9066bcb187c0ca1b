package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Ledger errors
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAlreadyFullyPaid = errors.New("all EMI already paid")
	ErrOpenEMIExists    = errors.New("customer already has an open EMI")
	ErrEMINotFound      = errors.New("emi not found")
)

// Device / balance key errors
var (
	ErrInvalidIMEI        = errors.New("invalid IMEI format")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrUnauthorizedDevice = errors.New("unauthorized device")
	ErrKeyNotFound        = errors.New("balance key not found")
	ErrKeyAlreadyUsed     = errors.New("balance key already used")
)
