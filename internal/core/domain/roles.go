package domain

// Role represents user role in the system
type Role string

const (
	// RoleAdmin is a shop owner: issues balance keys, registers
	// customers, advances the payment ledger, locks devices.
	RoleAdmin Role = "ADMIN"
	// RoleUser is reserved for non-operating accounts.
	RoleUser Role = "USER"
)
