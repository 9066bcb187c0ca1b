package services

// Scope identifies the caller on read paths. Exactly one field is set:
// AdminID for an authenticated admin (rows filtered to what they own),
// CustomerID for a device-bound caller resolved from its IMEI (rows
// filtered to that customer only).
type Scope struct {
	AdminID    uint
	CustomerID uint
}

// AdminScope returns a scope for an authenticated admin
func AdminScope(adminID uint) Scope {
	return Scope{AdminID: adminID}
}

// DeviceScope returns a scope for a device-bound customer
func DeviceScope(customerID uint) Scope {
	return Scope{CustomerID: customerID}
}
