// Package imei validates device hardware identifiers.
//
// The same check guards every endpoint that accepts an IMEI, before
// any storage lookup: exactly 15 or 16 ASCII digits, nothing else.
package imei

// Valid reports whether s is a well-formed IMEI.
func Valid(s string) bool {
	if len(s) != 15 && len(s) != 16 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
