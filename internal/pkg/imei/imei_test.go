package imei_test

import (
	"testing"

	"emitrack/internal/pkg/imei"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"15 digits", "356938035643809", true},
		{"16 digits", "3569380356438090", true},
		{"14 digits", "35693803564380", false},
		{"17 digits", "35693803564380901", false},
		{"empty", "", false},
		{"letters", "35693803564380a", false},
		{"hyphenated", "356938-03564380", false},
		{"spaces", "356938035643809 ", false},
		{"unicode digits", "３５６９３８０３５６４３８０９", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imei.Valid(tt.in))
		})
	}
}
