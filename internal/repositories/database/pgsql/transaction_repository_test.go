package pgsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name untouched", "CHIPOTLE 1234", "CHIPOTLE 1234"},
		{"percent escaped", "100% JUICE CO", `100\% JUICE CO`},
		{"underscore escaped", "SHOP_RITE", `SHOP\_RITE`},
		{"backslash escaped first", `ACME\CORP`, `ACME\\CORP`},
		{"mixed metacharacters", `A_B%C\D`, `A\_B\%C\\D`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLikePattern(tt.in))
		})
	}
}
