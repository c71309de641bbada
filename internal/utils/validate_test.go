package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}

func TestValidateSignUp(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
		person   string
		want     error
	}{
		{"valid", "ana@example.com", "secret1", "Ana", nil},
		{"valid with accents", "joão@example.com", "senha-forte", "Jo", nil},
		{"bad email", "not-an-email", "secret1", "Ana", ErrInvalidEmail},
		{"empty email", "", "secret1", "Ana", ErrInvalidEmail},
		{"short password", "ana@example.com", "12345", "Ana", ErrShortPassword},
		{"password counts runes", "ana@example.com", "çãîéü", "Ana", ErrShortPassword},
		{"short name", "ana@example.com", "secret1", "A", ErrShortName},
		{"whitespace name", "ana@example.com", "secret1", "  A  ", ErrShortName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSignUp(tc.email, tc.password, tc.person)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}
