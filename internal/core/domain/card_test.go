package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliasdev/kipu-bank/internal/core/domain"
)

func TestValidateCard(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
		brand  domain.CardBrand
	}{
		{"visa 16 digits", "4111111111111111", true, domain.Visa},
		{"visa with spaces", "4111 1111 1111 1111", true, domain.Visa},
		{"visa 13 digits", "4222222222222", true, domain.Visa},
		{"mastercard", "5500005555555559", true, domain.Mastercard},
		{"mastercard with dashes", "5555-5555-5555-4444", true, domain.Mastercard},
		{"amex rejected even when luhn-valid", "378282246310005", false, domain.Unknown},
		{"luhn failure", "4111111111111112", false, domain.Unknown},
		{"garbage", "not-a-card", false, domain.Unknown},
		{"empty", "", false, domain.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, brand := domain.ValidateCard(tt.number)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.brand, brand)
		})
	}
}
