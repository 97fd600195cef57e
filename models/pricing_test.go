package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveSplit(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		deposit string
		balance string
	}{
		{"500 splits 100/400", "500", "100", "400"},
		{"1000 splits 200/800", "1000", "200", "800"},
		{"199.99 rounds at the cent", "199.99", "40", "159.99"},
		{"0.01 smallest price", "0.01", "0", "0.01"},
		{"333.33 thirds", "333.33", "66.67", "266.66"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deposit, balance := DeriveSplit(decimal.RequireFromString(tt.price))
			assert.True(t, decimal.RequireFromString(tt.deposit).Equal(deposit),
				"deposit: expected %s, got %s", tt.deposit, deposit)
			assert.True(t, decimal.RequireFromString(tt.balance).Equal(balance),
				"balance: expected %s, got %s", tt.balance, balance)
		})
	}
}

func TestDeriveSplit_SumsBackToPrice(t *testing.T) {
	// deposit + balance must equal round2(price) up to a cent of rounding
	prices := []string{"500", "1000", "123.45", "0.05", "9999.99", "777.77"}
	cent := decimal.New(1, -2)

	for _, p := range prices {
		price := decimal.RequireFromString(p)
		deposit, balance := DeriveSplit(price)

		diff := deposit.Add(balance).Sub(Round2(price)).Abs()
		assert.True(t, diff.LessThanOrEqual(cent),
			"deposit %s + balance %s drifts from price %s by %s", deposit, balance, price, diff)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "10.01", Round2(decimal.RequireFromString("10.005")).String(),
		"ties round away from zero")
	assert.Equal(t, "-10.01", Round2(decimal.RequireFromString("-10.005")).String(),
		"negative ties round away from zero")
	assert.Equal(t, "10", Round2(decimal.RequireFromString("10.004")).String())
}
