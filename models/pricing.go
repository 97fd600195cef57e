package models

import "github.com/shopspring/decimal"

// Deposit share of the total price; the balance is the remaining 80%,
// collected after the customer approves the finished piece.
var depositRate = decimal.NewFromFloat(0.20)
var balanceRate = decimal.NewFromFloat(0.80)

// DeriveSplit computes the deposit/balance split for a price. Both halves are
// rounded to 2 decimal places, half away from zero, the usual monetary
// rounding. Callers that pass an explicit deposit alongside a price skip this
// and keep their own split.
func DeriveSplit(price decimal.Decimal) (deposit, balance decimal.Decimal) {
	deposit = price.Mul(depositRate).Round(2)
	balance = price.Mul(balanceRate).Round(2)
	return deposit, balance
}

// Round2 rounds a monetary amount to 2 decimal places, half away from zero
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
