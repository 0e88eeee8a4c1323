package utils

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Money converts a stored float amount to a decimal rounded to cents.
func Money(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(2)
}

// ToAmount rounds d to cents and returns it as a float for storage.
func ToAmount(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Percent returns amount × rate / 100 rounded to cents.
func Percent(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Div(hundred).Round(2)
}

// ClampAmount limits d to [0, max].
func ClampAmount(d, max decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}
