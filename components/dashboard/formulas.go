package dashboard

import (
	"github.com/shopspring/decimal"
)

var (
	// MonthlyOverhead is the fixed per-month cost added to training in the
	// sunk cost estimate.
	MonthlyOverhead = decimal.NewFromInt(3000)
	// WasteUnit is the monthly impact of one waste level step.
	WasteUnit = decimal.NewFromInt(12000)
)

// PayrollImpact estimates the sunk cost of a hire over months:
// training × months + overhead × months.
func PayrollImpact(training decimal.Decimal, months int) decimal.Decimal {
	m := decimal.NewFromInt(int64(months))
	return training.Mul(m).Add(MonthlyOverhead.Mul(m))
}

// WasteDelta is the monthly gain (positive) or loss (negative) of running
// at level compared to the baseline level.
func WasteDelta(level int) decimal.Decimal {
	return WasteUnit.Mul(decimal.NewFromInt(int64(DefaultWasteLevel - level)))
}

// FormatEGP renders an amount with thousands separators and the currency code.
func FormatEGP(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	whole := amount.Round(0).String()
	var out []byte
	for i, c := range []byte(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return sign + string(out) + " EGP"
}
