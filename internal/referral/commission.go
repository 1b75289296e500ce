package referral

import "github.com/shopspring/decimal"

var (
	DefaultRate = decimal.NewFromInt(10)

	maxRate = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
)

// Commission sums price*qty*rate/100 over the lines. A line uses its product's
// affiliate rate when set, otherwise defaultRate. Rates outside [0,50] count as 0.
func Commission(lines []CommissionLine, defaultRate decimal.Decimal) decimal.Decimal {
	if !validRate(defaultRate) {
		defaultRate = decimal.Zero
	}

	total := decimal.Zero
	for _, l := range lines {
		itemTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		if !itemTotal.IsPositive() {
			continue
		}
		rate := defaultRate
		if l.AffiliateRate != nil {
			rate = *l.AffiliateRate
		}
		if !validRate(rate) || rate.IsZero() {
			continue
		}
		total = total.Add(itemTotal.Mul(rate).Div(hundred))
	}
	return total.Round(2)
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(maxRate)
}
