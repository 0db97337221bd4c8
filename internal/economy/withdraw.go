package economy

import "math"

// Breakdown summarizes one withdrawal computation. Fee is signed the
// same direction as the tier's FeeRate: a negative fee is a bonus.
type Breakdown struct {
	Gross   float64 `json:"gross"`
	Fee     float64 `json:"fee"`
	Net     float64 `json:"net"`
	FeeRate float64 `json:"feeRate"`
}

// ComputeWithdrawal splits amount into gross/fee/net under the tier's
// rate. Rounding convention: the fee is rounded half away from zero to
// 2 decimals, then net = gross - fee, so gross == fee + net always
// reconciles exactly.
func ComputeWithdrawal(amount float64, t Tier) Breakdown {
	fee := round2(amount * t.FeeRate)
	return Breakdown{
		Gross:   amount,
		Fee:     fee,
		Net:     amount - fee,
		FeeRate: t.FeeRate,
	}
}

// UpgradeSavings returns how much less fee the next tier would charge
// on amount. The arithmetic is returned as-is: a worse "next" tier
// yields a negative number.
func UpgradeSavings(amount float64, current, next Tier) float64 {
	return math.Abs(amount*current.FeeRate) - math.Abs(amount*next.FeeRate)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
