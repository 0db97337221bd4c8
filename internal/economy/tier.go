package economy

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTable = errors.New("invalid tier table")

// Tier is one economic bracket of the staked-token economy.
// FeeRate is a signed fraction: positive is a withdrawal deduction,
// negative is a bonus credit. DailyLimit < 0 means unbounded.
type Tier struct {
	Name       string  `json:"name"`
	MinBalance int64   `json:"minBalance"`
	FeeRate    float64 `json:"feeRate"`
	DailyLimit float64 `json:"dailyLimit"`
}

// Unlimited reports whether the tier carries no daily withdrawal cap.
func (t Tier) Unlimited() bool { return t.DailyLimit < 0 }

// Table is an ordered tier list: minimum balances strictly increasing,
// first row at 0 so every balance >= 0 matches exactly one tier.
type Table []Tier

// DefaultTable mirrors the shipped staking brackets.
func DefaultTable() Table {
	return Table{
		{Name: "bronze", MinBalance: 0, FeeRate: 0.30, DailyLimit: 500},
		{Name: "silver", MinBalance: 1_000, FeeRate: 0.20, DailyLimit: 2_000},
		{Name: "gold", MinBalance: 10_000, FeeRate: 0.10, DailyLimit: 10_000},
		{Name: "platinum", MinBalance: 50_000, FeeRate: 0.05, DailyLimit: 50_000},
		{Name: "diamond", MinBalance: 100_000, FeeRate: -0.05, DailyLimit: -1},
	}
}

// Validate checks the structural constraints of the table.
func (tb Table) Validate() error {
	var errs []string
	if len(tb) == 0 {
		errs = append(errs, "table must have at least one tier")
	} else if tb[0].MinBalance != 0 {
		errs = append(errs, "first tier must start at min_balance 0")
	}
	for i := 1; i < len(tb); i++ {
		if tb[i].MinBalance <= tb[i-1].MinBalance {
			errs = append(errs, fmt.Sprintf("tiers[%d].min_balance must exceed tiers[%d]", i, i-1))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTable, strings.Join(errs, "; "))
	}
	return nil
}

// TierFor returns the tier with the greatest MinBalance not exceeding
// balance. Total: negative balances map to the lowest tier.
func (tb Table) TierFor(balance int64) Tier {
	best := tb[0]
	for _, t := range tb[1:] {
		if t.MinBalance <= balance {
			best = t
		}
	}
	return best
}

// Next returns the tier following t in the table, if any.
func (tb Table) Next(t Tier) (Tier, bool) {
	for i, row := range tb {
		if row.MinBalance == t.MinBalance && i+1 < len(tb) {
			return tb[i+1], true
		}
	}
	return Tier{}, false
}
