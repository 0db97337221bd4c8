package tap

import "time"

// Config carries every tap tunable. Zero values fall back to the
// shipped odds so an empty config is a working one.
type Config struct {
	// Cost mode crit rate: min(base + streak*StreakCoeff +
	// combo*ComboCoeff + first-of-day bonus, CapRate).
	BaseRate      float64
	StreakCoeff   float64
	ComboCoeff    float64
	FirstTapBonus float64
	CapRate       float64

	// Forced crit once MissStreak >= ForcedStreak and the uncapped rate
	// reaches ForcedRate.
	ForcedStreak int
	ForcedRate   float64

	Cost      int64 // soft currency burned per cost-mode tap
	MaxReward int64 // epic crit reward before multipliers
	// CostMultiplier scales crit rewards for the mode.
	CostMultiplier float64
	// AutomatedScale shrinks rewards earned from background/auto taps.
	AutomatedScale float64

	// Crit magnitude gates: combo score thresholds and roll cutoffs.
	EpicGate    float64
	EpicRoll    float64
	RareGate    float64
	RareRoll    float64
	RareShare   float64 // fraction of MaxReward for a rare crit
	CommonShare float64 // fraction of MaxReward for a common crit

	// Free mode: flat bonus odds and range, optional double-up.
	FreeRate       float64
	FreeMin        int64
	FreeMax        int64
	FreeDoubleRate float64

	// TargetWindow is how long the accuracy target stays live after a
	// rewarded tap.
	TargetWindow time.Duration

	// Bypass disables the balance check but still runs the full reward
	// algorithm (odds testing, demo contexts).
	Bypass bool
}

func (c Config) withDefaults() Config {
	def := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	def(&c.BaseRate, 0.10)
	def(&c.StreakCoeff, 0.007)
	def(&c.ComboCoeff, 0.008)
	def(&c.FirstTapBonus, c.BaseRate)
	def(&c.CapRate, 0.35)
	if c.ForcedStreak == 0 {
		c.ForcedStreak = 12
	}
	def(&c.ForcedRate, 0.70)
	if c.Cost == 0 {
		c.Cost = 50
	}
	if c.MaxReward == 0 {
		c.MaxReward = 10_000
	}
	def(&c.CostMultiplier, 1.0)
	def(&c.AutomatedScale, 0.7)
	def(&c.EpicGate, 5)
	def(&c.EpicRoll, 0.06)
	def(&c.RareGate, 3)
	def(&c.RareRoll, 0.28)
	def(&c.RareShare, 0.30)
	def(&c.CommonShare, 0.15)
	def(&c.FreeRate, 0.18)
	if c.FreeMin == 0 {
		c.FreeMin = 5
	}
	if c.FreeMax == 0 {
		c.FreeMax = 40
	}
	def(&c.FreeDoubleRate, 0.10)
	if c.TargetWindow == 0 {
		c.TargetWindow = 2 * time.Second
	}
	return c
}

// Consolation lottery for non-crit cost-mode taps: cumulative roll
// thresholds to cost multipliers. Expected value is 0.85x the tap cost
// (0.5*0 + 0.3*0.5 + 0.15*2 + 0.04*5 + 0.01*20).
var consolation = []struct {
	limit float64
	mult  float64
}{
	{0.50, 0},
	{0.80, 0.5},
	{0.95, 2},
	{0.99, 5},
	{1.00, 20},
}
