// Package tap implements the click-reward engine: a free-mode faucet
// and a cost-mode pity algorithm whose crit probability rises with the
// miss streak and the hot-streak combo, bounded by a forced-crit
// guarantee.
package tap

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/manekigames/merit-engine/internal/clock"
	"github.com/manekigames/merit-engine/internal/rng"
	"github.com/manekigames/merit-engine/internal/session"
	"github.com/manekigames/merit-engine/internal/stats"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Mode selects which reward algorithm a tap runs.
type Mode int

const (
	Free Mode = iota
	Cost
)

func (m Mode) String() string {
	if m == Cost {
		return "cost"
	}
	return "free"
}

// CritTier is the UI-facing severity of a critical hit.
type CritTier int

const (
	CritNone CritTier = iota
	CritCommon
	CritRare
	CritEpic
)

func (ct CritTier) String() string {
	switch ct {
	case CritEpic:
		return "epic"
	case CritRare:
		return "rare"
	case CritCommon:
		return "common"
	default:
		return "none"
	}
}

// Outcome reports one tap.
type Outcome struct {
	Mode Mode `json:"-"`
	// Hit is true when the tap's primary roll rewarded: a crit in cost
	// mode, the flat bonus in free mode.
	Hit    bool     `json:"hit"`
	Tier   CritTier `json:"-"`
	Crit   string   `json:"critTier"`
	Amount int64    `json:"amount"`
	// Accurate is true when the tap landed inside the live target
	// window; TargetExpired when a pending window lapsed before it.
	Accurate      bool    `json:"accurate"`
	TargetExpired bool    `json:"targetExpired"`
	MissStreak    int     `json:"missStreak"`
	HotStreak     float64 `json:"hotStreak"`
	Rate          float64 `json:"rate"`
	Forced        bool    `json:"forced,omitempty"`
	Degraded      bool    `json:"degraded,omitempty"`
}

// BurnRecorder receives the currency burned by cost-mode taps.
type BurnRecorder interface {
	RecordAction(amount int64) stats.Stats
}

// Engine executes taps against the shared session state. Like the draw
// engine it assumes a single cooperative actor; the caller serializes.
type Engine struct {
	cfg   Config
	rng   rng.Source
	clk   clock.Clock
	state *session.State
	store session.Store
	burn  BurnRecorder // optional
	log   *slog.Logger
}

func NewEngine(cfg Config, src rng.Source, clk clock.Clock, state *session.State, store session.Store, burn BurnRecorder, log *slog.Logger) *Engine {
	if src == nil {
		src = rng.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:   cfg.withDefaults(),
		rng:   src,
		clk:   clk,
		state: state,
		store: store,
		burn:  burn,
		log:   log,
	}
}

// Tap executes one tap in the given mode. automated marks taps issued
// by a background context; their rewards are scaled down.
func (e *Engine) Tap(mode Mode, automated bool) (Outcome, error) {
	if mode == Cost {
		return e.costTap(automated)
	}
	return e.freeTap()
}

// Rate returns the crit probability the next cost-mode tap would use,
// capped, alongside the raw uncapped formula value.
func (e *Engine) Rate() (capped, raw float64) {
	raw = e.cfg.BaseRate +
		float64(e.state.MissStreak)*e.cfg.StreakCoeff +
		e.state.HotStreak*e.cfg.ComboCoeff
	if e.state.LastTapDate != clock.DateString(e.clk) {
		raw += e.cfg.FirstTapBonus
	}
	return math.Min(raw, e.cfg.CapRate), raw
}

func (e *Engine) costTap(automated bool) (Outcome, error) {
	// Rejected before any randomness: no state mutation, no pity
	// progress. The bypass flag skips only this check.
	if !e.cfg.Bypass && e.state.SoftBalance < e.cfg.Cost {
		return Outcome{}, ErrInsufficientFunds
	}

	now := e.clk.Now()
	accurate, expired := e.resolveTarget(now)

	rate, raw := e.Rate()
	forced := e.state.MissStreak >= e.cfg.ForcedStreak && raw >= e.cfg.ForcedRate
	crit := forced
	if !crit {
		crit = e.rng.Float64() < rate
	}

	// Burn the tap cost. The debit floors at zero under bypass so the
	// balance is never observed negative.
	spent := e.cfg.Cost
	if spent > e.state.SoftBalance {
		spent = e.state.SoftBalance
	}
	e.state.SoftBalance -= spent
	// First-of-day bonus is consumed by the first crit-eligible tap.
	e.state.LastTapDate = clock.DateString(e.clk)

	out := Outcome{
		Mode:          Cost,
		Accurate:      accurate,
		TargetExpired: expired,
		Rate:          rate,
		Forced:        forced,
	}
	if crit {
		tier, amount := e.resolveMagnitude()
		if automated {
			amount = int64(float64(amount) * e.cfg.AutomatedScale)
		}
		e.state.MissStreak = 0
		e.state.SoftBalance += amount
		out.Hit = true
		out.Tier = tier
		out.Amount = amount
	} else {
		e.state.MissStreak++
		amount := e.rollConsolation()
		e.state.SoftBalance += amount
		out.Tier = CritNone
		out.Amount = amount
	}
	out.Crit = out.Tier.String()

	e.bumpCombo(accurate)
	if out.Amount > 0 {
		e.armTarget(now)
	}
	out.MissStreak = e.state.MissStreak
	out.HotStreak = e.state.HotStreak

	if e.burn != nil && spent > 0 {
		e.burn.RecordAction(spent)
	}
	e.persist(&out)
	return out, nil
}

func (e *Engine) freeTap() (Outcome, error) {
	now := e.clk.Now()
	accurate, expired := e.resolveTarget(now)
	out := Outcome{
		Mode:          Free,
		Tier:          CritNone,
		Crit:          CritNone.String(),
		Accurate:      accurate,
		TargetExpired: expired,
		Rate:          e.cfg.FreeRate,
	}

	hit, err := rng.Chance(e.cfg.FreeRate, e.rng)
	if err != nil {
		return Outcome{}, err
	}
	if hit {
		amount := e.cfg.FreeMin + rng.Int64N(e.cfg.FreeMax-e.cfg.FreeMin+1, e.rng)
		if e.rng.Float64() < e.cfg.FreeDoubleRate {
			amount *= 2
		}
		e.state.SoftBalance += amount
		out.Hit = true
		out.Amount = amount
	}

	if out.Amount > 0 {
		e.armTarget(now)
	}
	out.MissStreak = e.state.MissStreak
	out.HotStreak = e.state.HotStreak

	e.persist(&out)
	return out, nil
}

// resolveTarget classifies this tap against the pending accuracy
// target. No pending target (including the very first tap of a
// session) is neither accurate nor a miss. An expired window is a miss
// event and zeroes the combo before the tap resolves. Expiry is
// evaluated lazily here, which is equivalent to a timer firing between
// actions under the single-actor model.
func (e *Engine) resolveTarget(now time.Time) (accurate, expired bool) {
	deadline := e.state.TargetDeadlineMS
	if deadline == 0 {
		return false, false
	}
	e.state.TargetDeadlineMS = 0
	if now.UnixMilli() <= deadline {
		return true, false
	}
	e.state.HotStreak = 0
	return false, true
}

// armTarget spawns the short-lived interactive target after a rewarded
// tap.
func (e *Engine) armTarget(now time.Time) {
	e.state.TargetDeadlineMS = now.Add(e.cfg.TargetWindow).UnixMilli()
}

// bumpCombo advances the hot-streak score: 1.5 for a tap on a live
// target, 1.0 otherwise. Cost mode only; free taps don't accumulate.
func (e *Engine) bumpCombo(accurate bool) {
	if accurate {
		e.state.HotStreak += 1.5
	} else {
		e.state.HotStreak += 1.0
	}
}

// resolveMagnitude picks the crit payout tier. The gate reads the
// combo score as it stood before this tap's increment.
func (e *Engine) resolveMagnitude() (CritTier, int64) {
	roll := e.rng.Float64()
	combo := e.state.HotStreak
	max := float64(e.cfg.MaxReward) * e.cfg.CostMultiplier
	switch {
	case combo >= e.cfg.EpicGate && roll < e.cfg.EpicRoll:
		return CritEpic, int64(max)
	case combo >= e.cfg.RareGate && roll < e.cfg.RareRoll:
		return CritRare, int64(max * e.cfg.RareShare)
	default:
		return CritCommon, int64(max * e.cfg.CommonShare)
	}
}

// rollConsolation runs the independent secondary lottery for a
// non-crit tap. May credit zero.
func (e *Engine) rollConsolation() int64 {
	roll := e.rng.Float64()
	for _, b := range consolation {
		if roll < b.limit {
			return int64(float64(e.cfg.Cost) * b.mult)
		}
	}
	return 0
}

func (e *Engine) persist(out *Outcome) {
	if err := e.store.Save(e.state); err != nil {
		e.log.Warn("session save failed, continuing in memory", "error", err)
		out.Degraded = true
	}
}
