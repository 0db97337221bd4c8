// Package draw implements the fortune draw: one weighted-random pull
// with a daily free quota, a paid path, bounded history and
// achievement unlocks.
package draw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/manekigames/merit-engine/internal/clock"
	"github.com/manekigames/merit-engine/internal/market"
	"github.com/manekigames/merit-engine/internal/rng"
	"github.com/manekigames/merit-engine/internal/session"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Achievement identifiers, append-only once unlocked.
const (
	AchStreak   = "streak"    // three consecutive common results
	AchHunter   = "hunter"    // any ultra-rare ever drawn
	AchVeteran  = "veteran"   // 50 lifetime draws
	AchNightOwl = "night_owl" // a draw between local 00:00 and 05:00
)

// Outcome is one draw result, newest-first in history.
type Outcome struct {
	ID        string        `json:"id"`
	Rarity    Rarity        `json:"-"`
	Tier      string        `json:"tier"`
	Payout    int64         `json:"payout"`
	Timestamp time.Time     `json:"timestamp"`
	Free      bool          `json:"free"`
	Unlocked  []string      `json:"unlocked,omitempty"`
	Price     *market.Quote `json:"price,omitempty"`
	// Degraded marks a draw that fell back on a collaborator failure
	// (price feed or persistence); the reward itself is unaffected.
	Degraded bool `json:"degraded,omitempty"`
}

// Config carries the draw tunables.
type Config struct {
	FreeQuota  int   // free draws per calendar day
	Cost       int64 // soft-currency cost past the quota
	HistoryCap int
	// Bypass skips the balance check entirely (test/demo contexts).
	Bypass bool
	// FeedTimeout bounds the optional price-flavor fetch.
	FeedTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.FreeQuota == 0 {
		c.FreeQuota = 1
	}
	if c.Cost == 0 {
		c.Cost = 100
	}
	if c.HistoryCap == 0 {
		c.HistoryCap = 50
	}
	if c.FeedTimeout == 0 {
		c.FeedTimeout = 2 * time.Second
	}
	return c
}

// PriceFeed supplies optional market flavor for draw results. Failure
// must never block a draw.
type PriceFeed interface {
	Quote(ctx context.Context) (market.Quote, error)
}

// Engine executes draws against a shared session state. Not safe for
// concurrent use; the caller serializes actions (one cooperative
// actor).
type Engine struct {
	cfg     Config
	rng     rng.Source
	clk     clock.Clock
	state   *session.State
	store   session.Store
	feed    PriceFeed // optional
	log     *slog.Logger
	history []Outcome
}

func NewEngine(cfg Config, src rng.Source, clk clock.Clock, state *session.State, store session.Store, feed PriceFeed, log *slog.Logger) *Engine {
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
		feed:  feed,
		log:   log,
	}
}

// Draw executes one fortune draw. Past the daily free quota it charges
// the configured cost; with insufficient balance it fails before any
// mutation unless the bypass flag is set.
func (e *Engine) Draw(ctx context.Context) (Outcome, error) {
	today := clock.DateString(e.clk)
	if e.state.LastDrawDate != today {
		e.state.FreeDrawsUsedToday = 0
		e.state.LastDrawDate = today
	}

	free := e.state.FreeDrawsUsedToday < e.cfg.FreeQuota
	if !free && !e.cfg.Bypass && e.state.SoftBalance < e.cfg.Cost {
		return Outcome{}, ErrInsufficientFunds
	}

	now := e.clk.Now()
	rarity := pick(e.rng.Float64())
	out := Outcome{
		ID:        newID(now, e.rng),
		Rarity:    rarity,
		Tier:      rarity.String(),
		Payout:    rarity.Payout(),
		Timestamp: now,
		Free:      free,
	}

	if !free {
		// Under bypass the debit floors at zero so the invariant
		// "balance never negative" holds regardless.
		debit := e.cfg.Cost
		if debit > e.state.SoftBalance {
			debit = e.state.SoftBalance
		}
		e.state.SoftBalance -= debit
	}
	e.state.SoftBalance += out.Payout
	e.state.FreeDrawsUsedToday++
	e.state.TotalDrawsLifetime++

	e.prepend(out)
	out.Unlocked = e.evaluateAchievements(out, now)
	e.attachPrice(ctx, &out)

	if err := e.store.Save(e.state); err != nil {
		e.log.Warn("session save failed, continuing in memory", "error", err)
		out.Degraded = true
	}
	return out, nil
}

// History returns a copy of the bounded outcome history, newest first.
func (e *Engine) History() []Outcome {
	return append([]Outcome(nil), e.history...)
}

func (e *Engine) prepend(out Outcome) {
	e.history = append([]Outcome{out}, e.history...)
	if len(e.history) > e.cfg.HistoryCap {
		e.history = e.history[:e.cfg.HistoryCap]
	}
}

func (e *Engine) evaluateAchievements(out Outcome, now time.Time) []string {
	var unlocked []string
	add := func(id string) {
		if e.state.Unlock(id) {
			unlocked = append(unlocked, id)
		}
	}
	if len(e.history) >= 3 &&
		e.history[0].Rarity == Common &&
		e.history[1].Rarity == Common &&
		e.history[2].Rarity == Common {
		add(AchStreak)
	}
	if out.Rarity == UltraRare {
		add(AchHunter)
	}
	if e.state.TotalDrawsLifetime >= 50 {
		add(AchVeteran)
	}
	if h := now.Hour(); h < 5 {
		add(AchNightOwl)
	}
	return unlocked
}

// attachPrice adds market flavor when the feed answers in time. A feed
// failure degrades to the context-free result computed above.
func (e *Engine) attachPrice(ctx context.Context, out *Outcome) {
	if e.feed == nil {
		return
	}
	fctx, cancel := context.WithTimeout(ctx, e.cfg.FeedTimeout)
	defer cancel()
	q, err := e.feed.Quote(fctx)
	if err != nil {
		e.log.Warn("price feed unavailable, serving context-free result", "error", err)
		out.Degraded = true
		return
	}
	if q.Degraded {
		out.Degraded = true
	}
	out.Price = &q
}

func newID(now time.Time, src rng.Source) string {
	return fmt.Sprintf("%d-%04d", now.UnixMilli(), rng.Int64N(10000, src))
}
