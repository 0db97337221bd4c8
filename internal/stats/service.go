package stats

import (
	"encoding/json"
	"log/slog"

	"github.com/manekigames/merit-engine/internal/clock"
)

// Service applies the daily-reset and accumulation rules on top of a
// Store. Storage failures never propagate: reads fall back to defaults
// and write failures are logged and swallowed, so the caller always
// proceeds with the attempted state.
type Service struct {
	store Store
	clk   clock.Clock
	log   *slog.Logger
}

func NewService(store Store, clk clock.Clock, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, clk: clk, log: log}
}

// Defaults is the documented record used when nothing is stored or the
// stored payload fails structural validation.
func (s *Service) Defaults() Stats {
	return Stats{LastResetDate: clock.DateString(s.clk)}
}

// Load returns the last saved record, or Defaults. Corrupt payloads are
// treated identically to "nothing stored".
func (s *Service) Load() Stats {
	b, err := s.store.Get()
	if err != nil {
		if err != ErrNotStored {
			s.log.Warn("stats read failed, using defaults", "error", err)
		}
		return s.Defaults()
	}
	var st Stats
	if err := json.Unmarshal(b, &st); err != nil || !st.valid() {
		s.log.Warn("stored stats payload malformed, using defaults")
		return s.Defaults()
	}
	return st
}

// Save persists the record. Failure is swallowed.
func (s *Service) Save(st Stats) {
	b, err := json.Marshal(st)
	if err != nil {
		s.log.Warn("stats marshal failed", "error", err)
		return
	}
	if err := s.store.Put(b); err != nil {
		s.log.Warn("stats write failed, proceeding in memory", "error", err)
	}
}

// CheckDailyReset zeroes TodayBurned when the calendar date has rolled
// over since LastResetDate. Idempotent within a day: applying it twice
// on the same day equals applying it once.
func (s *Service) CheckDailyReset(st Stats) Stats {
	today := clock.DateString(s.clk)
	if st.LastResetDate == today {
		return st
	}
	st.TodayBurned = 0
	st.LastResetDate = today
	return st
}

// RecordAction loads the current record, applies the daily reset, adds
// amount to the burn counters and persists the result.
func (s *Service) RecordAction(amount int64) Stats {
	st := s.CheckDailyReset(s.Load())
	st.TotalBurned += amount
	st.TodayBurned += amount
	st.TotalActions++
	st.LastActionUnix = s.clk.Now().Unix()
	s.Save(st)
	return st
}
