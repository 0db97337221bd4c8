// Package session holds the per-installation state record shared by
// the draw and tap engines, persisted as a single JSON file.
package session

// State is the persisted session record. It is created with defaults on
// first run, mutated by every draw and tap, and never deleted.
type State struct {
	// Draw side.
	FreeDrawsUsedToday int      `json:"free_draws_used_today"`
	LastDrawDate       string   `json:"last_draw_date"`
	TotalDrawsLifetime int64    `json:"total_draws_lifetime"`
	Achievements       []string `json:"achievements"`

	// Shared soft-currency balance. Never negative.
	SoftBalance int64 `json:"soft_balance"`

	// Tap/pity side.
	MissStreak int     `json:"miss_streak"`
	HotStreak  float64 `json:"hot_streak"`
	// LastTapDate backs the once-per-calendar-day first-tap bonus.
	LastTapDate string `json:"last_tap_date"`
	// TargetDeadlineMS is the unix-milli deadline of the pending accuracy
	// target; 0 means no target is armed.
	TargetDeadlineMS int64 `json:"target_deadline_ms"`
}

// NewState returns the documented first-run defaults.
func NewState() *State {
	return &State{Achievements: []string{}}
}

// HasAchievement reports whether id is already unlocked.
func (s *State) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Unlock appends id to the achievement set. Idempotent: returns true
// only when id was newly added.
func (s *State) Unlock(id string) bool {
	if s.HasAchievement(id) {
		return false
	}
	s.Achievements = append(s.Achievements, id)
	return true
}

// valid is the structural check applied to loaded payloads; records
// that fail it are treated the same as nothing stored.
func (s *State) valid() bool {
	return s.FreeDrawsUsedToday >= 0 &&
		s.TotalDrawsLifetime >= 0 &&
		s.SoftBalance >= 0 &&
		s.MissStreak >= 0 &&
		s.HotStreak >= 0
}
