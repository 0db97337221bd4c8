// Package stats tracks lifetime and per-day burn counters behind a
// durable key-value store.
package stats

// Stats is the persisted burn record. Round-tripping any valid record
// through Save then Load yields field-for-field equality.
type Stats struct {
	TotalBurned    int64  `json:"total_burned"`
	TodayBurned    int64  `json:"today_burned"`
	TotalActions   int64  `json:"total_actions"`
	LastActionUnix int64  `json:"last_action_unix"`
	LastResetDate  string `json:"last_reset_date"`
}

// valid is the structural check applied to loaded payloads. A record
// failing it is treated identically to "nothing stored".
func (s Stats) valid() bool {
	return s.TotalBurned >= 0 &&
		s.TodayBurned >= 0 &&
		s.TotalActions >= 0 &&
		s.LastResetDate != ""
}
