package models

// Session identifies one of the four Eastern-time trading sessions.
type Session string

const (
	SessionOvernight  Session = "overnight"  // 18:00 - 08:00 ET, wraps midnight
	SessionPremarket  Session = "premarket"  // 08:00 - 09:30 ET
	SessionRTH        Session = "rth"        // 09:30 - 16:00 ET
	SessionAfterhours Session = "afterhours" // 16:00 - 18:00 ET
)

// SessionInfo is derived per observation, never stored.
type SessionInfo struct {
	Session       Session
	ESTHour       int
	ESTMinute     int
	TimeInMinutes int // Eastern minutes since midnight
	IsDST         bool
	MarketClosed  bool // weekend window: Fri 17:00 ET through Sun 18:00 ET
}
