package market

import (
	"time"

	"SweepSim/internal/domain/models"
)

// Session boundaries in Eastern-time minutes since midnight. CME equity
// futures trade Sun 18:00 ET through Fri 17:00 ET with a daily 17:00-18:00
// maintenance break folded into the overnight session.
const (
	overnightStartMin = 18 * 60
	premarketStartMin = 8 * 60
	rthStartMin       = 9*60 + 30
	rthEndMin         = 16 * 60
	afterhoursEndMin  = 18 * 60
	fridayCloseMin    = 17 * 60
)

// nthSundayUTC returns the n-th Sunday of the given month at the given UTC
// hour. US DST transitions are pinned to these instants.
func nthSundayUTC(year int, month time.Month, n, hour int) time.Time {
	first := time.Date(year, month, 1, hour, 0, 0, 0, time.UTC)
	offset := (7 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// isEasternDST reports whether US/Eastern observes daylight time at the given
// UTC instant: from the second Sunday of March 07:00 UTC (02:00 EST) up to,
// but excluding, the first Sunday of November 06:00 UTC (02:00 EDT).
func isEasternDST(ts time.Time) bool {
	ts = ts.UTC()
	start := nthSundayUTC(ts.Year(), time.March, 2, 7)
	end := nthSundayUTC(ts.Year(), time.November, 1, 6)
	return !ts.Before(start) && ts.Before(end)
}

// easternOffset returns the UTC offset of US/Eastern at the given instant.
func easternOffset(ts time.Time) (time.Duration, bool) {
	if isEasternDST(ts) {
		return -4 * time.Hour, true
	}
	return -5 * time.Hour, false
}

// Classify maps a UTC timestamp onto the trading-session structure. The
// classification is pure arithmetic; no tz database lookup is involved, so it
// behaves identically on every host.
func Classify(ts time.Time) models.SessionInfo {
	offset, dst := easternOffset(ts)
	et := ts.UTC().Add(offset)
	mins := et.Hour()*60 + et.Minute()

	info := models.SessionInfo{
		ESTHour:       et.Hour(),
		ESTMinute:     et.Minute(),
		TimeInMinutes: mins,
		IsDST:         dst,
	}

	switch wd := et.Weekday(); {
	case wd == time.Saturday:
		info.MarketClosed = true
	case wd == time.Friday && mins >= fridayCloseMin:
		info.MarketClosed = true
	case wd == time.Sunday && mins < overnightStartMin:
		info.MarketClosed = true
	}
	if info.MarketClosed {
		info.Session = models.SessionOvernight
		return info
	}

	switch {
	case mins >= overnightStartMin || mins < premarketStartMin:
		info.Session = models.SessionOvernight
	case mins < rthStartMin:
		info.Session = models.SessionPremarket
	case mins < rthEndMin:
		info.Session = models.SessionRTH
	default:
		info.Session = models.SessionAfterhours
	}
	return info
}

// TradingDate returns the Eastern calendar date a timestamp's trading
// activity belongs to. Overnight candles after 18:00 ET roll forward onto the
// next day's session.
func TradingDate(ts time.Time) time.Time {
	offset, _ := easternOffset(ts)
	et := ts.UTC().Add(offset)
	if et.Hour() >= 18 {
		et = et.AddDate(0, 0, 1)
	}
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, time.UTC)
}
