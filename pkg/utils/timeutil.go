package utils

import (
	"time"
)

// KST is the Korea Standard Time location (UTC+9). Daily-quota resets and
// market-hours checks always use this zone, never the process-local one.
var KST *time.Location

func init() {
	var err error
	KST, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		KST = time.FixedZone("KST", 9*60*60)
	}
}

// NowKST returns the current time in KST.
func NowKST() time.Time {
	return time.Now().In(KST)
}

// ToKST converts a time.Time to KST.
func ToKST(t time.Time) time.Time {
	return t.In(KST)
}

// NextMidnightKST returns the next KST midnight strictly after t.
// This is the civil-day boundary used for daily-quota resets.
func NextMidnightKST(t time.Time) time.Time {
	d := t.In(KST)
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, KST)
}

// MarketOpenTime returns the KRX market opening time (09:00 KST) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(KST)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, KST)
}

// MarketCloseTime returns the KRX market closing time (15:30 KST) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(KST)
	return time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, KST)
}

// IsMarketOpen checks if the KRX market is currently open.
func IsMarketOpen() bool {
	return IsMarketOpenAt(NowKST())
}

// IsMarketOpenAt checks if the KRX market would be open at the given time:
// Monday through Friday, 09:00-15:30 KST.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(KST)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	open := MarketOpenTime(t)
	close := MarketCloseTime(t)

	return !t.Before(open) && !t.After(close)
}

// ParseDateKST parses a date string in "2006-01-02" format and returns it in KST.
func ParseDateKST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, KST)
}

// ParseCompactDateKST parses a provider date in "20060102" format in KST.
func ParseCompactDateKST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("20060102", dateStr, KST)
}

// EndOfMonth returns the last civil day of the month containing the given
// year and month. Leap years are respected.
func EndOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, KST)
}
