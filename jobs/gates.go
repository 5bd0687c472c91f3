package jobs

import (
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/models"
)

// RunGate decides, before fetching, whether a run should happen at now
type RunGate func(now time.Time) bool

// PostGate decides, after fetching, whether the snapshot is worth posting
type PostGate func(snapshot *models.MarketSnapshot) bool

// AlwaysRun is the default RunGate
func AlwaysRun(time.Time) bool { return true }

// AlwaysPost is the default PostGate
func AlwaysPost(*models.MarketSnapshot) bool { return true }

// Regular NSE/BSE session, local time
const (
	marketOpenMinute  = 9*60 + 15
	marketCloseMinute = 15*60 + 30
)

// MarketHours allows runs Monday to Friday between 09:15 and 15:30 in loc, both ends inclusive
func MarketHours(loc *time.Location) RunGate {
	if loc == nil {
		loc = time.UTC
	}
	return func(now time.Time) bool {
		local := now.In(loc)
		if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
			return false
		}
		minute := local.Hour()*60 + local.Minute()
		return minute >= marketOpenMinute && minute <= marketCloseMinute
	}
}

// MarketOpen allows posting only when the data source reports the market open
func MarketOpen(snapshot *models.MarketSnapshot) bool {
	return snapshot != nil && snapshot.IsMarketOpen
}
