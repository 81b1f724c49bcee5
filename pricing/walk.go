package pricing

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// WALK SCHEDULE - Recurring dog-walk product
// =============================================================================

// BillingCycle decides how many walks a walk booking is billed for.
type BillingCycle string

const (
	BillingOnceOff BillingCycle = "once_off"
	BillingWeekly  BillingCycle = "weekly_recurring"
	BillingMonthly BillingCycle = "monthly_subscription"
)

// ParseBillingCycle maps unknown values to BillingOnceOff.
func ParseBillingCycle(s string) BillingCycle {
	switch b := BillingCycle(strings.ToLower(strings.TrimSpace(s))); b {
	case BillingWeekly, BillingMonthly:
		return b
	default:
		return BillingOnceOff
	}
}

// WeeksPerMonth approximates a month for subscription billing. It is applied
// in decimal so that e.g. 3 weekly walks bill as exactly 12.9.
var WeeksPerMonth = decimal.RequireFromString("4.3")

// walkRatePerDogMinute is the fixed walk base price per dog per minute.
const walkRatePerDogMinute = 1.0

const (
	minWalksPerDay        = 1
	maxWalksPerDay        = 8
	minMinutesPerWalk     = 5
	maxMinutesPerWalk     = 120
	maxTravelEstimate     = 50
	minWeeks              = 1
	maxWeeks              = 12
	defaultMinutesPerWalk = 30
	defaultTravelEstimate = 25
)

var defaultWalkDays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

// WalkSchedule is what the customer picks for the walk product.
type WalkSchedule struct {
	Start                 generic.TimePoint
	Weekdays              []time.Weekday
	WalksPerDay           int
	MinutesPerWalk        int
	TravelEstimatePerWalk int
	Billing               BillingCycle
	Weeks                 int // only meaningful for BillingWeekly
}

// Normalized clamps every field and deduplicates the weekdays.
func (w WalkSchedule) Normalized() WalkSchedule {
	out := w
	out.WalksPerDay = clamp(w.WalksPerDay, minWalksPerDay, maxWalksPerDay)
	out.MinutesPerWalk = clamp(w.MinutesPerWalk, minMinutesPerWalk, maxMinutesPerWalk)
	out.TravelEstimatePerWalk = clamp(w.TravelEstimatePerWalk, 0, maxTravelEstimate)
	out.Billing = ParseBillingCycle(string(w.Billing))
	out.Weeks = clamp(w.Weeks, minWeeks, maxWeeks)

	seen := make(map[time.Weekday]bool, 7)
	out.Weekdays = nil
	for _, wd := range w.Weekdays {
		if wd < time.Sunday || wd > time.Saturday || seen[wd] {
			continue
		}
		seen[wd] = true
		out.Weekdays = append(out.Weekdays, wd)
	}
	sort.Slice(out.Weekdays, func(i, j int) bool { return out.Weekdays[i] < out.Weekdays[j] })
	return out
}

// WalkPlan is the resolved billing quantity of a walk schedule.
type WalkPlan struct {
	Billing     BillingCycle
	WeeklyWalks int
	Weeks       int
	TotalWalks  int     // scheduled walks over Weeks
	BilledWalks float64 // walks actually charged
	End         generic.TimePoint
}

// ResolveWalks computes the billable walks for a schedule. The schedule is
// expected to be normalized.
//
//	once_off:             one week, billed = weekly walks
//	weekly_recurring:     Weeks weeks, billed = weekly walks * Weeks
//	monthly_subscription: billed = weekly walks * 4.3, whatever Weeks says
//
// The end date is always derived: start + weeks*7 - 1.
func ResolveWalks(w WalkSchedule) WalkPlan {
	weeks := 1
	if w.Billing == BillingWeekly {
		weeks = w.Weeks
	}
	weekly := len(w.Weekdays) * w.WalksPerDay
	total := weekly * weeks

	billed := float64(total)
	if w.Billing == BillingMonthly {
		billed = decimal.NewFromInt(int64(weekly)).Mul(WeeksPerMonth).InexactFloat64()
	}

	var end generic.TimePoint
	if !w.Start.IsZero() {
		end = w.Start.AddDays(weeks*7 - 1)
	}

	return WalkPlan{
		Billing:     w.Billing,
		WeeklyWalks: weekly,
		Weeks:       weeks,
		TotalWalks:  total,
		BilledWalks: billed,
		End:         end,
	}
}

// Days is the calendar length of the plan.
func (p WalkPlan) Days() int {
	return max(1, p.Weeks*7)
}

// BilledLabel renders the billed quantity: one decimal for subscriptions,
// a whole number otherwise.
func (p WalkPlan) BilledLabel() string {
	if p.Billing == BillingMonthly {
		return strconv.FormatFloat(p.BilledWalks, 'f', 1, 64)
	}
	return strconv.Itoa(p.TotalWalks)
}

// PerWalkBase is the walk base price for one walk.
func PerWalkBase(dogs, minutesPerWalk int) float64 {
	return float64(dogs) * float64(minutesPerWalk) * walkRatePerDogMinute
}
