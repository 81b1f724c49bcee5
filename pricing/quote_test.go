package pricing_test

import (
	"testing"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func period(start, end string) generic.Period {
	return generic.Period{Start: generic.MustParseDate(start), End: generic.MustParseDate(end)}
}

func daySelection(start, end string) pricing.BookingSelection {
	return pricing.BookingSelection{
		Product: pricing.ProductDay,
		Period:  period(start, end),
		Hours:   4,
		Zone:    pricing.ZoneWhiteRiver,
		Dogs:    1,
		Updates: pricing.UpdatesBasic,
	}
}

func walkSelection(billing pricing.BillingCycle, start string) pricing.BookingSelection {
	return pricing.BookingSelection{
		Product: pricing.ProductWalk,
		Dogs:    2,
		Walk: pricing.WalkSchedule{
			Start:                 generic.MustParseDate(start),
			Weekdays:              []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			WalksPerDay:           1,
			MinutesPerWalk:        30,
			TravelEstimatePerWalk: 25,
			Billing:               billing,
			Weeks:                 3,
		},
	}
}

func overridden(t *testing.T, payload map[string]any) pricing.Tariff {
	t.Helper()
	tariff, report := pricing.DefaultTariff().WithOverrides(payload, pricing.SourceManual)
	require.Empty(t, report.Ignored)
	return tariff
}

func assertConsistent(t *testing.T, q pricing.Quote) {
	t.Helper()
	assert.True(t, q.Deposit.Add(q.Balance).Equal(q.Total), "deposit + balance == total")
	assert.True(t, q.Base.Add(q.AddOns).Add(q.OneTime).Equal(q.Total), "base + add-ons + one-time == total")
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestCalculate_DayVisit_SingleDay(t *testing.T) {
	// GIVEN: 4 hours at R60/h, White River travel R30, one included dog
	// WHEN: Pricing a single day outside peak season
	// THEN: R270 total, split evenly into deposit and balance

	q := pricing.Calculate(pricing.DefaultTariff(), daySelection("2025-03-10", "2025-03-10"))

	assert.Equal(t, 1, q.Days)
	assert.False(t, q.PeakApplied)
	assert.Equal(t, 240.0, q.Raw.BasePerDay)
	assert.Equal(t, 270.0, q.Raw.StayTotal)
	assert.Equal(t, 270.0, q.Total.Float64())
	assert.Equal(t, 135.0, q.Deposit.Float64())
	assert.Equal(t, 135.0, q.Balance.Float64())
	assert.True(t, q.Discount.IsZero())
	assertConsistent(t, q)
}

func TestCalculate_DayVisit_TwelveDays_LongStayDiscount(t *testing.T) {
	// GIVEN: The same day visit over 12 days with no peak dates
	// WHEN: Pricing
	// THEN: Days 11-12 weigh 0.9, total 270 * 11.8, discount 54

	q := pricing.Calculate(pricing.DefaultTariff(), daySelection("2025-03-01", "2025-03-12"))

	assert.Equal(t, 12, q.Days)
	assert.InDelta(t, 11.8, q.Raw.WeightedDays, 1e-9)
	assert.InDelta(t, 3186.0, q.Raw.Total, 1e-9)
	assert.InDelta(t, 54.0, q.Raw.Discount, 1e-9)
	assert.Equal(t, "R3,186", generic.FormatMoney(q.Total))
	assertConsistent(t, q)

	last := q.LineItems[len(q.LineItems)-1]
	assert.Equal(t, "Long-stay discount", last.Title)
	assert.Equal(t, pricing.LineDiscount, last.Category)
	assert.True(t, last.Amount.IsNegative())
}

func TestCalculate_Walk_MonthlySubscription(t *testing.T) {
	// GIVEN: 3 weekdays, one 30 minute walk for 2 dogs, R25 travel estimate
	// WHEN: Billed as a monthly subscription
	// THEN: 12.9 billed walks at R85 each

	q := pricing.Calculate(pricing.DefaultTariff(), walkSelection(pricing.BillingMonthly, "2025-03-03"))

	require.NotNil(t, q.Walks)
	assert.Equal(t, 3, q.Walks.WeeklyWalks)
	assert.Equal(t, 12.9, q.Walks.BilledWalks)
	assert.Equal(t, 60.0, q.Raw.BasePerDay)
	assert.InDelta(t, 1096.5, q.Total.Float64(), 1e-9)
	assert.Equal(t, "R1,097", generic.FormatMoney(q.Total))
	assert.True(t, q.Discount.IsZero())
	assertConsistent(t, q)
}

func TestCalculate_DailyCap_BindsRegardlessOfPeak(t *testing.T) {
	// GIVEN: A full day priced at R800 before the R600 cap
	// WHEN: Pricing once outside and once inside peak season
	// THEN: Both are capped at R600 per day

	tariff := overridden(t, map[string]any{"BASE_FULLDAY": 740})
	sel := pricing.BookingSelection{
		Product: pricing.ProductFull,
		Period:  period("2025-03-10", "2025-03-10"),
		Zone:    pricing.ZoneNelspruit,
		Dogs:    1,
	}

	offPeak := pricing.Calculate(tariff, sel)
	assert.Equal(t, 800.0, offPeak.Raw.PreCapPerDay)
	assert.Equal(t, 600.0, offPeak.Raw.CappedPerDay)

	sel.Period = period("2025-06-10", "2025-06-10")
	peak := pricing.Calculate(tariff, sel)
	assert.True(t, peak.PeakApplied)
	assert.InDelta(t, 920.0, peak.Raw.PreCapPerDay, 1e-9)
	assert.Equal(t, 600.0, peak.Raw.CappedPerDay)
	assert.Equal(t, 600.0, peak.Total.Float64())
	assertConsistent(t, peak)
}

func TestCalculate_CapSplitsBaseAndAddOnsProportionally(t *testing.T) {
	tariff := overridden(t, map[string]any{"BASE_FULLDAY": 740})
	sel := pricing.BookingSelection{
		Product: pricing.ProductFull,
		Period:  period("2025-03-10", "2025-03-10"),
		Zone:    pricing.ZoneNelspruit,
		Dogs:    1,
	}

	q := pricing.Calculate(tariff, sel)

	// 740 of 800 is base, so 555 of the capped 600
	assert.InDelta(t, 555.0, q.Base.Float64(), 1e-9)
	assert.InDelta(t, 45.0, q.AddOns.Float64(), 1e-9)
	assertConsistent(t, q)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestCalculate_StandardPath_TotalIdentities(t *testing.T) {
	tariff := pricing.DefaultTariff()
	products := []pricing.Product{pricing.ProductDay, pricing.ProductNight, pricing.ProductFull}
	ends := []string{"2025-03-01", "2025-03-09", "2025-03-20", "2025-04-30", "2025-07-04"}

	for _, product := range products {
		for _, end := range ends {
			sel := pricing.BookingSelection{
				Product:        product,
				Period:         period("2025-03-01", end),
				Hours:          6,
				Zone:           pricing.ZoneNelspruit,
				Dogs:           2,
				Cats:           1,
				Updates:        pricing.UpdatesLogbook,
				CheckinsPerDay: 1,
				AddOns:         pricing.NewAddOnSet(pricing.AddOnMeds, pricing.AddOnPantry, pricing.AddOnBath),
				KeyTrips:       2,
				TaxiTrips:      1,
				TaxiKm:         12,
			}
			q := pricing.Calculate(tariff, sel)

			assert.Equal(t, q.Raw.StayTotal+q.Raw.OneTime, q.Raw.Total, "%s to %s", product, end)
			assert.Equal(t, max(0, q.Raw.CappedPerDay*float64(q.Days)+q.Raw.OneTime-q.Raw.Total), q.Raw.Discount)
			assertConsistent(t, q)
		}
	}
}

func TestCalculate_WalkPath_NoDiscountNoPeak(t *testing.T) {
	tariff := pricing.DefaultTariff()
	cycles := []pricing.BillingCycle{pricing.BillingOnceOff, pricing.BillingWeekly, pricing.BillingMonthly}

	for _, cycle := range cycles {
		offPeak := pricing.Calculate(tariff, walkSelection(cycle, "2025-03-03"))
		inPeak := pricing.Calculate(tariff, walkSelection(cycle, "2025-06-02"))

		assert.True(t, offPeak.Discount.IsZero(), cycle)
		assert.True(t, inPeak.Discount.IsZero(), cycle)
		assert.False(t, inPeak.PeakApplied, cycle)
		assert.True(t, offPeak.Total.Equal(inPeak.Total), cycle)
		assert.Len(t, inPeak.LineItems, 2, cycle)
		assertConsistent(t, inPeak)
	}
}

func TestCalculate_IsIdempotent(t *testing.T) {
	tariff := pricing.DefaultTariff()
	sels := []pricing.BookingSelection{
		daySelection("2025-12-20", "2026-01-20"),
		walkSelection(pricing.BillingWeekly, "2025-03-03"),
	}
	for _, sel := range sels {
		assert.Equal(t, pricing.Calculate(tariff, sel), pricing.Calculate(tariff, sel))
	}
}

func TestCalculate_DepositPercentFromTariff(t *testing.T) {
	tariff := overridden(t, map[string]any{"DEPOSIT_PERCENT": 0.3})

	q := pricing.Calculate(tariff, daySelection("2025-03-10", "2025-03-10"))

	assert.InDelta(t, 81.0, q.Deposit.Float64(), 1e-9)
	assert.InDelta(t, 189.0, q.Balance.Float64(), 1e-9)
	assertConsistent(t, q)
}

func TestCalculate_MissingDates_CountOneDay(t *testing.T) {
	sel := daySelection("2025-03-10", "2025-03-10")
	sel.Period = generic.Period{}

	q := pricing.Calculate(pricing.DefaultTariff(), sel)

	assert.Equal(t, 1, q.Days)
	assert.Equal(t, 270.0, q.Total.Float64())
}

func TestCalculate_ExtraPetsAndPeakNote(t *testing.T) {
	sel := daySelection("2025-07-01", "2025-07-02")
	sel.Dogs = 2
	sel.Cats = 1

	q := pricing.Calculate(pricing.DefaultTariff(), sel)

	assert.True(t, q.PeakApplied)
	assert.Equal(t, 1.15, q.PeakMultiplier)
	assert.Contains(t, q.Note, "Peak dates detected")
	assert.Equal(t, pricing.PetAllowance{IncludedDogs: 1, ExtraDogs: 1, ExtraCats: 1}, q.Pets)
	// (240 + 30 + 20 + 10) * 1.15
	assert.InDelta(t, 345.0, q.Raw.CappedPerDay, 1e-9)
}

// =============================================================================
// LINE ITEMS
// =============================================================================

func TestLineItems_OrderAndSuppression(t *testing.T) {
	// GIVEN: A stay with extras from every category
	// WHEN: Pricing
	// THEN: Items follow the fixed category order; zero-rate items are dropped

	sel := pricing.BookingSelection{
		Product:           pricing.ProductNight,
		Period:            period("2025-03-01", "2025-03-03"),
		Zone:              pricing.ZoneWhiteRiver,
		Dogs:              2,
		Updates:           pricing.UpdatesPhotos,
		CheckinsPerDay:    2,
		WalkMinutesPerDay: 30,
		AddOns: pricing.NewAddOnSet(
			pricing.AddOnPool, pricing.AddOnMeds, pricing.AddOnPantry,
			pricing.AddOnMeet, pricing.AddOnClean,
		),
		KeyTrips: 1,
		TaxiKm:   10,
	}

	q := pricing.Calculate(pricing.DefaultTariff(), sel)

	var titles []string
	for _, li := range q.LineItems {
		titles = append(titles, li.Title)
	}
	// Meet and greet costs R0 by default and is suppressed.
	assert.Equal(t, []string{
		"Travel fee (zone)",
		"Additional dogs",
		"Updates: 2 photos per day",
		"Extra check-ins",
		"Walk time",
		"Oral meds",
		"Pool check",
		"Pantry use credit",
		"Key pickup/drop-off",
		"Pet taxi (distance)",
		"Light clean and linen",
	}, titles)

	assert.Equal(t, "R30 x 3 day(s)", q.LineItems[0].Detail)
	assert.Equal(t, "R20/day x 1 dog(s) x 3 day(s)", q.LineItems[1].Detail)
	assert.Equal(t, "R50/day x 2 per day x 3 day(s)", q.LineItems[3].Detail)
	assert.Equal(t, "R1/min x 30 min/day x 3 day(s)", q.LineItems[4].Detail)

	pantry := q.LineItems[7]
	assert.Equal(t, "-R50/day x 3 day(s)", pantry.Detail)
	assert.Equal(t, -150.0, pantry.Amount.Float64())

	assert.Equal(t, "R5/km x 10 km", q.LineItems[9].Detail)
	assert.Equal(t, "R150 one-time", q.LineItems[10].Detail)
}

func TestLineItems_PeakDetail(t *testing.T) {
	q := pricing.Calculate(pricing.DefaultTariff(), daySelection("2025-12-24", "2025-12-25"))

	require.NotEmpty(t, q.LineItems)
	assert.Equal(t, "R30 x 2 day(s) x peak", q.LineItems[0].Detail)
	assert.InDelta(t, 69.0, q.LineItems[0].Amount.Float64(), 1e-9)
}

func TestLineItems_Walk(t *testing.T) {
	monthly := pricing.Calculate(pricing.DefaultTariff(), walkSelection(pricing.BillingMonthly, "2025-03-03"))
	require.Len(t, monthly.LineItems, 2)
	assert.Equal(t, "Dog walks base", monthly.LineItems[0].Title)
	assert.Equal(t, "2 dog(s) x 30 min x Billed walks (4.3 weeks): 12.9", monthly.LineItems[0].Detail)
	assert.Equal(t, "Estimated travel (R0-R50 per walk)", monthly.LineItems[1].Title)

	weekly := pricing.Calculate(pricing.DefaultTariff(), walkSelection(pricing.BillingWeekly, "2025-03-03"))
	require.Len(t, weekly.LineItems, 2)
	assert.Equal(t, "R25 per walk x 9 walk(s)", weekly.LineItems[1].Detail)
	assert.Equal(t, 225.0, weekly.LineItems[1].Amount.Float64())
}
