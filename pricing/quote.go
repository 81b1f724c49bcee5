package pricing

import (
	"github.com/petguardian/quote-engine/generic"
)

// =============================================================================
// QUOTE - Result of one recalculation
// =============================================================================

// Breakdown holds the raw float figures the money amounts are derived from.
// Nothing in it is rounded.
type Breakdown struct {
	BasePerDay   float64 // product base for one day, before travel and add-ons
	TravelPerDay float64
	PerDayAddOns float64 // may be negative with the pantry credit
	PreCapPerDay float64 // (base + travel + add-ons) * peak
	CappedPerDay float64
	WeightedDays float64
	StayTotal    float64 // CappedPerDay * WeightedDays, or walk charges
	OneTime      float64
	Total        float64 // StayTotal + OneTime
	Undiscounted float64 // CappedPerDay * Days + OneTime
	Discount     float64 // max(0, Undiscounted - Total)
}

// Quote is derived fresh from a tariff and a selection; it is never updated
// in place. Money fields satisfy Total == Base + AddOns + OneTime and
// Deposit + Balance == Total exactly.
type Quote struct {
	Product        Product
	TariffVersion  string
	Period         generic.Period
	Days           int       // calendar days (standard) or plan length (walk)
	Walks          *WalkPlan // walk product only
	PeakApplied    bool
	PeakMultiplier float64
	Pets           PetAllowance
	Note           string

	Base     generic.Money
	AddOns   generic.Money
	OneTime  generic.Money
	Discount generic.Money
	Total    generic.Money
	Deposit  generic.Money
	Balance  generic.Money

	LineItems []LineItem
	Raw       Breakdown
}

// Quantity is the headline count: days for stays, billed walks for walks.
func (q Quote) Quantity() string {
	if q.Walks != nil {
		return q.Walks.BilledLabel()
	}
	return itoa(q.Days)
}

const (
	notePeak     = "Peak dates detected in your booking range (June to July, or Dec to 15 Jan)."
	noteStandard = "No peak dates detected in your booking range."
	noteWalk     = "Walk mode: end date is auto-calculated from your billing option and schedule. Long-stay discounts are disabled."
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Calculate prices a selection against a tariff snapshot. It is a pure
// function: the same inputs always give bit-identical output.
func Calculate(t Tariff, sel BookingSelection) Quote {
	sel = sel.Normalized()

	var q Quote
	if sel.Product == ProductWalk {
		q = calculateWalk(sel)
	} else {
		q = calculateStay(t, sel)
	}
	q.Product = sel.Product
	q.TariffVersion = t.Version()
	q.Deposit, q.Balance = q.Total.Split(t.DepositPercent())
	return q
}

// calculateStay is the day/night/full path.
func calculateStay(t Tariff, sel BookingSelection) Quote {
	days := sel.Period.DayCount()
	peak := sel.Period.HasPeak()
	peakMult := 1.0
	if peak {
		peakMult = t.PeakMultiplier()
	}

	var basePerDay float64
	switch sel.Product {
	case ProductDay:
		basePerDay = float64(sel.Hours) * t.Rate(RateDayHourly)
	case ProductNight:
		basePerDay = t.Rate(RateNight)
	case ProductFull:
		basePerDay = t.Rate(RateFullDay)
	}

	travel := t.Travel(sel.Zone)
	pets := IncludedPetCount(t.IncludedPets(), sel.Dogs, sel.Cats)
	perDayAddOns := perDayAddOnTotal(t, sel, pets)

	preCap := (basePerDay + travel + perDayAddOns) * peakMult
	capped := preCap
	if c := t.MaxDailyCap(); c > 0 {
		capped = min(c, preCap)
	}

	weighted := WeightedDays(t.LongStay(), days)
	stayTotal := capped * weighted
	oneTime := oneTimeTotal(t, sel)

	total := stayTotal + oneTime
	undiscounted := capped*float64(days) + oneTime
	discount := max(0, undiscounted-total)

	// Base and add-ons share the cap reduction in proportion to their size.
	ratio := 1.0
	if preCap > 0 && capped < preCap {
		ratio = capped / preCap
	}
	base := generic.MoneyFromFloat(basePerDay * peakMult * ratio * weighted)
	stay := generic.MoneyFromFloat(stayTotal)
	oneTimeMoney := generic.MoneyFromFloat(oneTime)

	q := Quote{
		Period:         sel.Period,
		Days:           days,
		PeakApplied:    peak,
		PeakMultiplier: peakMult,
		Pets:           pets,
		Note:           noteStandard,
		Base:           base,
		AddOns:         stay.Sub(base),
		OneTime:        oneTimeMoney,
		Discount:       generic.MoneyFromFloat(discount),
		Total:          stay.Add(oneTimeMoney),
		Raw: Breakdown{
			BasePerDay:   basePerDay,
			TravelPerDay: travel,
			PerDayAddOns: perDayAddOns,
			PreCapPerDay: preCap,
			CappedPerDay: capped,
			WeightedDays: weighted,
			StayTotal:    stayTotal,
			OneTime:      oneTime,
			Total:        total,
			Undiscounted: undiscounted,
			Discount:     discount,
		},
	}
	if peak {
		q.Note = notePeak
	}
	q.LineItems = stayLineItems(t, sel, q)
	return q
}

// calculateWalk is the walk path. Peak pricing, the daily cap, long-stay
// weighting and add-ons do not apply.
func calculateWalk(sel BookingSelection) Quote {
	plan := ResolveWalks(sel.Walk)
	perWalk := PerWalkBase(sel.Dogs, sel.Walk.MinutesPerWalk)
	travel := float64(sel.Walk.TravelEstimatePerWalk)

	baseF := perWalk * plan.BilledWalks
	travelF := travel * plan.BilledWalks
	total := baseF + travelF

	base := generic.MoneyFromFloat(baseF)
	addOns := generic.MoneyFromFloat(travelF)

	q := Quote{
		Period:         sel.Period,
		Days:           plan.Days(),
		Walks:          &plan,
		PeakApplied:    false,
		PeakMultiplier: 1,
		Pets:           PetAllowance{IncludedDogs: sel.Dogs},
		Note:           noteWalk,
		Base:           base,
		AddOns:         addOns,
		OneTime:        generic.MoneyFromFloat(0),
		Discount:       generic.MoneyFromFloat(0),
		Total:          base.Add(addOns),
		Raw: Breakdown{
			BasePerDay:   perWalk,
			TravelPerDay: travel,
			StayTotal:    total,
			Total:        total,
			Undiscounted: total,
		},
	}
	q.LineItems = walkLineItems(sel, plan, perWalk, travel)
	return q
}

// perDayAddOnTotal sums every per-day contributor. The pantry credit is the
// only negative one.
func perDayAddOnTotal(t Tariff, sel BookingSelection, pets PetAllowance) float64 {
	sum := t.Rate(sel.Updates.rateKey())
	sum += float64(sel.CheckinsPerDay) * t.Rate(RateCheckinPerDay)
	sum += float64(sel.WalkMinutesPerDay) * t.Rate(RateWalkPerMinute)
	for _, toggle := range perDayToggles {
		if sel.AddOns.Has(toggle.addOn) {
			sum += t.Rate(toggle.rate)
		}
	}
	if sel.AddOns.Has(AddOnPantry) {
		sum -= t.Rate(RatePantryCredit)
	}
	sum += float64(pets.ExtraDogs) * t.Rate(RateExtraDogPerDay)
	sum += float64(pets.ExtraCats) * t.Rate(RateExtraCatPerDay)
	return sum
}

// oneTimeTotal sums the fees charged once per booking.
func oneTimeTotal(t Tariff, sel BookingSelection) float64 {
	var sum float64
	if sel.AddOns.Has(AddOnMeet) {
		sum += t.Rate(RateMeetOneTime)
	}
	sum += float64(sel.KeyTrips) * t.Rate(RateKeyTrip)
	sum += float64(sel.TaxiTrips) * t.Rate(RateTaxiTrip)
	sum += float64(sel.TaxiKm) * t.Rate(RateTaxiPerKm)
	for _, toggle := range oneTimeToggles {
		if toggle.addOn != AddOnMeet && sel.AddOns.Has(toggle.addOn) {
			sum += t.Rate(toggle.rate)
		}
	}
	return sum
}
