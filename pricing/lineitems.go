package pricing

import (
	"math"
	"strconv"

	"github.com/petguardian/quote-engine/generic"
)

// =============================================================================
// LINE ITEMS - Itemized breakdown for display
// =============================================================================

// LineCategory groups line items for display.
type LineCategory string

const (
	LinePerDay   LineCategory = "per_day"
	LineOneTime  LineCategory = "one_time"
	LineDiscount LineCategory = "discount"
	LineWalk     LineCategory = "walk"
)

// LineItem is one row of the quote breakdown. Amount is signed.
type LineItem struct {
	Title    string
	Detail   string
	Category LineCategory
	Amount   generic.Money
}

// negligible is the magnitude below which a line is not shown.
const negligible = 0.0001

type lineBuilder struct {
	items []LineItem
}

func (b *lineBuilder) add(cat LineCategory, title, detail string, amount float64) {
	if math.Abs(amount) < negligible {
		return
	}
	b.items = append(b.items, LineItem{
		Title:    title,
		Detail:   detail,
		Category: cat,
		Amount:   generic.MoneyFromFloat(amount),
	})
}

// stayLineItems lists the stay contributions in fixed order: travel, extra
// pets, updates, check-ins, walk minutes, per-day toggles, pantry credit,
// one-time fees, then the long-stay discount. Per-day lines show the gross
// daily figure over the raw day count with peak applied.
func stayLineItems(t Tariff, sel BookingSelection, q Quote) []LineItem {
	var b lineBuilder
	days := float64(q.Days)
	peak := q.PeakMultiplier
	span := " x " + itoa(q.Days) + " day(s)"
	if peak != 1 {
		span += " x peak"
	}

	travel := q.Raw.TravelPerDay
	b.add(LinePerDay, "Travel fee (zone)", money(travel)+span, travel*days*peak)

	if q.Pets.ExtraDogs > 0 {
		unit := t.Rate(RateExtraDogPerDay)
		b.add(LinePerDay, "Additional dogs",
			money(unit)+"/day x "+itoa(q.Pets.ExtraDogs)+" dog(s)"+span,
			float64(q.Pets.ExtraDogs)*unit*days*peak)
	}
	if q.Pets.ExtraCats > 0 {
		unit := t.Rate(RateExtraCatPerDay)
		b.add(LinePerDay, "Additional cats",
			money(unit)+"/day x "+itoa(q.Pets.ExtraCats)+" cat(s)"+span,
			float64(q.Pets.ExtraCats)*unit*days*peak)
	}

	upd := t.Rate(sel.Updates.rateKey())
	b.add(LinePerDay, updatesTitle(sel.Updates), money(upd)+"/day"+span, upd*days*peak)

	if sel.CheckinsPerDay > 0 {
		unit := t.Rate(RateCheckinPerDay)
		b.add(LinePerDay, "Extra check-ins",
			money(unit)+"/day x "+itoa(sel.CheckinsPerDay)+" per day"+span,
			unit*float64(sel.CheckinsPerDay)*days*peak)
	}
	if sel.WalkMinutesPerDay > 0 {
		unit := t.Rate(RateWalkPerMinute)
		b.add(LinePerDay, "Walk time",
			money(unit)+"/min x "+itoa(sel.WalkMinutesPerDay)+" min/day"+span,
			unit*float64(sel.WalkMinutesPerDay)*days*peak)
	}

	for _, toggle := range perDayToggles {
		if !sel.AddOns.Has(toggle.addOn) {
			continue
		}
		unit := t.Rate(toggle.rate)
		b.add(LinePerDay, toggle.title, money(unit)+"/day"+span, unit*days*peak)
	}

	if sel.AddOns.Has(AddOnPantry) {
		unit := t.Rate(RatePantryCredit)
		b.add(LinePerDay, "Pantry use credit", "-"+money(unit)+"/day"+span, -unit*days*peak)
	}

	if sel.AddOns.Has(AddOnMeet) {
		unit := t.Rate(RateMeetOneTime)
		b.add(LineOneTime, "Meet and greet", money(unit)+" one-time", unit)
	}
	if sel.KeyTrips > 0 {
		unit := t.Rate(RateKeyTrip)
		b.add(LineOneTime, "Key pickup/drop-off",
			money(unit)+" x "+itoa(sel.KeyTrips)+" trip(s)", unit*float64(sel.KeyTrips))
	}
	if sel.TaxiTrips > 0 {
		unit := t.Rate(RateTaxiTrip)
		b.add(LineOneTime, "Pet taxi (base)",
			money(unit)+" x "+itoa(sel.TaxiTrips)+" trip(s)", unit*float64(sel.TaxiTrips))
	}
	if sel.TaxiKm > 0 {
		unit := t.Rate(RateTaxiPerKm)
		b.add(LineOneTime, "Pet taxi (distance)",
			money(unit)+"/km x "+itoa(sel.TaxiKm)+" km", unit*float64(sel.TaxiKm))
	}
	for _, toggle := range oneTimeToggles {
		if toggle.addOn == AddOnMeet || !sel.AddOns.Has(toggle.addOn) {
			continue
		}
		unit := t.Rate(toggle.rate)
		b.add(LineOneTime, toggle.title, money(unit)+" one-time", unit)
	}

	if q.Raw.Discount > 0 {
		b.add(LineDiscount, "Long-stay discount", "Auto applied by day blocks", -q.Raw.Discount)
	}
	return b.items
}

// walkLineItems always yields exactly the walk base and the travel estimate.
func walkLineItems(sel BookingSelection, plan WalkPlan, perWalk, travel float64) []LineItem {
	label := itoa(plan.TotalWalks) + " walk(s)"
	if plan.Billing == BillingMonthly {
		label = "Billed walks (4.3 weeks): " + plan.BilledLabel()
	}
	return []LineItem{
		{
			Title:    "Dog walks base",
			Detail:   itoa(sel.Dogs) + " dog(s) x " + itoa(sel.Walk.MinutesPerWalk) + " min x " + label,
			Category: LineWalk,
			Amount:   generic.MoneyFromFloat(perWalk * plan.BilledWalks),
		},
		{
			Title:    "Estimated travel (R0-R50 per walk)",
			Detail:   money(travel) + " per walk x " + label,
			Category: LineWalk,
			Amount:   generic.MoneyFromFloat(travel * plan.BilledWalks),
		},
	}
}

func updatesTitle(u UpdatesTier) string {
	switch u {
	case UpdatesPhotos:
		return "Updates: 2 photos per day"
	case UpdatesLogbook:
		return "Updates: full logbook"
	default:
		return "Updates: daily message"
	}
}

func money(f float64) string { return generic.FormatFloat(f) }

func itoa(n int) string { return strconv.Itoa(n) }
