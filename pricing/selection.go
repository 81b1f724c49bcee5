package pricing

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/petguardian/quote-engine/generic"
)

// =============================================================================
// ENUMS
// =============================================================================

// Product is the service being booked.
type Product string

const (
	ProductDay   Product = "day"   // hourly day visit
	ProductNight Product = "night" // overnight stay
	ProductFull  Product = "full"  // full day and night
	ProductWalk  Product = "walk"  // recurring dog walks
)

// ParseProduct maps unknown values to ProductDay.
func ParseProduct(s string) Product {
	switch p := Product(strings.ToLower(strings.TrimSpace(s))); p {
	case ProductDay, ProductNight, ProductFull, ProductWalk:
		return p
	default:
		return ProductDay
	}
}

// Zone is a travel zone.
type Zone string

const (
	ZoneSabie      Zone = "sabie"
	ZoneWhiteRiver Zone = "wr"
	ZoneNelspruit  Zone = "nel"
)

var zoneRates = map[Zone]RateKey{
	ZoneSabie:      RateTravelSabie,
	ZoneWhiteRiver: RateTravelWR,
	ZoneNelspruit:  RateTravelNel,
}

// UpdatesTier selects how the owner is kept informed.
type UpdatesTier string

const (
	UpdatesBasic   UpdatesTier = "basic"
	UpdatesPhotos  UpdatesTier = "photos"
	UpdatesLogbook UpdatesTier = "logbook"
)

// ParseUpdatesTier maps unknown values to UpdatesBasic.
func ParseUpdatesTier(s string) UpdatesTier {
	switch u := UpdatesTier(strings.ToLower(strings.TrimSpace(s))); u {
	case UpdatesPhotos, UpdatesLogbook:
		return u
	default:
		return UpdatesBasic
	}
}

func (u UpdatesTier) rateKey() RateKey {
	switch u {
	case UpdatesPhotos:
		return RateUpdatesPhotos
	case UpdatesLogbook:
		return RateUpdatesLogbook
	default:
		return RateUpdatesBasic
	}
}

// AddOn is a boolean option on the booking form.
type AddOn string

const (
	AddOnMeds      AddOn = "meds"
	AddOnPuppy     AddOn = "puppy"
	AddOnHighcare  AddOn = "highcare"
	AddOnReactive  AddOn = "reactive"
	AddOnPlay      AddOn = "play"
	AddOnTrain     AddOn = "train"
	AddOnBrush     AddOn = "brush"
	AddOnHomecare  AddOn = "homecare"
	AddOnConcierge AddOn = "concierge"
	AddOnPool      AddOn = "pool"
	AddOnPantry    AddOn = "pantry"
	AddOnMeet      AddOn = "meet"
	AddOnBath      AddOn = "bath"
	AddOnCamera    AddOn = "camera"
	AddOnClean     AddOn = "clean"
)

type addOnSpec struct {
	addOn AddOn
	title string
	rate  RateKey
}

// perDayToggles are billed every day, in line-item order.
var perDayToggles = []addOnSpec{
	{AddOnMeds, "Oral meds", RateMedsPerDay},
	{AddOnPuppy, "Puppy care", RatePuppyPerDay},
	{AddOnHighcare, "High-care routine", RateHighcarePerDay},
	{AddOnReactive, "Reactive handling", RateReactivePerDay},
	{AddOnPlay, "Play and enrichment", RatePlayPerDay},
	{AddOnTrain, "Training reinforcement", RateTrainPerDay},
	{AddOnBrush, "Brush and coat care", RateBrushPerDay},
	{AddOnHomecare, "Plants and chores pack", RateHomecarePerDay},
	{AddOnConcierge, "Home concierge", RateConciergePerDay},
	{AddOnPool, "Pool check", RatePoolPerDay},
}

// oneTimeToggles are billed once per booking.
var oneTimeToggles = []addOnSpec{
	{AddOnMeet, "Meet and greet", RateMeetOneTime},
	{AddOnBath, "Bath (basic)", RateBathOneTime},
	{AddOnCamera, "Pet camera setup/check", RateCameraOneTime},
	{AddOnClean, "Light clean and linen", RateCleanOneTime},
}

// IsKnownAddOn reports whether a toggle name is recognized.
func IsKnownAddOn(a AddOn) bool {
	if a == AddOnPantry {
		return true
	}
	for _, s := range perDayToggles {
		if s.addOn == a {
			return true
		}
	}
	for _, s := range oneTimeToggles {
		if s.addOn == a {
			return true
		}
	}
	return false
}

// AddOnSet is the set of enabled toggles.
type AddOnSet map[AddOn]bool

// NewAddOnSet builds a set, dropping unknown names.
func NewAddOnSet(addOns ...AddOn) AddOnSet {
	set := make(AddOnSet, len(addOns))
	for _, a := range addOns {
		if IsKnownAddOn(a) {
			set[a] = true
		}
	}
	return set
}

func (s AddOnSet) Has(a AddOn) bool { return s[a] }

// List returns the enabled toggles sorted by name.
func (s AddOnSet) List() []AddOn {
	out := make([]AddOn, 0, len(s))
	for a, on := range s {
		if on {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// BOOKING SELECTION
// =============================================================================

// BookingSelection is the business input of one recalculation. It is rebuilt
// from form state every time and never mutated by the engine.
type BookingSelection struct {
	Product Product
	Period  generic.Period // standard products
	Walk    WalkSchedule   // walk product

	Hours             int
	Zone              Zone
	Dogs              int
	Cats              int
	Updates           UpdatesTier
	CheckinsPerDay    int
	WalkMinutesPerDay int
	AddOns            AddOnSet

	KeyTrips  int
	TaxiTrips int
	TaxiKm    int
}

// Input bounds enforced by Normalized.
const (
	minHours             = 1
	maxHours             = 12
	maxCheckinsPerDay    = 20
	maxWalkMinutesPerDay = 600
	maxKeyTrips          = 20
	maxTaxiTrips         = 20
)

// Normalized returns a copy with every field clamped into its valid range.
// It is the single sanitization step: after it, pricing code needs no defaults.
func (s BookingSelection) Normalized() BookingSelection {
	out := s
	out.Product = ParseProduct(string(s.Product))
	out.Hours = clamp(s.Hours, minHours, maxHours)
	out.Zone = Zone(strings.ToLower(strings.TrimSpace(string(s.Zone))))
	out.Dogs = max(0, s.Dogs)
	out.Cats = max(0, s.Cats)
	out.Updates = ParseUpdatesTier(string(s.Updates))
	out.CheckinsPerDay = clamp(s.CheckinsPerDay, 0, maxCheckinsPerDay)
	out.WalkMinutesPerDay = clamp(s.WalkMinutesPerDay, 0, maxWalkMinutesPerDay)
	out.KeyTrips = clamp(s.KeyTrips, 0, maxKeyTrips)
	out.TaxiTrips = clamp(s.TaxiTrips, 0, maxTaxiTrips)
	out.TaxiKm = max(0, s.TaxiKm)

	out.AddOns = make(AddOnSet, len(s.AddOns))
	for a, on := range s.AddOns {
		if on && IsKnownAddOn(a) {
			out.AddOns[a] = true
		}
	}

	out.Walk = s.Walk.Normalized()
	if out.Product == ProductWalk {
		out.Cats = 0
		out.WalkMinutesPerDay = 0
		if out.Walk.Start.IsZero() {
			out.Walk.Start = s.Period.Start
		}
		// The stay range is derived from the walk schedule so that anything
		// downstream expecting a start/end pair stays consistent.
		plan := ResolveWalks(out.Walk)
		out.Period = generic.Period{Start: out.Walk.Start, End: plan.End}
	}
	return out
}

// =============================================================================
// FORM PARSING
// =============================================================================

// Form field names accepted by ParseForm.
const (
	FieldProduct        = "pkg"
	FieldStartDate      = "startDate"
	FieldEndDate        = "endDate"
	FieldHours          = "hours"
	FieldZone           = "zone"
	FieldDogs           = "dogs"
	FieldCats           = "cats"
	FieldUpdates        = "updates"
	FieldCheckins       = "checkins"
	FieldWalkMinutes    = "walkMinutes"
	FieldKeys           = "keys"
	FieldTaxi           = "taxi"
	FieldTaxiKm         = "taxiKm"
	FieldAddOns         = "addons"
	FieldWalkStartDate  = "walkStartDate"
	FieldWalkDays       = "walkDays"
	FieldWalksPerDay    = "walksPerDay"
	FieldMinutesPerWalk = "walkMinutesPerWalk"
	FieldTravelEstimate = "walkTravelEstimatePerWalk"
	FieldBillingOption  = "walkBillingOption"
	FieldWalkWeeks      = "walkWeeks"
)

// FormValues is raw form state: every field as the string the form holds.
type FormValues map[string]string

// ParseForm builds a normalized BookingSelection from raw form values. Missing
// or non-numeric fields take their form defaults; nothing here can fail.
func ParseForm(v FormValues) BookingSelection {
	sel := BookingSelection{
		Product:           ParseProduct(v[FieldProduct]),
		Period:            generic.NewPeriod(v[FieldStartDate], v[FieldEndDate]),
		Hours:             formInt(v[FieldHours], 1),
		Zone:              Zone(v[FieldZone]),
		Dogs:              formInt(v[FieldDogs], 0),
		Cats:              formInt(v[FieldCats], 0),
		Updates:           ParseUpdatesTier(v[FieldUpdates]),
		CheckinsPerDay:    formInt(v[FieldCheckins], 0),
		WalkMinutesPerDay: formInt(v[FieldWalkMinutes], 0),
		KeyTrips:          formInt(v[FieldKeys], 0),
		TaxiTrips:         formInt(v[FieldTaxi], 0),
		TaxiKm:            formInt(v[FieldTaxiKm], 0),
		AddOns:            parseAddOns(v[FieldAddOns]),
	}

	walkStart, _ := generic.ParseDate(v[FieldWalkStartDate])
	sel.Walk = WalkSchedule{
		Start:                 walkStart,
		Weekdays:              parseWeekdays(v[FieldWalkDays]),
		WalksPerDay:           formInt(v[FieldWalksPerDay], 1),
		MinutesPerWalk:        formInt(v[FieldMinutesPerWalk], defaultMinutesPerWalk),
		TravelEstimatePerWalk: formInt(v[FieldTravelEstimate], defaultTravelEstimate),
		Billing:               ParseBillingCycle(v[FieldBillingOption]),
		Weeks:                 formInt(v[FieldWalkWeeks], 1),
	}
	return sel.Normalized()
}

// formInt reads a leading integer the way a lenient form would: surrounding
// space is ignored, "4.7" reads as 4, and anything without digits yields def.
func formInt(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return def
	}
	return n
}

func parseAddOns(s string) AddOnSet {
	set := AddOnSet{}
	for _, part := range splitList(s) {
		if a := AddOn(part); IsKnownAddOn(a) {
			set[a] = true
		}
	}
	return set
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseWeekdays reads "mon,wed,fri". An empty field means the default
// schedule; unrecognized names are skipped.
func parseWeekdays(s string) []time.Weekday {
	if s == "" {
		return append([]time.Weekday(nil), defaultWalkDays...)
	}
	var out []time.Weekday
	for _, part := range splitList(s) {
		if len(part) > 3 {
			part = part[:3]
		}
		if wd, ok := weekdayNames[part]; ok {
			out = append(out, wd)
		}
	}
	return out
}

// WeekdayName is the short lowercase name used on the wire.
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clamp(n, lo, hi int) int {
	return max(lo, min(hi, n))
}
