/*
Package pricing implements the pet-sitting quote engine.

PURPOSE:
  Turns a BookingSelection and an installed Tariff snapshot into a Quote:
  base, add-ons, one-time fees, long-stay discount, total, deposit, balance
  and an itemized line list. Every function is pure; the only shared state
  is the TariffBook holding the current snapshot.

KEY CONCEPTS IN THIS FILE (tariff.go):
  - RateKey: the flat names a pricing payload uses (BASE_NIGHT, ...)
  - Tariff: an immutable snapshot of every rate
  - WithOverrides: fail-soft merge of a payload into a new snapshot
  - TariffBook: atomic holder of the installed snapshot

FAIL-SOFT MERGE:
  Each recognized key replaces one rate. Unknown keys, non-numeric values,
  non-finite numbers, negatives and out-of-range controls are skipped and
  reported; the previous value stays. A merge never fails as a whole.

SEE ALSO:
  - quote.go: the aggregator that reads the snapshot
  - factory/tariff.go: payload decoding and presets
*/
package pricing

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/petguardian/quote-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE KEYS
// =============================================================================

// RateKey names one tariff value. The string is the key used by pricing payloads.
type RateKey string

const (
	RateDayHourly RateKey = "BASE_DAY_HOURLY"
	RateNight     RateKey = "BASE_NIGHT"
	RateFullDay   RateKey = "BASE_FULLDAY"

	RateTravelSabie RateKey = "TRAVEL_SABIE"
	RateTravelWR    RateKey = "TRAVEL_WR"
	RateTravelNel   RateKey = "TRAVEL_NEL"

	RatePeakMultiplier    RateKey = "PEAK_MULTIPLIER"
	RateDiscountBlockDays RateKey = "DISCOUNT_BLOCK_DAYS"
	RateDiscountFactor    RateKey = "DISCOUNT_FACTOR"
	RateDiscountCapBlocks RateKey = "DISCOUNT_CAP_BLOCKS"
	RateIncludedPets      RateKey = "INCLUDED_PETS"
	RateMaxDailyCap       RateKey = "MAX_DAILY_CAP"
	RateDepositPercent    RateKey = "DEPOSIT_PERCENT"

	RateExtraDogPerDay  RateKey = "ADD_EXTRA_DOG_PER_DAY"
	RateExtraCatPerDay  RateKey = "ADD_EXTRA_CAT_PER_DAY"
	RateCheckinPerDay   RateKey = "ADD_CHECKIN"
	RateUpdatesBasic    RateKey = "ADD_UPDATES_BASIC_PER_DAY"
	RateUpdatesPhotos   RateKey = "ADD_UPDATES_PHOTOS_PER_DAY"
	RateUpdatesLogbook  RateKey = "ADD_UPDATES_LOGBOOK_PER_DAY"
	RateMedsPerDay      RateKey = "ADD_ORAL_MEDS_PER_DAY"
	RatePuppyPerDay     RateKey = "ADD_PUPPY_CARE_PER_DAY"
	RateHighcarePerDay  RateKey = "ADD_HIGHCARE_PER_DAY"
	RateReactivePerDay  RateKey = "ADD_REACTIVE_PER_DAY"
	RateHomecarePerDay  RateKey = "ADD_HOMECARE_PER_DAY"
	RateConciergePerDay RateKey = "ADD_HOME_CONCIERGE_PER_DAY"
	RatePlayPerDay      RateKey = "ADD_PLAY_PER_DAY"
	RateTrainPerDay     RateKey = "ADD_TRAIN_PER_DAY"
	RateBrushPerDay     RateKey = "ADD_GROOM_BRUSH_PER_DAY"
	RatePoolPerDay      RateKey = "ADD_POOL_PER_DAY"
	RateWalkPerMinute   RateKey = "ADD_WALK_PER_MINUTE"
	RatePantryCredit    RateKey = "PANTRY_CREDIT_PER_DAY"

	RateMeetOneTime   RateKey = "ONE_MEET_AND_GREET"
	RateKeyTrip       RateKey = "ADD_KEYTRIP_ONE_TIME"
	RateTaxiTrip      RateKey = "ADD_PETTAXI_ONE_TIME"
	RateTaxiPerKm     RateKey = "ADD_PETTAXI_PER_KM"
	RateBathOneTime   RateKey = "ADD_BATH_ONE_TIME"
	RateCameraOneTime RateKey = "ADD_CAMERA_ONE_TIME"
	RateCleanOneTime  RateKey = "ADD_CLEAN_ONE_TIME"
)

// rateRule constrains the values a key accepts on top of "finite and >= 0".
type rateRule struct {
	integer  bool
	positive bool
	min      float64
	max      float64 // 0 = unbounded
}

// Integer keys are bounded so the int conversion in LongStay and
// IncludedPets cannot overflow.
var rateRules = map[RateKey]rateRule{
	RatePeakMultiplier:    {min: 1},
	RateDiscountBlockDays: {integer: true, min: 1, max: 365},
	RateDiscountFactor:    {positive: true, max: 1},
	RateDiscountCapBlocks: {integer: true, max: 100},
	RateIncludedPets:      {integer: true, max: 20},
	RateDepositPercent:    {max: 1},
}

// defaultRates is the built-in table installed at startup.
var defaultRates = map[RateKey]float64{
	RateDayHourly: 60,
	RateNight:     200,
	RateFullDay:   320,

	RateTravelSabie: 0,
	RateTravelWR:    30,
	RateTravelNel:   60,

	RatePeakMultiplier:    1.15,
	RateDiscountBlockDays: 10,
	RateDiscountFactor:    0.9,
	RateDiscountCapBlocks: 2,
	RateIncludedPets:      1,
	RateMaxDailyCap:       600,
	RateDepositPercent:    0.5,

	RateExtraDogPerDay:  20,
	RateExtraCatPerDay:  10,
	RateCheckinPerDay:   50,
	RateUpdatesBasic:    0,
	RateUpdatesPhotos:   10,
	RateUpdatesLogbook:  25,
	RateMedsPerDay:      30,
	RatePuppyPerDay:     30,
	RateHighcarePerDay:  100,
	RateReactivePerDay:  50,
	RateHomecarePerDay:  30,
	RateConciergePerDay: 50,
	RatePlayPerDay:      10,
	RateTrainPerDay:     25,
	RateBrushPerDay:     15,
	RatePoolPerDay:      30,
	RateWalkPerMinute:   1,
	RatePantryCredit:    50,

	RateMeetOneTime:   0,
	RateKeyTrip:       50,
	RateTaxiTrip:      150,
	RateTaxiPerKm:     5,
	RateBathOneTime:   150,
	RateCameraOneTime: 100,
	RateCleanOneTime:  150,
}

// Keys returns every recognized rate key in a stable order.
func Keys() []RateKey {
	keys := make([]RateKey, 0, len(defaultRates))
	for k := range defaultRates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// IsKnownKey reports whether a payload key maps to a tariff field.
func IsKnownKey(key string) bool {
	_, ok := defaultRates[RateKey(key)]
	return ok
}

// =============================================================================
// TARIFF - Immutable snapshot
// =============================================================================

// Source records where a snapshot came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceRemote  Source = "remote"
	SourceManual  Source = "manual"
	SourceStored  Source = "stored"
)

// Tariff is an immutable set of rates. Build it with DefaultTariff,
// WithOverrides or RestoreTariff; the zero value is not usable.
type Tariff struct {
	version     string
	source      Source
	installedAt time.Time
	rates       map[RateKey]float64
}

// DefaultTariff returns the built-in rate table.
func DefaultTariff() Tariff {
	rates := make(map[RateKey]float64, len(defaultRates))
	for k, v := range defaultRates {
		rates[k] = v
	}
	return Tariff{
		version:     uuid.NewString(),
		source:      SourceDefault,
		installedAt: time.Now().UTC(),
		rates:       rates,
	}
}

// RestoreTariff rebuilds a persisted snapshot. Values are validated like an
// override merged onto the defaults, so a corrupt record cannot poison pricing.
func RestoreTariff(version string, source Source, installedAt time.Time, values map[string]float64) Tariff {
	payload := make(map[string]any, len(values))
	for k, v := range values {
		payload[k] = v
	}
	t, _ := DefaultTariff().WithOverrides(payload, source)
	t.version = version
	t.installedAt = installedAt
	return t
}

func (t Tariff) Version() string        { return t.version }
func (t Tariff) Source() Source         { return t.source }
func (t Tariff) InstalledAt() time.Time { return t.installedAt }

// Rate returns the value for a key, or 0 for an unknown key.
func (t Tariff) Rate(k RateKey) float64 {
	return t.rates[k]
}

// Values returns a copy of every rate keyed by its payload name.
func (t Tariff) Values() map[string]float64 {
	out := make(map[string]float64, len(t.rates))
	for k, v := range t.rates {
		out[string(k)] = v
	}
	return out
}

// Typed accessors
func (t Tariff) PeakMultiplier() float64 { return t.rates[RatePeakMultiplier] }
func (t Tariff) MaxDailyCap() float64    { return t.rates[RateMaxDailyCap] }
func (t Tariff) IncludedPets() int       { return int(t.rates[RateIncludedPets]) }

// DepositPercent is the share of the total due up front, as a decimal fraction.
func (t Tariff) DepositPercent() decimal.Decimal {
	return decimal.NewFromFloat(t.rates[RateDepositPercent])
}

// LongStay returns the long-stay weighting schedule.
func (t Tariff) LongStay() LongStay {
	return LongStay{
		BlockDays: int(t.rates[RateDiscountBlockDays]),
		Factor:    t.rates[RateDiscountFactor],
		CapBlocks: int(t.rates[RateDiscountCapBlocks]),
	}
}

// Travel returns the per-day travel rate for a zone. Unknown zones travel free.
func (t Tariff) Travel(z Zone) float64 {
	k, ok := zoneRates[z]
	if !ok {
		return 0
	}
	return t.rates[k]
}

// =============================================================================
// OVERRIDES
// =============================================================================

// MergeReport lists what a WithOverrides call did.
type MergeReport struct {
	Applied []string
	Ignored []*generic.OverrideError
}

// WithOverrides returns a new snapshot with the payload merged in. The receiver
// is left untouched. Keys are applied in sorted order so the report is stable.
func (t Tariff) WithOverrides(payload map[string]any, source Source) (Tariff, MergeReport) {
	rates := make(map[RateKey]float64, len(t.rates))
	for k, v := range t.rates {
		rates[k] = v
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var report MergeReport
	for _, raw := range keys {
		value := payload[raw]
		key := RateKey(strings.TrimSpace(raw))
		if _, ok := defaultRates[key]; !ok {
			report.Ignored = append(report.Ignored,
				generic.NewOverrideError(raw, value, "unrecognized key", generic.ErrUnknownOverride))
			continue
		}
		f, err := parseRate(value)
		if err != nil {
			report.Ignored = append(report.Ignored,
				generic.NewOverrideError(raw, value, err.Error(), generic.ErrInvalidOverride))
			continue
		}
		if reason := checkRule(key, f); reason != "" {
			report.Ignored = append(report.Ignored,
				generic.NewOverrideError(raw, value, reason, generic.ErrInvalidOverride))
			continue
		}
		rates[key] = f
		report.Applied = append(report.Applied, string(key))
	}

	return Tariff{
		version:     uuid.NewString(),
		source:      source,
		installedAt: time.Now().UTC(),
		rates:       rates,
	}, report
}

func checkRule(k RateKey, f float64) string {
	if f < 0 {
		return "negative value"
	}
	rule, ok := rateRules[k]
	if !ok {
		return ""
	}
	if rule.integer && f != math.Trunc(f) {
		return "must be a whole number"
	}
	if rule.positive && f == 0 {
		return "must be greater than zero"
	}
	if f < rule.min {
		return fmt.Sprintf("must be at least %v", rule.min)
	}
	if rule.max > 0 && f > rule.max {
		return fmt.Sprintf("must be at most %v", rule.max)
	}
	return ""
}

// parseRate accepts JSON numbers and numeric strings (pricing sheets send both).
func parseRate(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		f = d.InexactFloat64()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, fmt.Errorf("empty value")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		f = d.InexactFloat64()
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return f, nil
}

// =============================================================================
// TARIFF BOOK - The installed snapshot
// =============================================================================

// TariffBook holds the snapshot every calculation reads. Install swaps the
// whole snapshot; a reader always sees one consistent table.
type TariffBook struct {
	current atomic.Pointer[Tariff]
}

// NewTariffBook returns a book with the given snapshot installed.
func NewTariffBook(initial Tariff) *TariffBook {
	b := &TariffBook{}
	b.Install(initial)
	return b
}

// Current returns the installed snapshot.
func (b *TariffBook) Current() Tariff {
	return *b.current.Load()
}

// Install replaces the snapshot.
func (b *TariffBook) Install(t Tariff) {
	b.current.Store(&t)
}

// Merge applies a payload to the installed snapshot and installs the result
// with a compare-and-swap, so concurrent merges never overwrite each other.
// A payload that changes no value installs nothing; the bool reports whether
// a new snapshot was installed.
func (b *TariffBook) Merge(payload map[string]any, source Source) (Tariff, MergeReport, bool) {
	for {
		cur := b.current.Load()
		next, report := cur.WithOverrides(payload, source)
		if maps.Equal(next.rates, cur.rates) {
			return *cur, report, false
		}
		if b.current.CompareAndSwap(cur, &next) {
			return next, report, true
		}
	}
}
