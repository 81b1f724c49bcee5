package pricing_test

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ignoredKeys(report pricing.MergeReport) []string {
	var keys []string
	for _, e := range report.Ignored {
		keys = append(keys, e.Key)
	}
	return keys
}

// =============================================================================
// FAIL-SOFT MERGE
// =============================================================================

func TestWithOverrides_AppliesRecognizedKeys(t *testing.T) {
	base := pricing.DefaultTariff()

	next, report := base.WithOverrides(map[string]any{
		"BASE_NIGHT":      "250",
		"TRAVEL_NEL":      json.Number("75.5"),
		"PEAK_MULTIPLIER": 1.25,
		"MAX_DAILY_CAP":   0,
	}, pricing.SourceRemote)

	assert.Equal(t, []string{"BASE_NIGHT", "MAX_DAILY_CAP", "PEAK_MULTIPLIER", "TRAVEL_NEL"}, report.Applied)
	assert.Empty(t, report.Ignored)
	assert.Equal(t, 250.0, next.Rate(pricing.RateNight))
	assert.Equal(t, 75.5, next.Travel(pricing.ZoneNelspruit))
	assert.Equal(t, 1.25, next.PeakMultiplier())
	assert.Equal(t, 0.0, next.MaxDailyCap())
	assert.Equal(t, pricing.SourceRemote, next.Source())
	assert.NotEqual(t, base.Version(), next.Version())

	// The receiver is untouched.
	assert.Equal(t, 200.0, base.Rate(pricing.RateNight))
	assert.Equal(t, 600.0, base.MaxDailyCap())
}

func TestWithOverrides_IgnoresBadValues(t *testing.T) {
	// GIVEN: A payload mixing unknown keys, junk values and out-of-range controls
	// WHEN: Merging
	// THEN: Every bad entry is reported and the prior value is kept

	base := pricing.DefaultTariff()
	next, report := base.WithOverrides(map[string]any{
		"BASE_DAY_HOURLY":     "",
		"BASE_FULLDAY":        "abc",
		"BASE_NIGHT":          math.NaN(),
		"TRAVEL_WR":           -5,
		"PEAK_MULTIPLIER":     0.8,
		"DISCOUNT_BLOCK_DAYS": 2.5,
		"DISCOUNT_FACTOR":     0,
		"DISCOUNT_CAP_BLOCKS": 1e20,
		"INCLUDED_PETS":       1e20,
		"DEPOSIT_PERCENT":     1.5,
		"ADD_CHECKIN":         true,
		"NOT_A_KEY":           10,
	}, pricing.SourceRemote)

	assert.Empty(t, report.Applied)
	assert.ElementsMatch(t, []string{
		"BASE_DAY_HOURLY", "BASE_FULLDAY", "BASE_NIGHT", "TRAVEL_WR", "PEAK_MULTIPLIER",
		"DISCOUNT_BLOCK_DAYS", "DISCOUNT_FACTOR", "DISCOUNT_CAP_BLOCKS", "INCLUDED_PETS",
		"DEPOSIT_PERCENT", "ADD_CHECKIN", "NOT_A_KEY",
	}, ignoredKeys(report))
	assert.Equal(t, base.Values(), next.Values())
	assert.Equal(t, base.LongStay(), next.LongStay())
	assert.Equal(t, 1, next.IncludedPets())

	for _, e := range report.Ignored {
		if e.Key == "NOT_A_KEY" {
			assert.True(t, errors.Is(e, generic.ErrUnknownOverride))
		} else {
			assert.True(t, errors.Is(e, generic.ErrInvalidOverride), e.Key)
		}
	}
}

func TestWithOverrides_WholeNumberKeysAreBounded(t *testing.T) {
	// GIVEN: Whole-number keys just inside and far outside their bounds
	// WHEN: Merging
	// THEN: The bounds are accepted, oversized values keep the prior schedule

	base := pricing.DefaultTariff()

	atLimit, report := base.WithOverrides(map[string]any{
		"DISCOUNT_BLOCK_DAYS": 365,
		"DISCOUNT_CAP_BLOCKS": 100,
		"INCLUDED_PETS":       20,
	}, pricing.SourceManual)
	assert.Empty(t, report.Ignored)
	assert.Equal(t, pricing.LongStay{BlockDays: 365, Factor: 0.9, CapBlocks: 100}, atLimit.LongStay())
	assert.Equal(t, 20, atLimit.IncludedPets())

	tests := []struct {
		key   string
		value any
	}{
		{"DISCOUNT_BLOCK_DAYS", 1e20},
		{"DISCOUNT_BLOCK_DAYS", 366},
		{"DISCOUNT_CAP_BLOCKS", 1e20},
		{"DISCOUNT_CAP_BLOCKS", "101"},
		{"INCLUDED_PETS", 1e20},
		{"INCLUDED_PETS", 21},
	}
	sel := pricing.ParseForm(pricing.FormValues{
		"pkg": "night", "startDate": "2025-03-01", "endDate": "2025-03-30", "zone": "wr", "dogs": "2",
	})
	want := pricing.Calculate(base, sel).Total

	for _, tt := range tests {
		next, report := base.WithOverrides(map[string]any{tt.key: tt.value}, pricing.SourceManual)

		assert.Empty(t, report.Applied, "%s=%v", tt.key, tt.value)
		require.Len(t, report.Ignored, 1)
		assert.ErrorIs(t, report.Ignored[0], generic.ErrInvalidOverride)
		assert.Equal(t, base.LongStay(), next.LongStay())
		assert.Equal(t, base.IncludedPets(), next.IncludedPets())
		assert.True(t, pricing.Calculate(next, sel).Total.Equal(want), "%s=%v", tt.key, tt.value)
	}
}

func TestWithOverrides_IncludedPetsZeroDisablesAllowance(t *testing.T) {
	tariff, report := pricing.DefaultTariff().WithOverrides(map[string]any{"INCLUDED_PETS": "0"}, pricing.SourceManual)

	require.Equal(t, []string{"INCLUDED_PETS"}, report.Applied)
	assert.Equal(t, 0, tariff.IncludedPets())

	sel := daySelection("2025-03-10", "2025-03-10")
	q := pricing.Calculate(tariff, sel)
	assert.Equal(t, 1, q.Pets.ExtraDogs)
}

func TestRestoreTariff_KeepsIdentityAndDropsCorruptValues(t *testing.T) {
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	tariff := pricing.RestoreTariff("v-1", pricing.SourceStored, at, map[string]float64{
		"BASE_NIGHT":      300,
		"PEAK_MULTIPLIER": 0.5,
		"RETIRED_KEY":     1,
	})

	assert.Equal(t, "v-1", tariff.Version())
	assert.Equal(t, at, tariff.InstalledAt())
	assert.Equal(t, pricing.SourceStored, tariff.Source())
	assert.Equal(t, 300.0, tariff.Rate(pricing.RateNight))
	assert.Equal(t, 1.15, tariff.PeakMultiplier())
}

func TestKeys_MatchDefaultValues(t *testing.T) {
	values := pricing.DefaultTariff().Values()
	keys := pricing.Keys()

	assert.Len(t, keys, len(values))
	for _, k := range keys {
		assert.True(t, pricing.IsKnownKey(string(k)))
		assert.Contains(t, values, string(k))
	}
	assert.False(t, pricing.IsKnownKey("BASE_WEEKLY"))
}

func TestTravel_UnknownZoneIsFree(t *testing.T) {
	assert.Equal(t, 0.0, pricing.DefaultTariff().Travel("mbombela"))
}

// =============================================================================
// TARIFF BOOK
// =============================================================================

func TestTariffBook_InstallAndMerge(t *testing.T) {
	book := pricing.NewTariffBook(pricing.DefaultTariff())
	first := book.Current()

	merged, report, changed := book.Merge(map[string]any{"BASE_NIGHT": 210}, pricing.SourceManual)

	assert.True(t, changed)
	assert.Equal(t, []string{"BASE_NIGHT"}, report.Applied)
	assert.Equal(t, merged.Version(), book.Current().Version())
	assert.Equal(t, 210.0, book.Current().Rate(pricing.RateNight))
	assert.Equal(t, 200.0, first.Rate(pricing.RateNight), "earlier snapshot is immutable")

	book.Install(pricing.DefaultTariff())
	assert.Equal(t, 200.0, book.Current().Rate(pricing.RateNight))
}

func TestTariffBook_MergeWithoutChangesKeepsSnapshot(t *testing.T) {
	// GIVEN: Payloads that apply nothing or only restate current values
	// WHEN: Merging them
	// THEN: No new version is installed

	book := pricing.NewTariffBook(pricing.DefaultTariff())
	installed := book.Current()

	for _, payload := range []map[string]any{
		{},
		{"NOT_A_KEY": 1, "PEAK_MULTIPLIER": 0.5},
		{"BASE_NIGHT": "200", "TRAVEL_WR": 30},
	} {
		got, _, changed := book.Merge(payload, pricing.SourceManual)

		assert.False(t, changed, "%v", payload)
		assert.Equal(t, installed.Version(), got.Version())
		assert.Equal(t, installed.Version(), book.Current().Version())
		assert.Equal(t, pricing.SourceDefault, book.Current().Source())
	}
}

func TestTariffBook_ConcurrentMergesAllLand(t *testing.T) {
	// GIVEN: Many writers each setting a different key
	// WHEN: Merging concurrently
	// THEN: No update is lost

	book := pricing.NewTariffBook(pricing.DefaultTariff())
	keys := []string{"ADD_ORAL_MEDS_PER_DAY", "ADD_PUPPY_CARE_PER_DAY", "ADD_PLAY_PER_DAY", "ADD_TRAIN_PER_DAY", "ADD_POOL_PER_DAY"}

	var wg sync.WaitGroup
	for _, k := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			book.Merge(map[string]any{k: 99}, pricing.SourceManual)
		}(k)
	}
	wg.Wait()

	values := book.Current().Values()
	for _, k := range keys {
		assert.Equal(t, 99.0, values[k], k)
	}
}
