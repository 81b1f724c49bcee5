package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/generic/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(version string, night string) generic.TariffRecord {
	return generic.TariffRecord{
		Version:     version,
		Source:      "manual",
		InstalledAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Values:      map[string]decimal.Decimal{"BASE_NIGHT": decimal.RequireFromString(night)},
	}
}

func TestMemory_SaveLatestList(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.LatestTariff(ctx)
	assert.ErrorIs(t, err, generic.ErrTariffNotFound)

	require.NoError(t, m.SaveTariff(ctx, record("v1", "200")))
	require.NoError(t, m.SaveTariff(ctx, record("v2", "210")))
	require.NoError(t, m.SaveTariff(ctx, record("v3", "220.5")))

	latest, err := m.LatestTariff(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Version)
	assert.Equal(t, "220.5", latest.Values["BASE_NIGHT"].String())

	all, err := m.ListTariffs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "v3", all[0].Version)
	assert.Equal(t, "v1", all[2].Version)

	two, err := m.ListTariffs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestMemory_DuplicateVersionRejected(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.SaveTariff(ctx, record("v1", "200")))
	err := m.SaveTariff(ctx, record("v1", "999"))

	assert.ErrorIs(t, err, generic.ErrDuplicateVersion)
	latest, _ := m.LatestTariff(ctx)
	assert.Equal(t, "200", latest.Values["BASE_NIGHT"].String())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.SaveTariff(ctx, record("v1", "200")))

	latest, _ := m.LatestTariff(ctx)
	latest.Values["BASE_NIGHT"] = decimal.NewFromInt(1)

	again, _ := m.LatestTariff(ctx)
	assert.Equal(t, "200", again.Values["BASE_NIGHT"].String())
}
