package pricing

import (
	"context"

	"github.com/petguardian/quote-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HISTORY - Tariff snapshots in and out of a generic.TariffStore
// =============================================================================

// Record converts the snapshot to its persisted form.
func (t Tariff) Record() generic.TariffRecord {
	values := make(map[string]decimal.Decimal, len(t.rates))
	for k, v := range t.rates {
		values[string(k)] = decimal.NewFromFloat(v)
	}
	return generic.TariffRecord{
		Version:     t.version,
		Source:      string(t.source),
		InstalledAt: t.installedAt,
		Values:      values,
	}
}

// FromRecord rebuilds a snapshot. Keys added since the record was written
// take their defaults; keys since retired are dropped.
func FromRecord(rec generic.TariffRecord) Tariff {
	values := make(map[string]float64, len(rec.Values))
	for k, v := range rec.Values {
		values[k] = v.InexactFloat64()
	}
	return RestoreTariff(rec.Version, Source(rec.Source), rec.InstalledAt, values)
}

// LoadLatest returns the newest stored snapshot. When nothing is stored, or
// the store fails, it returns the defaults together with the error
// (generic.ErrTariffNotFound for an empty store) so the caller can still start.
func LoadLatest(ctx context.Context, s generic.TariffStore) (Tariff, error) {
	rec, err := s.LatestTariff(ctx)
	if err != nil {
		return DefaultTariff(), err
	}
	return FromRecord(*rec), nil
}
