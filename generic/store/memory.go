// Package store provides TariffStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/petguardian/quote-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	records  []generic.TariffRecord // oldest first
	versions map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string]bool),
	}
}

// SaveTariff appends a snapshot. Append-only.
func (m *Memory) SaveTariff(_ context.Context, rec generic.TariffRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.versions[rec.Version] {
		return generic.ErrDuplicateVersion
	}
	m.records = append(m.records, cloneRecord(rec))
	m.versions[rec.Version] = true
	return nil
}

func (m *Memory) LatestTariff(_ context.Context) (*generic.TariffRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, generic.ErrTariffNotFound
	}
	rec := cloneRecord(m.records[len(m.records)-1])
	return &rec, nil
}

func (m *Memory) ListTariffs(_ context.Context, limit int) ([]generic.TariffRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]generic.TariffRecord, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, cloneRecord(m.records[i]))
	}
	return result, nil
}

// cloneRecord copies the values map so callers cannot mutate stored state.
func cloneRecord(rec generic.TariffRecord) generic.TariffRecord {
	values := make(map[string]decimal.Decimal, len(rec.Values))
	for k, v := range rec.Values {
		values[k] = v
	}
	rec.Values = values
	return rec
}
