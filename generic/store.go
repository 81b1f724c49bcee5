/*
store.go - Persistence interface for tariff snapshots

PURPOSE:
  Defines the interface between the pricing domain and the database. Every
  installed tariff snapshot is recorded so that a restart can reinstall the
  last-known-good table and so that price changes can be audited.

APPEND-ONLY CONTRACT:
  - SaveTariff(): the only write
  - NO Update() or Delete() methods exist
  - A version is written at most once; a second save is rejected with
    ErrDuplicateVersion

EXACT AMOUNTS:
  Rates are carried as decimal.Decimal and stored as TEXT so a value read
  back is the value that was installed.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - pricing/history.go: conversion between pricing.Tariff and TariffRecord
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TARIFF RECORD
// =============================================================================

// TariffRecord is the persisted form of one tariff snapshot.
type TariffRecord struct {
	Version     string
	Source      string
	InstalledAt time.Time
	Values      map[string]decimal.Decimal
}

// =============================================================================
// TARIFF STORE - Interface for snapshot persistence (append-only)
// =============================================================================

// TariffStore persists tariff snapshots.
type TariffStore interface {
	// SaveTariff appends a snapshot. Returns ErrDuplicateVersion if the
	// version is already stored.
	SaveTariff(ctx context.Context, rec TariffRecord) error

	// LatestTariff returns the most recently saved snapshot, or
	// ErrTariffNotFound when nothing is stored.
	LatestTariff(ctx context.Context) (*TariffRecord, error)

	// ListTariffs returns up to limit snapshots, newest first. A limit of
	// zero or less returns all of them.
	ListTariffs(ctx context.Context, limit int) ([]TariffRecord, error)
}
