package pricing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() pricing.BookingRequest {
	return pricing.BookingRequest{
		Customer: pricing.Customer{
			Name:  " Thandi Mokoena ",
			Phone: "+27 82 000 0000",
			Email: "thandi@example.com",
		},
		Sitter:    pricing.Sitter{ID: "s-7", Name: "Lerato"},
		Selection: daySelection("2025-03-01", "2025-03-12"),
	}
}

func TestNewBookingSnapshot_RecomputesQuote(t *testing.T) {
	// GIVEN: A complete booking request
	// WHEN: Building the snapshot
	// THEN: Totals come from a fresh quote and are mutually consistent

	tariff := pricing.DefaultTariff()
	now := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

	snap, q, err := pricing.NewBookingSnapshot(validRequest(), tariff, now)
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, now, snap.CreatedAt)
	assert.Equal(t, "Thandi Mokoena", snap.Customer.Name)
	assert.Equal(t, tariff.Version(), snap.TariffVersion)
	assert.Equal(t, 12, snap.Days)
	assert.True(t, snap.Total.Equal(q.Total))
	assert.True(t, snap.Deposit.Add(snap.Balance).Equal(snap.Total))
	assert.Nil(t, snap.Walks)
}

func TestNewBookingSnapshot_Walk(t *testing.T) {
	req := validRequest()
	req.Selection = walkSelection(pricing.BillingMonthly, "2025-03-03")
	req.TimeWindow = "morning"

	snap, _, err := pricing.NewBookingSnapshot(req, pricing.DefaultTariff(), time.Now())
	require.NoError(t, err)

	require.NotNil(t, snap.Walks)
	assert.Equal(t, 12.9, snap.Walks.BilledWalks)
	assert.Equal(t, "morning", snap.TimeWindow)
	assert.Equal(t, "2025-03-09", snap.Selection.Period.End.String())
}

func TestNewBookingSnapshot_MissingFields(t *testing.T) {
	req := validRequest()
	req.Sitter = pricing.Sitter{}
	req.Customer.Phone = "  "
	req.Customer.Email = ""

	_, _, err := pricing.NewBookingSnapshot(req, pricing.DefaultTariff(), time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrIncompleteBooking))
	assert.True(t, generic.IsClientError(err))
	var missing *generic.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"sitter", "customerPhone", "customerEmail"}, missing.Fields)
}

func TestSummary(t *testing.T) {
	sel := pricing.BookingSelection{
		Product: pricing.ProductNight,
		Period:  period("2025-03-01", "2025-03-03"),
		Zone:    pricing.ZoneWhiteRiver,
		Dogs:    1,
	}
	q := pricing.Calculate(pricing.DefaultTariff(), sel)

	assert.Equal(t, "PetGuardian Care Quote\n"+
		"Product options: night\n"+
		"Dates: 2025-03-01 to 2025-03-03\n"+
		"Zone: wr\n"+
		"Pets: Dogs 1, Cats 0\n"+
		"Sitter: None\n"+
		"Total estimate: R690", pricing.Summary(sel, q, ""))
}

func TestSummary_WalkOmitsCats(t *testing.T) {
	sel := walkSelection(pricing.BillingOnceOff, "2025-03-03")
	q := pricing.Calculate(pricing.DefaultTariff(), sel)

	text := pricing.Summary(sel, q, "Lerato")

	assert.Contains(t, text, "Pets: Dogs 2\n")
	assert.Contains(t, text, "Sitter: Lerato\n")
	assert.Contains(t, text, "Dates: 2025-03-03 to 2025-03-09\n")
	// 3 walks * (60 + 25)
	assert.Contains(t, text, "Total estimate: R255")
}
