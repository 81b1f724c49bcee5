package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petguardian/quote-engine/generic"
)

// =============================================================================
// BOOKING SNAPSHOT - Hand-off record for the booking collaborator
// =============================================================================

// Customer is the contact block of a booking request.
type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

// Sitter identifies the chosen sitter. Availability is not checked here.
type Sitter struct {
	ID   string
	Name string
}

// BookingRequest is everything a customer submits.
type BookingRequest struct {
	Customer   Customer
	Sitter     Sitter
	Selection  BookingSelection
	TimeWindow string // preferred walk time, free text
}

// BookingSnapshot freezes a request together with the quote it was priced at.
// Total, Deposit and Balance come from one Calculate call, so they are always
// mutually consistent.
type BookingSnapshot struct {
	ID            string
	CreatedAt     time.Time
	Customer      Customer
	Sitter        Sitter
	Selection     BookingSelection
	TimeWindow    string
	TariffVersion string
	Days          int
	Walks         *WalkPlan
	Total         generic.Money
	Deposit       generic.Money
	Balance       generic.Money
}

// Validate returns a MissingFieldError naming every blank required field.
func (r BookingRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Sitter.ID) == "" && strings.TrimSpace(r.Sitter.Name) == "" {
		missing = append(missing, "sitter")
	}
	if strings.TrimSpace(r.Customer.Name) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(r.Customer.Phone) == "" {
		missing = append(missing, "customerPhone")
	}
	if strings.TrimSpace(r.Customer.Email) == "" {
		missing = append(missing, "customerEmail")
	}
	if len(missing) > 0 {
		return &generic.MissingFieldError{Fields: missing}
	}
	return nil
}

// NewBookingSnapshot validates the request and prices it against t. The
// quote is always recomputed here; totals sent by a client are never trusted.
func NewBookingSnapshot(req BookingRequest, t Tariff, now time.Time) (BookingSnapshot, Quote, error) {
	if err := req.Validate(); err != nil {
		return BookingSnapshot{}, Quote{}, err
	}

	sel := req.Selection.Normalized()
	q := Calculate(t, sel)

	return BookingSnapshot{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Customer: Customer{
			Name:    strings.TrimSpace(req.Customer.Name),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Email:   strings.TrimSpace(req.Customer.Email),
			Address: strings.TrimSpace(req.Customer.Address),
			Notes:   strings.TrimSpace(req.Customer.Notes),
		},
		Sitter:        req.Sitter,
		Selection:     sel,
		TimeWindow:    strings.TrimSpace(req.TimeWindow),
		TariffVersion: q.TariffVersion,
		Days:          q.Days,
		Walks:         q.Walks,
		Total:         q.Total,
		Deposit:       q.Deposit,
		Balance:       q.Balance,
	}, q, nil
}

// =============================================================================
// SUMMARY - Plain-text quote for copying
// =============================================================================

// Summary renders a short plain-text quote. The sitter name may be empty.
//
//	PetGuardian Care Quote
//	Product options: night
//	Dates: 2025-03-01 to 2025-03-03
//	Zone: wr
//	Pets: Dogs 1, Cats 0
//	Sitter: None
//	Total estimate: R690
func Summary(sel BookingSelection, q Quote, sitterName string) string {
	sel = sel.Normalized()
	if strings.TrimSpace(sitterName) == "" {
		sitterName = "None"
	}

	var b strings.Builder
	b.WriteString("PetGuardian Care Quote\n")
	b.WriteString("Product options: " + string(sel.Product) + "\n")
	b.WriteString("Dates: " + sel.Period.Start.String() + " to " + sel.Period.End.String() + "\n")
	b.WriteString("Zone: " + string(sel.Zone) + "\n")
	b.WriteString("Pets: Dogs " + itoa(sel.Dogs))
	if sel.Product != ProductWalk {
		b.WriteString(", Cats " + itoa(sel.Cats))
	}
	b.WriteString("\n")
	b.WriteString("Sitter: " + sitterName + "\n")
	b.WriteString("Total estimate: " + generic.FormatMoney(q.Total))
	return b.String()
}
