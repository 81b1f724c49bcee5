package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/petguardian/quote-engine/pricing"
)

// EventTypeBookingSubmitted is the only event this service emits.
const EventTypeBookingSubmitted = "booking.submitted"

// BookingEvent is the envelope written to the bookings topic.
type BookingEvent struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Booking    BookingMessage `json:"booking"`
}

// BookingMessage is the wire form of a pricing.BookingSnapshot.
type BookingMessage struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Customer      CustomerMessage  `json:"customer"`
	Sitter        SitterMessage    `json:"sitter"`
	TimeWindow    string           `json:"time_window,omitempty"`
	Selection     SelectionMessage `json:"selection"`
	TariffVersion string           `json:"tariff_version"`
	Days          int              `json:"days"`
	BilledWalks   *float64         `json:"billed_walks,omitempty"`
	Total         string           `json:"total"` // exact decimal, not rounded
	Deposit       string           `json:"deposit"`
	Balance       string           `json:"balance"`
}

type CustomerMessage struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type SitterMessage struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// SelectionMessage flattens the selection the way the booking form holds it.
type SelectionMessage struct {
	Product        string       `json:"product"`
	StartDate      string       `json:"start_date,omitempty"`
	EndDate        string       `json:"end_date,omitempty"`
	Hours          int          `json:"hours,omitempty"`
	Zone           string       `json:"zone"`
	Dogs           int          `json:"dogs"`
	Cats           int          `json:"cats"`
	Updates        string       `json:"updates"`
	CheckinsPerDay int          `json:"checkins_per_day"`
	WalkMinutes    int          `json:"walk_minutes_per_day"`
	KeyTrips       int          `json:"key_trips"`
	TaxiTrips      int          `json:"taxi_trips"`
	TaxiKm         int          `json:"taxi_km"`
	AddOns         []string     `json:"addons"`
	Walk           *WalkMessage `json:"walk,omitempty"`
}

type WalkMessage struct {
	StartDate      string   `json:"start_date,omitempty"`
	Days           []string `json:"days"`
	WalksPerDay    int      `json:"walks_per_day"`
	MinutesPerWalk int      `json:"minutes_per_walk"`
	TravelPerWalk  int      `json:"travel_estimate_per_walk"`
	Billing        string   `json:"billing"`
	Weeks          int      `json:"weeks"`
}

// NewBookingEvent wraps a snapshot in a fresh event envelope.
func NewBookingEvent(s pricing.BookingSnapshot) BookingEvent {
	return BookingEvent{
		ID:         uuid.New(),
		Type:       EventTypeBookingSubmitted,
		OccurredAt: s.CreatedAt,
		Booking:    toBookingMessage(s),
	}
}

func toBookingMessage(s pricing.BookingSnapshot) BookingMessage {
	m := BookingMessage{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Customer: CustomerMessage{
			Name:    s.Customer.Name,
			Phone:   s.Customer.Phone,
			Email:   s.Customer.Email,
			Address: s.Customer.Address,
			Notes:   s.Customer.Notes,
		},
		Sitter:        SitterMessage{ID: s.Sitter.ID, Name: s.Sitter.Name},
		TimeWindow:    s.TimeWindow,
		Selection:     toSelectionMessage(s.Selection),
		TariffVersion: s.TariffVersion,
		Days:          s.Days,
		Total:         s.Total.String(),
		Deposit:       s.Deposit.String(),
		Balance:       s.Balance.String(),
	}
	if s.Walks != nil {
		billed := s.Walks.BilledWalks
		m.BilledWalks = &billed
	}
	return m
}

func toSelectionMessage(sel pricing.BookingSelection) SelectionMessage {
	m := SelectionMessage{
		Product:        string(sel.Product),
		StartDate:      sel.Period.Start.String(),
		EndDate:        sel.Period.End.String(),
		Zone:           string(sel.Zone),
		Dogs:           sel.Dogs,
		Cats:           sel.Cats,
		Updates:        string(sel.Updates),
		CheckinsPerDay: sel.CheckinsPerDay,
		WalkMinutes:    sel.WalkMinutesPerDay,
		KeyTrips:       sel.KeyTrips,
		TaxiTrips:      sel.TaxiTrips,
		TaxiKm:         sel.TaxiKm,
		AddOns:         []string{},
	}
	for _, a := range sel.AddOns.List() {
		m.AddOns = append(m.AddOns, string(a))
	}

	if sel.Product == pricing.ProductDay {
		m.Hours = sel.Hours
	}
	if sel.Product == pricing.ProductWalk {
		w := sel.Walk
		days := make([]string, 0, len(w.Weekdays))
		for _, wd := range w.Weekdays {
			days = append(days, pricing.WeekdayName(wd))
		}
		m.Walk = &WalkMessage{
			StartDate:      w.Start.String(),
			Days:           days,
			WalksPerDay:    w.WalksPerDay,
			MinutesPerWalk: w.MinutesPerWalk,
			TravelPerWalk:  w.TravelEstimatePerWalk,
			Billing:        string(w.Billing),
			Weeks:          w.Weeks,
		}
	}
	return m
}
