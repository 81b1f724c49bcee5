/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the pricing model from the external API contract: money goes out both as
  an exact decimal string and as the display string the booking form shows.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Quote:
    QuoteDTO, LineItemDTO, MoneyDTO, PetsDTO, WalkPlanDTO

  Tariff:
    factory.TariffJSON, MergeResponse, IgnoredKeyDTO, RefreshRunDTO

  Booking:
    BookingRequestDTO, BookingResponse, SummaryRequest

  Scenarios:
    ScenarioDTO, ScenarioResultDTO

VALIDATION:
  Validation is done in handlers and in package pricing, not in DTOs.
  Quote input is deliberately lenient: every field is optional.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/tariff.go: TariffJSON type
*/
package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/petguardian/quote-engine/factory"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/petguardian/quote-engine/store/sqlite"
)

// =============================================================================
// QUOTE INPUT
// =============================================================================

// FormRequest is the booking form state as JSON. Values may be strings,
// numbers, booleans or lists ("addons", "walkDays"); everything is turned
// into the string the form would hold before parsing.
type FormRequest map[string]any

// FormValues flattens the request for pricing.ParseForm.
func (f FormRequest) FormValues() pricing.FormValues {
	out := make(pricing.FormValues, len(f))
	for k, v := range f {
		out[k] = formString(v)
	}
	return out
}

func formString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, formString(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}

// =============================================================================
// QUOTE OUTPUT
// =============================================================================

// MoneyDTO carries an amount exactly and as displayed.
type MoneyDTO struct {
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

func toMoneyDTO(m generic.Money) MoneyDTO {
	return MoneyDTO{Amount: m.String(), Display: generic.FormatSigned(m)}
}

// LineItemDTO is one row of the quote breakdown.
type LineItemDTO struct {
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Category string   `json:"category"`
	Amount   MoneyDTO `json:"amount"`
}

// PetsDTO reports how the pet allowance was applied.
type PetsDTO struct {
	IncludedDogs int `json:"included_dogs"`
	IncludedCats int `json:"included_cats"`
	ExtraDogs    int `json:"extra_dogs"`
	ExtraCats    int `json:"extra_cats"`
}

// WalkPlanDTO is the resolved walk billing.
type WalkPlanDTO struct {
	Billing     string  `json:"billing"`
	WeeklyWalks int     `json:"weekly_walks"`
	Weeks       int     `json:"weeks"`
	TotalWalks  int     `json:"total_walks"`
	BilledWalks float64 `json:"billed_walks"`
	BilledLabel string  `json:"billed_label"`
}

// QuoteDTO is a priced selection.
type QuoteDTO struct {
	Product        string        `json:"product"`
	TariffVersion  string        `json:"tariff_version"`
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	Days           int           `json:"days"`
	Quantity       string        `json:"quantity"`
	Walks          *WalkPlanDTO  `json:"walks,omitempty"`
	PeakApplied    bool          `json:"peak_applied"`
	PeakMultiplier float64       `json:"peak_multiplier"`
	Note           string        `json:"note"`
	Pets           PetsDTO       `json:"pets"`
	Base           MoneyDTO      `json:"base"`
	AddOns         MoneyDTO      `json:"add_ons"`
	OneTime        MoneyDTO      `json:"one_time"`
	Discount       MoneyDTO      `json:"discount"`
	Total          MoneyDTO      `json:"total"`
	Deposit        MoneyDTO      `json:"deposit"`
	Balance        MoneyDTO      `json:"balance"`
	LineItems      []LineItemDTO `json:"line_items"`
	Cached         bool          `json:"cached"`
}

func toQuoteDTO(q pricing.Quote, cached bool) QuoteDTO {
	dto := QuoteDTO{
		Product:        string(q.Product),
		TariffVersion:  q.TariffVersion,
		StartDate:      q.Period.Start.String(),
		EndDate:        q.Period.End.String(),
		Days:           q.Days,
		Quantity:       q.Quantity(),
		PeakApplied:    q.PeakApplied,
		PeakMultiplier: q.PeakMultiplier,
		Note:           q.Note,
		Pets: PetsDTO{
			IncludedDogs: q.Pets.IncludedDogs,
			IncludedCats: q.Pets.IncludedCats,
			ExtraDogs:    q.Pets.ExtraDogs,
			ExtraCats:    q.Pets.ExtraCats,
		},
		Base:      toMoneyDTO(q.Base),
		AddOns:    toMoneyDTO(q.AddOns),
		OneTime:   toMoneyDTO(q.OneTime),
		Discount:  toMoneyDTO(q.Discount),
		Total:     toMoneyDTO(q.Total),
		Deposit:   toMoneyDTO(q.Deposit),
		Balance:   toMoneyDTO(q.Balance),
		LineItems: make([]LineItemDTO, len(q.LineItems)),
		Cached:    cached,
	}
	if q.Walks != nil {
		dto.Walks = &WalkPlanDTO{
			Billing:     string(q.Walks.Billing),
			WeeklyWalks: q.Walks.WeeklyWalks,
			Weeks:       q.Walks.Weeks,
			TotalWalks:  q.Walks.TotalWalks,
			BilledWalks: q.Walks.BilledWalks,
			BilledLabel: q.Walks.BilledLabel(),
		}
	}
	for i, li := range q.LineItems {
		dto.LineItems[i] = LineItemDTO{
			Title:    li.Title,
			Detail:   li.Detail,
			Category: string(li.Category),
			Amount:   toMoneyDTO(li.Amount),
		}
	}
	return dto
}

// =============================================================================
// TARIFF
// =============================================================================

// IgnoredKeyDTO is one override the merge refused.
type IgnoredKeyDTO struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Reason string `json:"reason"`
}

// MergeResponse is returned by the tariff write endpoints. Changed is false
// when the payload left every value as it was; no version is created then.
type MergeResponse struct {
	Tariff    factory.TariffJSON `json:"tariff"`
	Applied   []string           `json:"applied"`
	Ignored   []IgnoredKeyDTO    `json:"ignored"`
	Changed   bool               `json:"changed"`
	Persisted bool               `json:"persisted"`
}

func toMergeResponse(t factory.TariffJSON, report pricing.MergeReport, changed, persisted bool) MergeResponse {
	resp := MergeResponse{
		Tariff:    t,
		Applied:   append([]string{}, report.Applied...),
		Ignored:   make([]IgnoredKeyDTO, len(report.Ignored)),
		Changed:   changed,
		Persisted: persisted,
	}
	for i, e := range report.Ignored {
		resp.Ignored[i] = IgnoredKeyDTO{Key: e.Key, Value: e.Value, Reason: e.Reason}
	}
	return resp
}

// RefreshRunDTO represents a remote pricing pull.
type RefreshRunDTO struct {
	ID          string  `json:"id"`
	SourceURL   string  `json:"source_url"`
	Status      string  `json:"status"`
	Applied     int     `json:"applied"`
	Ignored     int     `json:"ignored"`
	Version     string  `json:"version,omitempty"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

func toRefreshRunDTO(r sqlite.RefreshRun) RefreshRunDTO {
	dto := RefreshRunDTO{
		ID:        r.ID,
		SourceURL: r.SourceURL,
		Status:    r.Status,
		Applied:   r.Applied,
		Ignored:   r.Ignored,
		Version:   r.Version,
		Error:     r.Error,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}

// PresetDTO is a named override payload.
type PresetDTO struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Overrides   map[string]any `json:"overrides"`
}

// =============================================================================
// BOOKING
// =============================================================================

// CustomerDTO is the contact block of a booking.
type CustomerDTO struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// SitterDTO identifies the chosen sitter.
type SitterDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookingRequestDTO is the body of POST /api/bookings.
type BookingRequestDTO struct {
	Customer   CustomerDTO `json:"customer"`
	Sitter     SitterDTO   `json:"sitter"`
	TimeWindow string      `json:"time_window"`
	Selection  FormRequest `json:"selection"`
}

func (r BookingRequestDTO) toDomain() pricing.BookingRequest {
	return pricing.BookingRequest{
		Customer: pricing.Customer{
			Name:    r.Customer.Name,
			Phone:   r.Customer.Phone,
			Email:   r.Customer.Email,
			Address: r.Customer.Address,
			Notes:   r.Customer.Notes,
		},
		Sitter:     pricing.Sitter{ID: r.Sitter.ID, Name: r.Sitter.Name},
		Selection:  pricing.ParseForm(r.Selection.FormValues()),
		TimeWindow: r.TimeWindow,
	}
}

// BookingResponse acknowledges a hand-off.
type BookingResponse struct {
	BookingID     string   `json:"booking_id"`
	CreatedAt     string   `json:"created_at"`
	TariffVersion string   `json:"tariff_version"`
	Total         MoneyDTO `json:"total"`
	Deposit       MoneyDTO `json:"deposit"`
	Balance       MoneyDTO `json:"balance"`
	Summary       string   `json:"summary"`
	Quote         QuoteDTO `json:"quote"`
}

// SummaryRequest is the body of POST /api/quotes/summary.
type SummaryRequest struct {
	Selection  FormRequest `json:"selection"`
	SitterName string      `json:"sitter_name"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Form        FormRequest    `json:"form"`
	Overrides   map[string]any `json:"overrides,omitempty"`
}

// ScenarioResultDTO is a scenario priced against the installed tariff.
type ScenarioResultDTO struct {
	Scenario ScenarioDTO `json:"scenario"`
	Quote    QuoteDTO    `json:"quote"`
}

// =============================================================================
// MISC
// =============================================================================

// HealthDTO is returned by GET /api/health.
type HealthDTO struct {
	Status        string            `json:"status"`
	TariffVersion string            `json:"tariff_version"`
	TariffSource  string            `json:"tariff_source"`
	Checks        map[string]string `json:"checks"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
