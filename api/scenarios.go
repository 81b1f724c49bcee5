/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:

	Provides named booking form states that exercise specific pricing
	rules. A scenario is priced against the installed tariff; a scenario
	with overrides applies them to a scratch copy, so running one never
	changes what customers are quoted.

AVAILABLE SCENARIOS:

	day-visit:          4 hour day visit, one dog, White River, one day
	long-stay:          the same visit over 12 days (long-stay weighting)
	monthly-walks:      Mon/Wed/Fri walks for two dogs, monthly subscription
	pet-allowance:      two dogs and a cat on one included-pet allowance
	daily-cap:          full day and night over the daily cap in peak season

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/long-stay

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and form state
 2. Add tariff overrides only when the default table cannot show the rule

SEE ALSO:
  - handlers.go: Handler, quote helpers
  - pricing/quote.go: Calculate
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "day-visit",
		Name:        "Day Visit",
		Description: "4 hours at the hourly rate plus White River travel, one dog, one day",
		Form: FormRequest{
			"pkg": "day", "startDate": "2025-03-10", "endDate": "2025-03-10",
			"hours": "4", "zone": "wr", "dogs": "1", "cats": "0",
		},
	},
	{
		ID:          "long-stay",
		Name:        "Long Stay",
		Description: "The day visit over 12 days; days 11 and 12 are weighted by the discount factor",
		Form: FormRequest{
			"pkg": "day", "startDate": "2025-03-01", "endDate": "2025-03-12",
			"hours": "4", "zone": "wr", "dogs": "1", "cats": "0",
		},
	},
	{
		ID:          "monthly-walks",
		Name:        "Monthly Walks",
		Description: "One 30 minute walk for two dogs on Mon/Wed/Fri, billed as 4.3 weeks",
		Form: FormRequest{
			"pkg": "walk", "walkStartDate": "2025-03-03", "walkDays": "mon,wed,fri",
			"walksPerDay": "1", "walkMinutesPerWalk": "30", "walkTravelEstimatePerWalk": "25",
			"walkBillingOption": "monthly_subscription", "dogs": "2",
		},
	},
	{
		ID:          "pet-allowance",
		Name:        "Pet Allowance",
		Description: "Two dogs and a cat: one dog is included, the other dog and the cat are extras",
		Form: FormRequest{
			"pkg": "night", "startDate": "2025-03-10", "endDate": "2025-03-12",
			"zone": "sabie", "dogs": "2", "cats": "1",
		},
	},
	{
		ID:          "daily-cap",
		Name:        "Daily Cap",
		Description: "A full day priced at 800 before peak is held to the 600 daily cap in June",
		Form: FormRequest{
			"pkg": "full", "startDate": "2025-06-10", "endDate": "2025-06-10",
			"zone": "nel", "dogs": "1",
		},
		Overrides: map[string]any{"BASE_FULLDAY": 740, "MAX_DAILY_CAP": 600},
	},
}

func findScenario(id string) (ScenarioDTO, error) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, nil
		}
	}
	return ScenarioDTO{}, fmt.Errorf("scenario %q: %w", id, generic.ErrScenarioNotFound)
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// RunScenario prices a scenario. Overrides apply to a scratch snapshot and
// bypass the quote cache.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	s, err := findScenario(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Scenario not found", err)
		return
	}

	sel := pricing.ParseForm(s.Form.FormValues())

	var (
		q      pricing.Quote
		cached bool
	)
	if len(s.Overrides) > 0 {
		tariff, _ := h.Book.Current().WithOverrides(s.Overrides, pricing.SourceManual)
		q = pricing.Calculate(tariff, sel)
	} else {
		q, cached = h.quote(r.Context(), sel)
	}

	writeJSON(w, http.StatusOK, ScenarioResultDTO{Scenario: s, Quote: toQuoteDTO(q, cached)})
}
