/*
Package factory provides JSON to Go tariff conversion.

PURPOSE:
  Decodes pricing payloads into the flat key/value overrides that
  pricing.Tariff.WithOverrides understands, and ships a few named presets
  so a tariff can be reconfigured without code changes.

PAYLOAD SHAPES:
  Envelope, as the pricing sheet endpoint answers:
    {"ok": true, "pricing": {"BASE_NIGHT": 200, "TRAVEL_WR": "30"}}

  Flat, as an admin PUT sends it:
    {"BASE_NIGHT": 200, "TRAVEL_WR": "30"}

  An envelope with "ok": false is an error; its "error" text is kept.
  Numbers are decoded as json.Number so no precision is lost before the
  merge parses them.

USAGE:
  f := factory.NewTariffFactory()
  payload, err := f.ParsePayload(body)
  tariff, report, changed := book.Merge(payload, pricing.SourceManual)

SEE ALSO:
  - pricing/tariff.go: WithOverrides, the fail-soft merge
  - source/http.go: remote pricing fetch
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TariffJSON is the outward representation of a snapshot.
type TariffJSON struct {
	Version     string             `json:"version"`
	Source      string             `json:"source"`
	InstalledAt string             `json:"installed_at"`
	Values      map[string]float64 `json:"values"`
}

// =============================================================================
// TARIFF FACTORY
// =============================================================================

// TariffFactory converts JSON payloads to override maps.
type TariffFactory struct{}

// NewTariffFactory creates a new tariff factory.
func NewTariffFactory() *TariffFactory {
	return &TariffFactory{}
}

// ParsePayload decodes either payload shape into a flat override map. Values
// are not validated here; that is the merge's job.
func (f *TariffFactory) ParsePayload(data []byte) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrInvalidPayload, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty object", generic.ErrInvalidPayload)
	}

	if !isEnvelope(raw) {
		return raw, nil
	}

	if ok, isBool := raw["ok"].(bool); isBool && !ok {
		msg, _ := raw["error"].(string)
		if msg == "" {
			msg = "pricing source reported failure"
		}
		return nil, fmt.Errorf("%w: %s", generic.ErrInvalidPayload, msg)
	}
	pricingMap, ok := raw["pricing"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: pricing is not an object", generic.ErrInvalidPayload)
	}
	return pricingMap, nil
}

// isEnvelope reports whether a decoded object uses the {ok, pricing} shape.
// Tariff keys are upper case, so a lower-case "ok" or "pricing" cannot clash.
func isEnvelope(raw map[string]any) bool {
	_, hasOK := raw["ok"]
	_, hasPricing := raw["pricing"]
	return hasOK || hasPricing
}

// ToJSON renders a snapshot for the API and the history store.
func (f *TariffFactory) ToJSON(t pricing.Tariff) TariffJSON {
	return TariffJSON{
		Version:     t.Version(),
		Source:      string(t.Source()),
		InstalledAt: t.InstalledAt().Format(time.RFC3339),
		Values:      t.Values(),
	}
}

// =============================================================================
// PRESETS
// =============================================================================

// Preset is a named override payload.
type Preset struct {
	ID          string
	Description string
	Overrides   map[string]any
}

var presets = map[string]Preset{
	"standard": {
		ID:          "standard",
		Description: "Built-in rates, no overrides",
		Overrides:   map[string]any{},
	},
	"holiday": {
		ID:          "holiday",
		Description: "Steeper peak multiplier and a higher daily cap for school holidays",
		Overrides: map[string]any{
			"PEAK_MULTIPLIER": 1.3,
			"MAX_DAILY_CAP":   750,
		},
	},
	"uncapped": {
		ID:          "uncapped",
		Description: "No daily cap",
		Overrides: map[string]any{
			"MAX_DAILY_CAP": 0,
		},
	},
	"gentle-discount": {
		ID:          "gentle-discount",
		Description: "Long-stay discount in 7 day blocks at 5% per block, up to 3 blocks",
		Overrides: map[string]any{
			"DISCOUNT_BLOCK_DAYS": 7,
			"DISCOUNT_FACTOR":     0.95,
			"DISCOUNT_CAP_BLOCKS": 3,
		},
	},
}

// Preset returns a named preset.
func (f *TariffFactory) Preset(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}

// Presets lists every preset sorted by ID.
func (f *TariffFactory) Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FromPreset builds a snapshot from the defaults plus a preset.
func (f *TariffFactory) FromPreset(id string) (pricing.Tariff, error) {
	p, ok := presets[id]
	if !ok {
		return pricing.Tariff{}, fmt.Errorf("preset %q: %w", id, generic.ErrTariffNotFound)
	}
	t, _ := pricing.DefaultTariff().WithOverrides(p.Overrides, pricing.SourceManual)
	return t, nil
}
