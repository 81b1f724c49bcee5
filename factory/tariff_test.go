package factory_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/petguardian/quote-engine/factory"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_Envelope(t *testing.T) {
	f := factory.NewTariffFactory()

	payload, err := f.ParsePayload([]byte(`{"ok":true,"pricing":{"BASE_NIGHT":220.5,"TRAVEL_WR":"35"}}`))

	require.NoError(t, err)
	assert.Equal(t, json.Number("220.5"), payload["BASE_NIGHT"])
	assert.Equal(t, "35", payload["TRAVEL_WR"])
}

func TestParsePayload_Flat(t *testing.T) {
	f := factory.NewTariffFactory()

	payload, err := f.ParsePayload([]byte(`{"BASE_NIGHT":220,"SOMETHING_NEW":1}`))

	require.NoError(t, err)
	assert.Len(t, payload, 2)

	tariff, report := pricing.DefaultTariff().WithOverrides(payload, pricing.SourceManual)
	assert.Equal(t, []string{"BASE_NIGHT"}, report.Applied)
	assert.Equal(t, 220.0, tariff.Rate(pricing.RateNight))
}

func TestParsePayload_Errors(t *testing.T) {
	f := factory.NewTariffFactory()

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"not json", `{"BASE_NIGHT":`, "invalid payload"},
		{"not an object", `[1,2]`, "invalid payload"},
		{"null", `null`, "empty object"},
		{"source failure", `{"ok":false,"error":"sheet locked"}`, "sheet locked"},
		{"pricing not object", `{"ok":true,"pricing":"x"}`, "pricing is not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParsePayload([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrInvalidPayload))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPresets(t *testing.T) {
	f := factory.NewTariffFactory()

	ids := []string{}
	for _, p := range f.Presets() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"gentle-discount", "holiday", "standard", "uncapped"}, ids)

	holiday, err := f.FromPreset("holiday")
	require.NoError(t, err)
	assert.Equal(t, 1.3, holiday.PeakMultiplier())
	assert.Equal(t, 750.0, holiday.MaxDailyCap())

	_, err = f.FromPreset("nope")
	assert.True(t, generic.IsNotFound(err))
}

func TestToJSON(t *testing.T) {
	f := factory.NewTariffFactory()
	tariff := pricing.DefaultTariff()

	out := f.ToJSON(tariff)

	assert.Equal(t, tariff.Version(), out.Version)
	assert.Equal(t, "default", out.Source)
	assert.Equal(t, 200.0, out.Values["BASE_NIGHT"])
}
