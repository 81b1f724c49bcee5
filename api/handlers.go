/*
handlers.go - HTTP API handlers for the quote engine

PURPOSE:
  Exposes the pricing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to package pricing. Quotes are always
  computed server-side from the installed tariff snapshot.

ENDPOINTS:
  Health:
    GET    /api/health                  Liveness, installed tariff, collaborators

  Tariff:
    GET    /api/tariff                  Installed snapshot
    PUT    /api/tariff                  Merge overrides (fail-soft) and install
    POST   /api/tariff/reset            Install the built-in table
    GET    /api/tariff/history          Persisted snapshots, newest first
    GET    /api/tariff/presets          Named override payloads
    POST   /api/tariff/presets/{id}     Install defaults plus a preset
    POST   /api/tariff/refresh          Pull the remote pricing source now
    GET    /api/tariff/refresh-runs     Remote pull audit trail

  Quotes:
    POST   /api/quotes                  Price form state (JSON body)
    GET    /api/quotes?pkg=...          Price form state (query string)
    POST   /api/quotes/summary          Plain-text quote for copying

  Bookings:
    POST   /api/bookings                Validate, re-price, hand off (202)

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/{id}          Price a scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: tariff history and refresh runs
  - Book: the installed tariff snapshot
  - Cache: optional quote memoization
  - Publisher: booking hand-off

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, incomplete booking
  - 404: Unknown scenario or preset
  - 502: Booking could not be handed off
  - 500: Internal errors
  Quote requests never fail on content: bad fields take form defaults.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - scheduler.go: Remote tariff refresher
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/petguardian/quote-engine/cache"
	"github.com/petguardian/quote-engine/events"
	"github.com/petguardian/quote-engine/factory"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/logger"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/petguardian/quote-engine/store/sqlite"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	Book          *pricing.TariffBook
	TariffFactory *factory.TariffFactory
	Publisher     events.Publisher

	// Optional collaborators, nil when disabled.
	Cache     *cache.QuoteCache
	Refresher *TariffRefresher

	// DefaultOverrides are applied on top of the built-in table whenever the
	// defaults are (re)installed, e.g. DEPOSIT_PERCENT from the environment.
	DefaultOverrides map[string]any

	log *logger.Logger
	now func() time.Time
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, book *pricing.TariffBook, publisher events.Publisher, log *logger.Logger) *Handler {
	return &Handler{
		Store:         store,
		Book:          book,
		TariffFactory: factory.NewTariffFactory(),
		Publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

// DefaultTariff is the built-in table with DefaultOverrides applied.
func (h *Handler) DefaultTariff() pricing.Tariff {
	t := pricing.DefaultTariff()
	if len(h.DefaultOverrides) == 0 {
		return t
	}
	t, report := t.WithOverrides(h.DefaultOverrides, pricing.SourceDefault)
	for _, ig := range report.Ignored {
		h.log.WithError(ig).Warn("Default override ignored")
	}
	return t
}

// InstallTariff installs t and persists it. The snapshot stays installed
// when persistence fails; the bool reports whether it was stored.
func (h *Handler) InstallTariff(ctx context.Context, t pricing.Tariff) bool {
	h.Book.Install(t)
	return h.recordTariff(ctx, t)
}

// recordTariff persists an already installed snapshot and drops cached
// quotes of older versions.
func (h *Handler) recordTariff(ctx context.Context, t pricing.Tariff) bool {
	log := h.log.WithField("version", t.Version()).WithField("source", string(t.Source()))

	persisted := true
	if err := h.Store.SaveTariff(ctx, t.Record()); err != nil {
		log.WithError(err).Error("Failed to persist tariff")
		persisted = false
	}

	if h.Cache != nil {
		if _, err := h.Cache.PurgeExcept(ctx, t.Version()); err != nil {
			log.WithError(err).Warn("Failed to purge stale quotes")
		}
	}

	log.Info("Tariff installed")
	return persisted
}

// quote prices sel against the installed tariff, through the cache when one
// is configured.
func (h *Handler) quote(ctx context.Context, sel pricing.BookingSelection) (pricing.Quote, bool) {
	t := h.Book.Current()
	if h.Cache != nil {
		return h.Cache.Quote(ctx, t, sel)
	}
	return pricing.Calculate(t, sel), false
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness and the state of each collaborator.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	t := h.Book.Current()
	resp := HealthDTO{
		Status:        "ok",
		TariffVersion: t.Version(),
		TariffSource:  string(t.Source()),
		Checks:        map[string]string{},
	}
	status := http.StatusOK

	if err := h.Store.Ping(r.Context()); err != nil {
		resp.Checks["database"] = err.Error()
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "ok"
	}

	switch {
	case h.Cache == nil:
		resp.Checks["cache"] = "disabled"
	case h.Cache.Health(r.Context()) != nil:
		// Quotes are still served without the cache.
		resp.Checks["cache"] = "unavailable"
	default:
		resp.Checks["cache"] = "ok"
	}

	if h.Refresher == nil {
		resp.Checks["pricing_source"] = "disabled"
	} else {
		resp.Checks["pricing_source"] = h.Refresher.LastStatus()
	}

	writeJSON(w, status, resp)
}

// =============================================================================
// TARIFF HANDLERS
// =============================================================================

// GetTariff returns the installed snapshot.
func (h *Handler) GetTariff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.TariffFactory.ToJSON(h.Book.Current()))
}

// UpdateTariff merges an override payload onto the installed snapshot.
// Unknown and invalid keys are reported, never fatal. A payload that changes
// nothing creates no version.
func (h *Handler) UpdateTariff(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	payload, err := h.TariffFactory.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tariff payload", err)
		return
	}

	tariff, report, changed := h.Book.Merge(payload, pricing.SourceManual)
	persisted := false
	if changed {
		persisted = h.recordTariff(r.Context(), tariff)
	}

	writeJSON(w, http.StatusOK, toMergeResponse(h.TariffFactory.ToJSON(tariff), report, changed, persisted))
}

// ResetTariff installs the built-in table.
func (h *Handler) ResetTariff(w http.ResponseWriter, r *http.Request) {
	tariff := h.DefaultTariff()
	persisted := h.InstallTariff(r.Context(), tariff)

	writeJSON(w, http.StatusOK, toMergeResponse(h.TariffFactory.ToJSON(tariff), pricing.MergeReport{}, true, persisted))
}

// ListTariffHistory returns persisted snapshots, newest first.
func (h *Handler) ListTariffHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	records, err := h.Store.ListTariffs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tariffs", err)
		return
	}

	dtos := make([]factory.TariffJSON, len(records))
	for i, rec := range records {
		dtos[i] = h.TariffFactory.ToJSON(pricing.FromRecord(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPresets returns the named override payloads.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.TariffFactory.Presets()
	dtos := make([]PresetDTO, len(presets))
	for i, p := range presets {
		dtos[i] = PresetDTO{ID: p.ID, Description: p.Description, Overrides: p.Overrides}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApplyPreset installs the defaults plus a named preset.
func (h *Handler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tariff, err := h.TariffFactory.FromPreset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Preset not found", err)
		return
	}
	persisted := h.InstallTariff(r.Context(), tariff)

	writeJSON(w, http.StatusOK, toMergeResponse(h.TariffFactory.ToJSON(tariff), pricing.MergeReport{}, true, persisted))
}

// TriggerRefresh pulls the remote pricing source immediately.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "No pricing source configured", nil)
		return
	}

	run := h.Refresher.RunNow(r.Context())
	writeJSON(w, http.StatusOK, toRefreshRunDTO(run))
}

// ListRefreshRuns returns the remote pull audit trail.
func (h *Handler) ListRefreshRuns(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := queryInt(r, "limit", 50)

	runs, err := h.Store.GetRefreshRuns(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list refresh runs", err)
		return
	}

	dtos := make([]RefreshRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRefreshRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// CreateQuote prices form state sent as a JSON object.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var form FormRequest
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	q, cached := h.quote(r.Context(), pricing.ParseForm(form.FormValues()))
	writeJSON(w, http.StatusOK, toQuoteDTO(q, cached))
}

// GetQuote prices form state sent as query parameters. Repeated parameters
// ("addons=meds&addons=bath") are joined like a list.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	values := make(pricing.FormValues)
	for k, vs := range r.URL.Query() {
		values[k] = strings.Join(vs, ",")
	}

	q, cached := h.quote(r.Context(), pricing.ParseForm(values))
	writeJSON(w, http.StatusOK, toQuoteDTO(q, cached))
}

// QuoteSummary returns the plain-text quote.
func (h *Handler) QuoteSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sel := pricing.ParseForm(req.Selection.FormValues())
	q, _ := h.quote(r.Context(), sel)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, pricing.Summary(sel, q, req.SitterName))
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// SubmitBooking validates a booking, re-prices it and hands it off. Nothing
// is stored here.
func (h *Handler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req BookingRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, q, err := pricing.NewBookingSnapshot(req.toDomain(), h.Book.Current(), h.now())
	if err != nil {
		writeError(w, statusFor(err), "Booking rejected", err)
		return
	}

	if err := h.Publisher.PublishBooking(r.Context(), snap); err != nil {
		writeError(w, statusFor(err), "Failed to submit booking", err)
		return
	}

	h.log.WithField("booking_id", snap.ID).WithField("total", snap.Total.String()).Info("Booking submitted")

	writeJSON(w, http.StatusAccepted, BookingResponse{
		BookingID:     snap.ID,
		CreatedAt:     snap.CreatedAt.Format(time.RFC3339),
		TariffVersion: snap.TariffVersion,
		Total:         toMoneyDTO(snap.Total),
		Deposit:       toMoneyDTO(snap.Deposit),
		Balance:       toMoneyDTO(snap.Balance),
		Summary:       pricing.Summary(snap.Selection, q, snap.Sitter.Name),
		Quote:         toQuoteDTO(q, false),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrPublishFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
