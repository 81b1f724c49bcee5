/*
errors.go - Centralized error types for the quote service

PURPOSE:
  All error types in one place for consistency and discoverability.
  The pricing engine itself never fails: bad input is clamped or defaulted.
  These errors exist at the service boundary (tariff installs, booking
  hand-off, cache and store access).

ERROR CATEGORIES:
  1. Tariff errors - Rejected override keys, missing or duplicate snapshots
  2. Booking errors - Incomplete submissions
  3. Infrastructure errors - Publish and cache failures

USAGE:
  if generic.IsClientError(err) {
      // 400
  }

SEE ALSO:
  - pricing/tariff.go: Produces OverrideError
  - pricing/booking.go: Produces MissingFieldError
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTariffNotFound is returned when no persisted tariff snapshot exists.
	ErrTariffNotFound = errors.New("tariff not found")

	// ErrDuplicateVersion is returned when a tariff version is saved twice.
	ErrDuplicateVersion = errors.New("tariff version already stored")

	// ErrInvalidOverride is returned for a tariff key whose value cannot be used.
	ErrInvalidOverride = errors.New("invalid tariff override")

	// ErrUnknownOverride is returned for a tariff key the engine does not know.
	ErrUnknownOverride = errors.New("unknown tariff key")

	// ErrInvalidPayload is returned when a request body cannot be decoded at all.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrIncompleteBooking is returned when a booking submission lacks required fields.
	ErrIncompleteBooking = errors.New("incomplete booking")

	// ErrScenarioNotFound is returned for an unknown demo scenario id.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrPublishFailed is returned when a booking snapshot cannot be handed off.
	ErrPublishFailed = errors.New("publish failed")

	// ErrCacheMiss is returned by the quote cache when nothing is stored under a key.
	ErrCacheMiss = errors.New("cache miss")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverrideError describes one tariff key that was ignored during a merge.
type OverrideError struct {
	Key    string
	Value  any
	Reason string
	cause  error
}

func NewOverrideError(key string, value any, reason string, cause error) *OverrideError {
	return &OverrideError{Key: key, Value: value, Reason: reason, cause: cause}
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("tariff key %s ignored (%v): %s", e.Key, e.Value, e.Reason)
}

func (e *OverrideError) Unwrap() error {
	return e.cause
}

// MissingFieldError lists the fields a booking submission is missing.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("booking is missing required fields: %v", e.Fields)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrIncompleteBooking
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIncompleteBooking) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrInvalidOverride) ||
		errors.Is(err, ErrUnknownOverride)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTariffNotFound) ||
		errors.Is(err, ErrScenarioNotFound) ||
		errors.Is(err, ErrCacheMiss)
}
