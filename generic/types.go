/*
Package generic provides the domain-agnostic building blocks of the quote engine.

PURPOSE:
  Calendar days, date ranges and money amounts. Nothing in here knows about
  pets, sitters or tariffs; package pricing composes these into quotes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a currency amount backed by decimal.Decimal
  - FormatMoney: the display contract (round half-up, thousands separator)

NUMERIC POLICY:
  Pricing arithmetic runs in float64 and is never rounded early. Money is the
  boundary type: a float result becomes Money once, and from then on sums and
  splits (deposit/balance) are exact decimal operations.

USAGE:
  total := generic.MoneyFromFloat(3186)
  deposit, balance := total.Split(decimal.NewFromFloat(0.5))
  fmt.Println(generic.FormatMoney(total)) // R3,186

SEE ALSO:
  - time.go: TimePoint, DateMath
  - period.go: Period, peak detection
  - errors.go: sentinel and structured errors
*/
package generic

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount
// =============================================================================

// CurrencySymbol prefixes every formatted amount.
var CurrencySymbol = "R"

// Money is a currency amount in whole currency units (fractions allowed).
type Money struct {
	Value decimal.Decimal
}

// MoneyFromFloat converts a float result into Money. Non-finite input becomes zero.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: decimal.NewFromFloat(f)}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func (m Money) Add(b Money) Money             { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money             { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money   { return Money{Value: m.Value.Mul(s)} }
func (m Money) IsNegative() bool              { return m.Value.IsNegative() }
func (m Money) IsZero() bool                  { return m.Value.IsZero() }
func (m Money) Equal(b Money) bool            { return m.Value.Equal(b.Value) }
func (m Money) Float64() float64              { f, _ := m.Value.Float64(); return f }
func (m Money) String() string                { return m.Value.String() }
func (m Money) MarshalJSON() ([]byte, error)  { return m.Value.MarshalJSON() }
func (m *Money) UnmarshalJSON(b []byte) error { return m.Value.UnmarshalJSON(b) }

// Split divides the amount into a share at the given fraction and the rest.
// The rest is derived by subtraction, so share + rest == m exactly.
func (m Money) Split(fraction decimal.Decimal) (share, rest Money) {
	share = m.Mul(fraction)
	rest = m.Sub(share)
	return share, rest
}

// Rounded returns the magnitude rounded half-up to whole currency units.
func (m Money) Rounded() decimal.Decimal {
	return m.Value.Abs().Round(0)
}

// =============================================================================
// MONEY FORMAT
// =============================================================================

// FormatMoney renders the absolute amount rounded to whole units with a comma
// every three digits, e.g. R12,345. Callers prefix "-" for negative amounts.
func FormatMoney(m Money) string {
	return CurrencySymbol + groupThousands(m.Rounded().StringFixed(0))
}

// FormatFloat is FormatMoney for a raw float amount.
func FormatFloat(f float64) string {
	return FormatMoney(MoneyFromFloat(f))
}

// FormatSigned is FormatMoney with a leading "-" for negative amounts.
func FormatSigned(m Money) string {
	if m.IsNegative() && !m.Rounded().IsZero() {
		return "-" + FormatMoney(m)
	}
	return FormatMoney(m)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
