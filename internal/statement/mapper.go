package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRowRejected marks a row that could not become a canonical transaction.
var ErrRowRejected = errors.New("row rejected")

// RowError describes why one row did not make it into storage. Err is ErrRowRejected for
// mapping problems and something else (a storage failure) otherwise.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Reason) }

func (e *RowError) Unwrap() error { return e.Err }

func rejectf(line int, format string, args ...any) *RowError {
	return &RowError{Line: line, Reason: fmt.Sprintf(format, args...), Err: ErrRowRejected}
}

// Date is a calendar date with no time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// fallbackLayouts are tried after a format's own layouts.
var fallbackLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-06",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
}

// CanonicalTransaction is one statement row in institution-agnostic form. Amount keeps the
// source's sign.
type CanonicalTransaction struct {
	Line           int
	Date           Date
	Amount         decimal.Decimal
	Description    string
	RawCategory    string
	RawSubcategory string
	RawType        string
	Account        string
}

// Map converts one row. account overrides the format's default account label. A rejected row
// yields a *RowError wrapping ErrRowRejected.
func Map(f Format, row RawRow, line int, account string) (CanonicalTransaction, error) {
	tx := CanonicalTransaction{
		Line:           line,
		Description:    row.Get(f.Fields.Description),
		RawType:        optional(row, f.Fields.Type),
		RawSubcategory: optional(row, f.Fields.Subcategory),
		Account:        strings.TrimSpace(account),
	}
	if tx.Account == "" {
		tx.Account = f.Account
	}
	if tx.Account == "" {
		return CanonicalTransaction{}, rejectf(line, "no account for row")
	}

	rawDate := row.Get(f.Fields.Date)
	if rawDate == "" {
		return CanonicalTransaction{}, rejectf(line, "missing %s", f.Fields.Date)
	}
	date, err := ParseDate(rawDate, f.DateLayouts...)
	if err != nil {
		return CanonicalTransaction{}, rejectf(line, "%s: %v", f.Fields.Date, err)
	}
	tx.Date = date

	rawAmount := row.Get(f.Fields.Amount)
	if rawAmount == "" {
		return CanonicalTransaction{}, rejectf(line, "missing %s", f.Fields.Amount)
	}
	amt, err := ParseAmount(rawAmount)
	if err != nil {
		return CanonicalTransaction{}, rejectf(line, "%s: %v", f.Fields.Amount, err)
	}
	tx.Amount = amt

	if tx.Description == "" {
		return CanonicalTransaction{}, rejectf(line, "missing %s", f.Fields.Description)
	}

	tx.RawCategory = optional(row, f.Fields.Category)
	if tx.RawCategory == "" && f.CategoryFromType {
		tx.RawCategory = tx.RawType
	}
	if tx.RawCategory == "" {
		tx.RawCategory = f.CategoryFallback
	}
	return tx, nil
}

func optional(row RawRow, column string) string {
	if column == "" {
		return ""
	}
	return row.Get(column)
}

// Amounts carry at most this many integer and fractional digits, which keeps every accepted value
// representable in int64 cents.
const (
	maxAmountIntDigits  = 15
	maxAmountFracDigits = 8
)

// ParseAmount accepts plain decimals plus currency symbols, thousands separators and accounting
// parentheses for negatives. Exponent notation is rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	intPart, fracPart, ok := splitAmount(s)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	if len(strings.TrimLeft(intPart, "0")) > maxAmountIntDigits || len(fracPart) > maxAmountFracDigits {
		return decimal.Decimal{}, fmt.Errorf("amount out of range %q", raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	if neg {
		d = d.Abs().Neg()
	}
	return d, nil
}

// splitAmount checks s against [-]digits[.digits] and returns the digit runs either side of the
// point.
func splitAmount(s string) (intPart, fracPart string, ok bool) {
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ = strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return "", "", false
	}
	for _, part := range []string{intPart, fracPart} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return "", "", false
			}
		}
	}
	return intPart, fracPart, true
}

// ParseDate tries layouts in order, then the shared fallbacks.
func ParseDate(raw string, layouts ...string) (Date, error) {
	s := strings.TrimSpace(raw)
	for _, l := range append(append([]string(nil), layouts...), fallbackLayouts...) {
		if t, err := time.Parse(l, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", raw)
}

// Cents returns |amount| in integer cents, rounding half away from zero.
func Cents(amount decimal.Decimal) int64 {
	return amount.Abs().Shift(2).Round(0).IntPart()
}
