// Package period models the fortnightly settlement periods ("quincenas").
// Every trip, settlement and payment in the system is scoped to one period.
package period

import (
	"fmt"
	"time"

	"fletero/internal/core/apperror"
)

// Half identifies which fortnight of the month a period covers.
type Half int

const (
	// FirstHalf covers days 1-15.
	FirstHalf Half = 1
	// SecondHalf covers day 16 through month end.
	SecondHalf Half = 2
)

// Status is the settlement lifecycle state of a period.
type Status string

const (
	// StatusOpen - trips are still being registered/edited.
	StatusOpen Status = "open"
	// StatusLiquidated - settlements computed and approved, not yet paid.
	StatusLiquidated Status = "liquidated"
	// StatusPaid - payment batch exported and confirmed.
	StatusPaid Status = "paid"
)

// Settled reports whether the period participates in statistics rollups.
func (s Status) Settled() bool {
	return s == StatusLiquidated || s == StatusPaid
}

// Period is a (year, month, half) value identifying one quincena.
type Period struct {
	Year  int        `db:"year" json:"year"`
	Month time.Month `db:"month" json:"month"`
	Half  Half       `db:"half" json:"half"`
}

// New creates a Period for the given year, month and half.
func New(year int, month time.Month, half Half) Period {
	return Period{Year: year, Month: month, Half: half}
}

// Validate checks period invariants.
func (p Period) Validate() error {
	if p.Year < 2000 || p.Year > 2100 {
		return apperror.NewValidation("year out of range").
			WithDetail("field", "year").
			WithDetail("value", p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return apperror.NewValidation("invalid month").
			WithDetail("field", "month").
			WithDetail("value", int(p.Month))
	}
	if p.Half != FirstHalf && p.Half != SecondHalf {
		return apperror.NewValidation("half must be 1 or 2").
			WithDetail("field", "half").
			WithDetail("value", int(p.Half))
	}
	return nil
}

// Key returns the unique period key used for settlement upserts,
// e.g. "2026-03-Q1". Lexicographic order matches chronological order.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d-Q%d", p.Year, int(p.Month), p.Half)
}

// ReceiptPrefix returns the compact form used by export receipt numbers,
// e.g. "202603Q1".
func (p Period) ReceiptPrefix() string {
	return fmt.Sprintf("%04d%02dQ%d", p.Year, int(p.Month), p.Half)
}

// Bounds returns the inclusive start and end dates of the fortnight.
func (p Period) Bounds() (time.Time, time.Time) {
	if p.Half == FirstHalf {
		start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(p.Year, p.Month, 15, 0, 0, 0, 0, time.UTC)
	}
	start := time.Date(p.Year, p.Month, 16, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one.
	end := time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

// ParseKey parses a period key produced by Key.
func ParseKey(s string) (Period, error) {
	var p Period
	var month, half int
	if _, err := fmt.Sscanf(s, "%d-%d-Q%d", &p.Year, &month, &half); err != nil {
		return Period{}, apperror.NewValidation("invalid period key").
			WithDetail("value", s)
	}
	p.Month = time.Month(month)
	p.Half = Half(half)
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}
