// Package projection derives the displayed subset of a cache snapshot. Every
// function here is pure: inputs are never modified and equal inputs give equal
// outputs.
package projection

import (
	"fmt"
	"slices"
	"time"

	"github.com/vbonduro/clawmap/internal/domain"
)

// All is the filter value that selects everything.
const All = "all"

// ByKind keeps the items whose kind equals filter, in their original order.
// All and the empty filter return a copy of items unchanged.
func ByKind[T any](items []T, filter string, kindOf func(T) string) []T {
	if filter == "" || filter == All {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if kindOf(it) == filter {
			out = append(out, it)
		}
	}
	return out
}

func SpotCategory(s domain.Spot) string      { return string(s.Category) }
func ListingType(l domain.HelpListing) string { return string(l.Type) }
func spotEventDate(s domain.Spot) string      { return s.EventDate }

// SpotsView filters spots by category and projects each one for display.
func SpotsView(spots []domain.Spot, filter string) []domain.Spot {
	out := ByKind(spots, filter, SpotCategory)
	for i := range out {
		out[i] = out[i].Projected()
	}
	return out
}

// Month is one calendar month.
type Month struct {
	Year  int
	Month time.Month
}

const monthLayout = "2006-01"

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label is the human form, e.g. "March 2024".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

func (m Month) Next() Month {
	return MonthOf(time.Date(m.Year, m.Month+1, 1, 12, 0, 0, 0, time.UTC))
}

func (m Month) Prev() Month {
	return MonthOf(time.Date(m.Year, m.Month-1, 1, 12, 0, 0, 0, time.UTC))
}

// Contains reports whether t falls in m, judged in t's own location.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// InMonth returns the items dated within m sorted by date ascending, followed
// by every undated item in original order. Dates are local YYYY-MM-DD strings
// read at noon in loc. Items with an unparseable date are dropped.
func InMonth[T any](items []T, m Month, loc *time.Location, dateOf func(T) string) []T {
	type dated struct {
		item T
		at   time.Time
	}
	var inMonth []dated
	var undated []T
	for _, it := range items {
		raw := dateOf(it)
		if raw == "" {
			undated = append(undated, it)
			continue
		}
		at, ok := domain.ParseEventDate(raw, loc)
		if !ok || !m.Contains(at) {
			continue
		}
		inMonth = append(inMonth, dated{item: it, at: at})
	}

	slices.SortStableFunc(inMonth, func(a, b dated) int { return a.at.Compare(b.at) })

	out := make([]T, 0, len(inMonth)+len(undated))
	for _, d := range inMonth {
		out = append(out, d.item)
	}
	return append(out, undated...)
}

// EventsInMonth is InMonth over projected spots, so a stored date on a
// non-meetup spot counts as no date.
func EventsInMonth(spots []domain.Spot, m Month, loc *time.Location) []domain.Spot {
	projected := make([]domain.Spot, len(spots))
	for i, s := range spots {
		projected[i] = s.Projected()
	}
	return InMonth(projected, m, loc, spotEventDate)
}
