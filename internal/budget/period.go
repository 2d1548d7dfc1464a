package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"finflow/internal/core"
)

// Period is an inclusive range of days.
type Period struct {
	Start core.Date
	End   core.Date
}

func (p Period) Contains(d core.Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// PeriodFor returns the budget cycle window containing ref. Weekly cycles
// run seven days from the start date's weekday. Monthly cycles begin on the
// start date's day of month, clamped to shorter months.
func PeriodFor(b core.Budget, ref core.Date) Period {
	if b.Cycle == core.Weekly {
		offset := b.StartDate.DaysUntil(ref) % 7
		if offset < 0 {
			offset += 7
		}
		start := ref.AddDays(-offset)
		return Period{Start: start, End: start.AddDays(6)}
	}

	anchor := b.StartDate.Day()
	start := monthAnchor(ref.Year(), ref.Month(), anchor)
	if start.After(ref.Time) {
		start = monthAnchor(ref.Year(), ref.Month()-1, anchor)
	}
	next := monthAnchor(start.Year(), start.Month()+1, anchor)
	return Period{Start: start, End: next.AddDays(-1)}
}

func monthAnchor(year int, month time.Month, day int) core.Date {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

// IncomeForPeriod returns the income figure limits are computed from: the
// monthly override when set (scaled by 12/52 for weekly cycles), otherwise
// the recorded income for the period.
func IncomeForPeriod(b core.Budget, recorded int64) int64 {
	if b.MonthlyIncomeOverride == nil {
		return recorded
	}
	override := *b.MonthlyIncomeOverride
	if b.Cycle == core.Weekly {
		return decimal.NewFromInt(override).Mul(decimal.NewFromInt(12)).Div(decimal.NewFromInt(52)).Round(0).IntPart()
	}
	return override
}
