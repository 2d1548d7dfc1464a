package budget

import (
	"github.com/shopspring/decimal"

	"finflow/internal/core"
)

// Grade is an advisory letter for the expense/income ratio.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

var gradeBands = []struct {
	max   decimal.Decimal
	grade Grade
}{
	{decimal.RequireFromString("0.5"), GradeA},
	{decimal.RequireFromString("0.7"), GradeB},
	{decimal.RequireFromString("0.85"), GradeC},
	{decimal.RequireFromString("1.0"), GradeD},
}

// HealthGrade grades expense/income. With zero income any expense is an E.
func HealthGrade(income, expense int64) Grade {
	if income <= 0 {
		if expense <= 0 {
			return GradeA
		}
		return GradeE
	}
	ratio := decimal.NewFromInt(expense).Div(decimal.NewFromInt(income))
	for _, band := range gradeBands {
		if ratio.LessThanOrEqual(band.max) {
			return band.grade
		}
	}
	return GradeE
}

// RecommendedShares returns a suggested wallet layout for a grade. Weaker
// grades push more income into essentials and savings.
func RecommendedShares(g Grade) []core.Wallet {
	switch g {
	case GradeA, GradeB:
		return []core.Wallet{
			{Name: "Needs", PercentShare: 50},
			{Name: "Wants", PercentShare: 30},
			{Name: "Savings", PercentShare: 20},
		}
	case GradeC:
		return []core.Wallet{
			{Name: "Needs", PercentShare: 55},
			{Name: "Wants", PercentShare: 20},
			{Name: "Savings", PercentShare: 25},
		}
	default:
		return []core.Wallet{
			{Name: "Needs", PercentShare: 60},
			{Name: "Wants", PercentShare: 10},
			{Name: "Savings", PercentShare: 30},
		}
	}
}
