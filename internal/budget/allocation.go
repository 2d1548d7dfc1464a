// Package budget implements percentage-based wallet allocation: limits per
// wallet from income, spend per wallet from mapped categories, and the
// advisory health grade.
package budget

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"finflow/internal/core"
)

var ErrAllocationNot100 = errors.New("wallet shares must sum to 100")

var hundred = decimal.NewFromInt(100)

// WalletProgress is the derived state of one wallet for a period.
type WalletProgress struct {
	Wallet  core.Wallet
	Limit   int64
	Spend   int64
	UsedPct float64
}

// ValidateAllocation returns nil iff the shares sum to exactly 100.
// Shares are never normalized.
func ValidateAllocation(wallets []core.Wallet) error {
	sum := 0
	for _, w := range wallets {
		sum += w.PercentShare
	}
	if sum != 100 {
		return fmt.Errorf("%w: got %d", ErrAllocationNot100, sum)
	}
	return nil
}

func ValidAllocation(wallets []core.Wallet) bool {
	return ValidateAllocation(wallets) == nil
}

// ComputeWalletLimits returns round(share/100 * income) per wallet, aligned
// with wallets. Non-positive income yields zero limits.
func ComputeWalletLimits(wallets []core.Wallet, income int64) []int64 {
	limits := make([]int64, len(wallets))
	if income <= 0 {
		return limits
	}
	total := decimal.NewFromInt(income)
	for i, w := range wallets {
		limits[i] = total.Mul(decimal.NewFromInt(int64(w.PercentShare))).Div(hundred).Round(0).IntPart()
	}
	return limits
}

// ComputeWalletSpend sums expense transactions dated within [start, end] in
// the budget currency, keyed by wallet name. Transactions whose category has
// no wallet mapping are ignored.
func ComputeWalletSpend(b core.Budget, txs []core.Transaction, start, end core.Date) map[string]int64 {
	spend := make(map[string]int64, len(b.Wallets))
	for _, t := range txs {
		if t.Type != core.Expense || t.Amount.Currency != b.Currency {
			continue
		}
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}
		if w, ok := b.WalletFor(t.Category); ok {
			spend[w.Name] += t.Amount.Value
		}
	}
	return spend
}

// SpendFromCategoryTotals folds per-category expense sums into wallets.
func SpendFromCategoryTotals(b core.Budget, totals map[string]int64) map[string]int64 {
	spend := make(map[string]int64, len(b.Wallets))
	for cat, amount := range totals {
		if w, ok := b.WalletFor(cat); ok {
			spend[w.Name] += amount
		}
	}
	return spend
}

// ComputeWalletProgress combines limits and spend for every wallet of b.
func ComputeWalletProgress(b core.Budget, income int64, spend map[string]int64) []WalletProgress {
	limits := ComputeWalletLimits(b.Wallets, income)
	out := make([]WalletProgress, len(b.Wallets))
	for i, w := range b.Wallets {
		out[i] = WalletProgress{
			Wallet:  w,
			Limit:   limits[i],
			Spend:   spend[w.Name],
			UsedPct: UsedPercent(spend[w.Name], limits[i]),
		}
	}
	return out
}

// UsedPercent is spend/limit*100, or 0 when limit is not positive.
func UsedPercent(spend, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(spend).Mul(hundred).Div(decimal.NewFromInt(limit)).Float64()
	return pct
}
