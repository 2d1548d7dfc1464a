// Package ports declares the collaborator contracts the finance core
// consumes: the persistence store and the notification sink.
package ports

import (
	"context"
	"time"

	"finflow/internal/core"
)

// Ports for outbound adapters.
type (
	// ActivityStore backs the habit log.
	ActivityStore interface {
		// RecordActivity bumps the day's count. When the new count is 1 it
		// credits reward in the same atomic step, so a failed call leaves
		// neither the count nor the balance changed. It returns the new count
		// and the balance after the call.
		RecordActivity(ctx context.Context, day core.Date, reward int64) (count int, balance int64, err error)
		// ActivityRange returns entries for days in [from, to]; missing days are omitted.
		ActivityRange(ctx context.Context, from, to core.Date) ([]core.HabitLogEntry, error)
	}

	// LedgerStore persists confirmed transactions and answers aggregate queries.
	LedgerStore interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (int64, error)
		ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
		// CategoryTotals sums expense amounts per category in [from, to] for one currency.
		CategoryTotals(ctx context.Context, currency string, from, to core.Date) (map[string]int64, error)
		// TypeTotals sums amounts per transaction type in [from, to] for one currency.
		TypeTotals(ctx context.Context, currency string, from, to core.Date) (map[core.TransactionType]int64, error)
		AppendLoan(ctx context.Context, l core.LoanRecord) error
	}

	// BudgetStore reads and writes budgets with their wallets and category mapping.
	BudgetStore interface {
		// SaveBudget stores b as the active budget, assigning IDs, and returns it.
		SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		// ActiveBudget returns core.ErrNoActiveBudget when none is configured.
		ActiveBudget(ctx context.Context) (core.Budget, error)
	}

	// CoinStore tracks the reward balance.
	CoinStore interface {
		CoinBalance(ctx context.Context) (int64, error)
		// AdjustCoins applies a signed delta and returns the new balance.
		AdjustCoins(ctx context.Context, delta int64) (int64, error)
		// Redeem deducts cost and appends the redemption atomically. It returns
		// core.ErrInsufficientCoins without side effects when the balance is short.
		Redeem(ctx context.Context, r core.Redemption) (int64, error)
	}

	// Store is the full persistence collaborator.
	Store interface {
		ActivityStore
		LedgerStore
		BudgetStore
		CoinStore
		Close() error
	}

	// Notifier delivers a (title, body) notification.
	Notifier interface {
		Notify(ctx context.Context, title, body string) error
	}
)

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, title, body string) error

func (f NotifierFunc) Notify(ctx context.Context, title, body string) error {
	return f(ctx, title, body)
}

// Clock returns the current time. Engines accept explicit times; Clock is for
// the outer layers that need to produce them.
type Clock func() time.Time
