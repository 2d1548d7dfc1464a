// Package memory is an in-process implementation of ports.Store used for
// tests and the default "memory" backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"finflow/internal/core"
	"finflow/internal/ports"
)

type Store struct {
	mu          sync.Mutex
	activity    map[core.Date]int
	items       []core.Transaction
	loans       []core.LoanRecord
	budget      *core.Budget
	nextID      int64
	coins       int64
	redemptions []core.Redemption
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{activity: make(map[core.Date]int)}
}

func (s *Store) IncrementActivity(_ context.Context, day core.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[day]++
	return s.activity[day], nil
}

func (s *Store) RecordActivity(_ context.Context, day core.Date, reward int64) (int, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := s.activity[day] + 1
	if count == 1 && s.coins+reward < 0 {
		return s.activity[day], s.coins, core.ErrInsufficientCoins
	}
	s.activity[day] = count
	if count == 1 {
		s.coins += reward
	}
	return count, s.coins, nil
}

func (s *Store) ActivityRange(_ context.Context, from, to core.Date) ([]core.HabitLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.HabitLogEntry
	for day, count := range s.activity {
		if day.Before(from.Time) || day.After(to.Time) {
			continue
		}
		out = append(out, core.HabitLogEntry{Date: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

// AppendTransaction stores the transaction and returns a synthetic ID.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *Store) ListTransactions(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if inRange(t.Date, from, to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) CategoryTotals(_ context.Context, currency string, from, to core.Date) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, t := range s.items {
		if t.Type == core.Expense && t.Amount.Currency == currency && inRange(t.Date, from, to) {
			out[t.Category] += t.Amount.Value
		}
	}
	return out, nil
}

func (s *Store) TypeTotals(_ context.Context, currency string, from, to core.Date) (map[core.TransactionType]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.TransactionType]int64)
	for _, t := range s.items {
		if t.Amount.Currency == currency && inRange(t.Date, from, to) {
			out[t.Type] += t.Amount.Value
		}
	}
	return out, nil
}

func (s *Store) AppendLoan(_ context.Context, l core.LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans = append(s.loans, l)
	return nil
}

// Loans returns the loan ledger.
func (s *Store) Loans() []core.LoanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LoanRecord(nil), s.loans...)
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	b.Active = true
	wallets := make([]core.Wallet, len(b.Wallets))
	for i, w := range b.Wallets {
		s.nextID++
		w.ID = s.nextID
		wallets[i] = w
	}
	b.Wallets = wallets
	mapping := make(map[string]string, len(b.CategoryWallets))
	for k, v := range b.CategoryWallets {
		mapping[k] = v
	}
	b.CategoryWallets = mapping
	s.budget = &b
	return b, nil
}

func (s *Store) ActiveBudget(_ context.Context) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget == nil {
		return core.Budget{}, core.ErrNoActiveBudget
	}
	return *s.budget, nil
}

func (s *Store) CoinBalance(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coins, nil
}

func (s *Store) AdjustCoins(_ context.Context, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coins+delta < 0 {
		return s.coins, core.ErrInsufficientCoins
	}
	s.coins += delta
	return s.coins, nil
}

func (s *Store) Redeem(_ context.Context, r core.Redemption) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coins < r.Cost {
		return s.coins, core.ErrInsufficientCoins
	}
	s.coins -= r.Cost
	s.redemptions = append(s.redemptions, r)
	return s.coins, nil
}

// Redemptions returns recorded redemptions.
func (s *Store) Redemptions() []core.Redemption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Redemption(nil), s.redemptions...)
}

func (s *Store) Close() error { return nil }

func inRange(d, from, to core.Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}
