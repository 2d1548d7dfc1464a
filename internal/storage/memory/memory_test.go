package memory

import (
	"context"
	"errors"
	"testing"

	"finflow/internal/core"
)

func TestMemoryStoreLedgerTotals(t *testing.T) {
	ctx := context.Background()
	s := New()

	add := func(day int, typ core.TransactionType, cat string, v int64, cur string) {
		t.Helper()
		_, err := s.AppendTransaction(ctx, core.Transaction{
			Amount:   core.Money{Value: v, Currency: cur},
			Category: cat,
			Date:     core.NewDate(2025, 1, day),
			Type:     typ,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	add(2, core.Expense, "Food", 100, "VND")
	add(3, core.Expense, "Food", 50, "VND")
	add(3, core.Expense, "Food", 7, "USD")
	add(4, core.Income, "Salary", 1000, "VND")
	add(20, core.Expense, "Fuel", 30, "VND")

	from, to := core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 10)
	cats, _ := s.CategoryTotals(ctx, "VND", from, to)
	if cats["Food"] != 150 || cats["Fuel"] != 0 {
		t.Fatalf("unexpected category totals %v", cats)
	}
	types, _ := s.TypeTotals(ctx, "VND", from, to)
	if types[core.Income] != 1000 || types[core.Expense] != 150 {
		t.Fatalf("unexpected type totals %v", types)
	}
	list, _ := s.ListTransactions(ctx, from, to)
	if len(list) != 4 || list[0].ID != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestMemoryStoreActivity(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := core.NewDate(2025, 1, 15)

	if n, _ := s.IncrementActivity(ctx, day); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	if n, _ := s.IncrementActivity(ctx, day); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	s.IncrementActivity(ctx, day.AddDays(-3))

	entries, _ := s.ActivityRange(ctx, day.AddDays(-1), day)
	if len(entries) != 1 || entries[0].Count != 2 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestMemoryStoreRecordActivityCreditsFirstOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := core.NewDate(2025, 1, 15)

	count, balance, err := s.RecordActivity(ctx, day, 10)
	if err != nil || count != 1 || balance != 10 {
		t.Fatalf("first: count=%d balance=%d err=%v", count, balance, err)
	}
	count, balance, err = s.RecordActivity(ctx, day, 10)
	if err != nil || count != 2 || balance != 10 {
		t.Fatalf("second: count=%d balance=%d err=%v", count, balance, err)
	}
}

func TestMemoryStoreCoinsAndRedeem(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.AdjustCoins(ctx, 60); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if _, err := s.Redeem(ctx, core.Redemption{Code: "x", Cost: 100}); !errors.Is(err, core.ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	bal, err := s.Redeem(ctx, core.Redemption{Code: "y", Cost: 50})
	if err != nil || bal != 10 {
		t.Fatalf("expected balance 10, got %d err=%v", bal, err)
	}
	if len(s.Redemptions()) != 1 {
		t.Fatalf("expected 1 redemption")
	}
}

func TestMemoryStoreBudget(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.ActiveBudget(ctx); !errors.Is(err, core.ErrNoActiveBudget) {
		t.Fatalf("expected ErrNoActiveBudget, got %v", err)
	}
	saved, err := s.SaveBudget(ctx, core.Budget{
		Cycle:           core.Monthly,
		StartDate:       core.NewDate(2025, 1, 1),
		Wallets:         []core.Wallet{{Name: "Needs", PercentShare: 100}},
		CategoryWallets: map[string]string{"Food": "Needs"},
	})
	if err != nil || saved.ID == 0 || saved.Wallets[0].ID == 0 || !saved.Active {
		t.Fatalf("unexpected saved budget %+v err=%v", saved, err)
	}
	got, _ := s.ActiveBudget(ctx)
	if got.ID != saved.ID || got.CategoryWallets["Food"] != "Needs" {
		t.Fatalf("unexpected active budget %+v", got)
	}
}
