package budget

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/storage/memory"
)

func wallets(shares ...int) []core.Wallet {
	names := []string{"Needs", "Wants", "Savings", "Fun", "Extra"}
	out := make([]core.Wallet, len(shares))
	for i, s := range shares {
		out[i] = core.Wallet{Name: names[i], PercentShare: s}
	}
	return out
}

func TestValidateAllocation(t *testing.T) {
	tests := []struct {
		name   string
		shares []int
		valid  bool
	}{
		{"exact", []int{55, 10, 10, 25}, true},
		{"short by one", []int{55, 10, 10, 24}, false},
		{"over", []int{60, 50}, false},
		{"single", []int{100}, true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAllocation(wallets(tt.shares...))
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrAllocationNot100) {
				t.Fatalf("expected ErrAllocationNot100, got %v", err)
			}
			if ValidAllocation(wallets(tt.shares...)) != tt.valid {
				t.Fatalf("ValidAllocation disagrees with ValidateAllocation")
			}
		})
	}
}

func TestComputeWalletLimits(t *testing.T) {
	got := ComputeWalletLimits(wallets(55, 10, 10, 25), 10_000_000)
	want := []int64{5_500_000, 1_000_000, 1_000_000, 2_500_000}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("limit[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	rounded := ComputeWalletLimits(wallets(33, 67), 1001)
	if rounded[0] != 330 || rounded[1] != 671 {
		t.Fatalf("unexpected rounding %v", rounded)
	}

	for _, income := range []int64{0, -5} {
		for _, l := range ComputeWalletLimits(wallets(50, 50), income) {
			if l != 0 {
				t.Fatalf("income %d should give zero limits, got %d", income, l)
			}
		}
	}
}

func sampleBudget() core.Budget {
	return core.Budget{
		Cycle:     core.Monthly,
		StartDate: core.NewDate(2025, 1, 1),
		Currency:  "VND",
		Wallets:   wallets(55, 10, 10, 25),
		CategoryWallets: map[string]string{
			"Food":    "Needs",
			"Housing": "Needs",
			"Fun":     "Wants",
		},
	}
}

func TestComputeWalletSpend(t *testing.T) {
	b := sampleBudget()
	tx := func(day int, typ core.TransactionType, cat string, v int64, cur string) core.Transaction {
		return core.Transaction{
			Amount:   core.Money{Value: v, Currency: cur},
			Category: cat,
			Date:     core.NewDate(2025, 1, day),
			Type:     typ,
		}
	}
	txs := []core.Transaction{
		tx(2, core.Expense, "Food", 3_000_000, "VND"),
		tx(5, core.Expense, "Housing", 1_000_000, "VND"),
		tx(6, core.Expense, "Fuel", 999, "VND"),
		tx(7, core.Expense, "Food", 10, "USD"),
		tx(8, core.Income, "Food", 500, "VND"),
		tx(31, core.Expense, "Fun", 200_000, "VND"),
	}
	txs = append(txs, core.Transaction{
		Amount: core.Money{Value: 7, Currency: "VND"}, Category: "Food",
		Date: core.NewDate(2025, 2, 1), Type: core.Expense,
	})

	spend := ComputeWalletSpend(b, txs, core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if spend["Needs"] != 4_000_000 || spend["Wants"] != 200_000 || len(spend) != 2 {
		t.Fatalf("unexpected spend %v", spend)
	}

	fromTotals := SpendFromCategoryTotals(b, map[string]int64{"Food": 3_000_000, "Housing": 1_000_000, "Fuel": 5})
	if fromTotals["Needs"] != 4_000_000 || len(fromTotals) != 1 {
		t.Fatalf("unexpected spend from totals %v", fromTotals)
	}
}

func TestComputeWalletProgressBelowThreshold(t *testing.T) {
	b := sampleBudget()
	progress := ComputeWalletProgress(b, 10_000_000, map[string]int64{"Needs": 4_000_000})
	needs := progress[0]
	if needs.Limit != 5_500_000 || needs.Spend != 4_000_000 {
		t.Fatalf("unexpected progress %+v", needs)
	}
	if math.Abs(needs.UsedPct-72.727) > 0.01 {
		t.Fatalf("UsedPct = %f, want ~72.7", needs.UsedPct)
	}
	if progress[1].UsedPct != 0 {
		t.Fatalf("untouched wallet should be 0%%, got %f", progress[1].UsedPct)
	}

	zero := ComputeWalletProgress(b, 0, map[string]int64{"Needs": 100})
	if zero[0].UsedPct != 0 || zero[0].Limit != 0 {
		t.Fatalf("zero income should give zero limit and pct, got %+v", zero[0])
	}
}

func TestHealthGrade(t *testing.T) {
	tests := []struct {
		income, expense int64
		want            Grade
	}{
		{100, 50, GradeA},
		{100, 51, GradeB},
		{100, 70, GradeB},
		{100, 85, GradeC},
		{100, 100, GradeD},
		{100, 101, GradeE},
		{0, 0, GradeA},
		{0, 1, GradeE},
	}
	for _, tt := range tests {
		if got := HealthGrade(tt.income, tt.expense); got != tt.want {
			t.Errorf("HealthGrade(%d, %d) = %s, want %s", tt.income, tt.expense, got, tt.want)
		}
	}
}

func TestRecommendedSharesSumTo100(t *testing.T) {
	for _, g := range []Grade{GradeA, GradeB, GradeC, GradeD, GradeE} {
		if err := ValidateAllocation(RecommendedShares(g)); err != nil {
			t.Errorf("grade %s: %v", g, err)
		}
	}
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		name      string
		cycle     core.BudgetCycle
		start     core.Date
		ref       core.Date
		wantStart core.Date
		wantEnd   core.Date
	}{
		{"monthly first", core.Monthly, core.NewDate(2025, 1, 1), core.NewDate(2025, 3, 15), core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31)},
		{"monthly mid anchor before day", core.Monthly, core.NewDate(2025, 1, 10), core.NewDate(2025, 3, 5), core.NewDate(2025, 2, 10), core.NewDate(2025, 3, 9)},
		{"monthly clamped", core.Monthly, core.NewDate(2025, 1, 31), core.NewDate(2025, 2, 28), core.NewDate(2025, 2, 28), core.NewDate(2025, 3, 30)},
		{"monthly across year", core.Monthly, core.NewDate(2025, 1, 20), core.NewDate(2026, 1, 5), core.NewDate(2025, 12, 20), core.NewDate(2026, 1, 19)},
		{"weekly", core.Weekly, core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 16), core.NewDate(2025, 1, 15), core.NewDate(2025, 1, 21)},
		{"weekly before start", core.Weekly, core.NewDate(2025, 1, 15), core.NewDate(2025, 1, 10), core.NewDate(2025, 1, 8), core.NewDate(2025, 1, 14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodFor(core.Budget{Cycle: tt.cycle, StartDate: tt.start}, tt.ref)
			if p.Start != tt.wantStart || p.End != tt.wantEnd {
				t.Fatalf("PeriodFor = %s..%s, want %s..%s", p.Start, p.End, tt.wantStart, tt.wantEnd)
			}
			if !p.Contains(tt.ref) {
				t.Fatalf("period does not contain ref")
			}
		})
	}
}

func TestIncomeForPeriod(t *testing.T) {
	override := int64(5_200_000)
	b := core.Budget{Cycle: core.Monthly}
	if got := IncomeForPeriod(b, 123); got != 123 {
		t.Fatalf("without override got %d", got)
	}
	b.MonthlyIncomeOverride = &override
	if got := IncomeForPeriod(b, 123); got != override {
		t.Fatalf("monthly override got %d", got)
	}
	b.Cycle = core.Weekly
	if got := IncomeForPeriod(b, 123); got != 1_200_000 {
		t.Fatalf("weekly override got %d, want 1200000", got)
	}
}

func TestEngineProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store, "VND", nil)
	now := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)

	if _, err := engine.Progress(ctx, now); !errors.Is(err, core.ErrNoActiveBudget) {
		t.Fatalf("expected ErrNoActiveBudget, got %v", err)
	}

	bad := sampleBudget()
	bad.Wallets = wallets(55, 10, 10, 24)
	if _, err := engine.SaveBudget(ctx, bad); !errors.Is(err, ErrAllocationNot100) {
		t.Fatalf("expected ErrAllocationNot100, got %v", err)
	}

	b := sampleBudget()
	b.Currency = ""
	saved, err := engine.SaveBudget(ctx, b)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Currency != "VND" {
		t.Fatalf("expected default currency, got %q", saved.Currency)
	}

	for _, tx := range []core.Transaction{
		{Amount: core.Money{Value: 10_000_000, Currency: "VND"}, Category: "Salary", Date: core.NewDate(2025, 1, 1), Type: core.Income},
		{Amount: core.Money{Value: 4_000_000, Currency: "VND"}, Category: "Food", Date: core.NewDate(2025, 1, 10), Type: core.Expense},
		{Amount: core.Money{Value: 9_000_000, Currency: "VND"}, Category: "Food", Date: core.NewDate(2024, 12, 31), Type: core.Expense},
	} {
		if _, err := store.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	report, err := engine.Progress(ctx, now)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if report.Income != 10_000_000 || report.Expense != 4_000_000 || report.Grade != GradeA {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Wallets[0].Spend != 4_000_000 || report.Wallets[0].Limit != 5_500_000 {
		t.Fatalf("unexpected needs wallet %+v", report.Wallets[0])
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "budget.toml")
	content := `
cycle = "monthly"
start_date = "2025-01-01"
currency = "vnd"
monthly_income = 10000000

[[wallet]]
name = "Needs"
share = 55
categories = ["Food", "Housing"]

[[wallet]]
name = "Wants"
share = 45
categories = ["Entertainment"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.Cycle != core.Monthly || b.Currency != "VND" || *b.MonthlyIncomeOverride != 10_000_000 {
		t.Fatalf("unexpected budget %+v", b)
	}
	if len(b.Wallets) != 2 || b.CategoryWallets["Housing"] != "Needs" || b.CategoryWallets["Entertainment"] != "Wants" {
		t.Fatalf("unexpected wallets %+v / %v", b.Wallets, b.CategoryWallets)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "cycle = \"monthly\"\nstart_date = \"2025-01-01\"\ncolour = 1\n",
		"bad date":      "cycle = \"monthly\"\nstart_date = \"01/01/2025\"\n",
		"bad cycle":     "cycle = \"daily\"\nstart_date = \"2025-01-01\"\n",
		"double mapped": "cycle = \"monthly\"\nstart_date = \"2025-01-01\"\n[[wallet]]\nname = \"A\"\nshare = 50\ncategories = [\"Food\"]\n[[wallet]]\nname = \"B\"\nshare = 50\ncategories = [\"Food\"]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSaveBudgetLogsWithBudgetComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentApp, Output: &buf})
	engine := NewEngine(memory.New(), "VND", logger)

	if _, err := engine.SaveBudget(context.Background(), sampleBudget()); err != nil {
		t.Fatalf("save: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Budget saved", "component=budget", "operation=save_budget"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
