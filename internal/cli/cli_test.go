package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"finflow/internal/budget"
	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/streak"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DEDUP_WINDOW", "30s")

	cfg, err := LoadAndValidateConfig(log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DedupWindow != 30*time.Second {
		t.Fatalf("DedupWindow = %v, want 30s", cfg.DedupWindow)
	}

	t.Setenv("DATA_BACKEND", "sheets")
	if _, err := LoadAndValidateConfig(log.Discard()); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestNewAppConfirmsThroughMemoryBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig(log.Discard())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	app, err := NewApp(ctx, log.Discard(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	drafts := app.Service.Parse(ctx, "cafe 30k", now)
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %+v", drafts)
	}
	first, err := app.Service.Confirm(ctx, drafts[0], core.SourceText, now)
	if err != nil || first.Duplicate {
		t.Fatalf("first confirm: %+v err=%v", first, err)
	}
	second, err := app.Service.Confirm(ctx, drafts[0], core.SourceText, now.Add(time.Second))
	if err != nil || !second.Duplicate {
		t.Fatalf("second confirm should be a duplicate: %+v err=%v", second, err)
	}
	if n := app.Caches.CleanAll(); n != 0 {
		t.Fatalf("nothing should expire yet, cleaned %d", n)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{20000, "20,000"},
		{15000000, "15,000,000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDraft(t *testing.T) {
	d := core.TransactionDraft{
		Amount:      core.Money{Value: 15000000, Currency: "VND"},
		Description: "lương",
		Category:    "Salary",
		Date:        core.NewDate(2025, 1, 15),
		Type:        core.Income,
	}
	got := FormatDraft(d)
	if !strings.HasPrefix(got, "+15,000,000 VND") || !strings.Contains(got, "2025-01-15") {
		t.Fatalf("unexpected draft line %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	r := budget.Report{
		Budget: core.Budget{Cycle: core.Monthly, Currency: "VND"},
		Period: budget.Period{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 1, 31)},
		Income: 10000000,
		Grade:  budget.GradeA,
		Wallets: []budget.WalletProgress{
			{Wallet: core.Wallet{Name: "Needs", PercentShare: 55}, Limit: 5500000, Spend: 4500000, UsedPct: 81.8},
		},
	}
	got := FormatReport(r)
	for _, want := range []string{"2025-01-01", "Grade   A", "Needs", "4,500,000 / 5,500,000", "81.8%"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestFormatCalendar(t *testing.T) {
	markers := []streak.Marker{
		{Status: streak.Done},
		{Status: streak.NotDone},
		{Status: streak.Today},
		{Status: streak.Future},
	}
	if got := FormatCalendar(markers); got != "■□◆·" {
		t.Fatalf("FormatCalendar = %q", got)
	}
}
