package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"finflow/internal/budget"
	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/ports"
)

func progress(name string, limit, spend int64) budget.WalletProgress {
	return budget.WalletProgress{
		Wallet:  core.Wallet{Name: name},
		Limit:   limit,
		Spend:   spend,
		UsedPct: budget.UsedPercent(spend, limit),
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		progress budget.WalletProgress
		want     Kind
	}{
		{"below threshold", progress("Needs", 5_500_000, 4_000_000), ""},
		{"exactly 80", progress("Needs", 1000, 800), Approaching},
		{"just under 100", progress("Needs", 1000, 999), Approaching},
		{"exactly 100", progress("Needs", 1000, 1000), OverBudget},
		{"over", progress("Needs", 1000, 1500), OverBudget},
		{"no limit", progress("Needs", 0, 1500), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Evaluate([]budget.WalletProgress{tt.progress})
			if tt.want == "" {
				if len(events) != 0 {
					t.Fatalf("expected no events, got %+v", events)
				}
				return
			}
			if len(events) != 1 || events[0].Kind != tt.want {
				t.Fatalf("expected %s, got %+v", tt.want, events)
			}
			wantSeverity := Warning
			if tt.want == OverBudget {
				wantSeverity = Critical
			}
			if events[0].Severity != wantSeverity {
				t.Fatalf("severity = %s, want %s", events[0].Severity, wantSeverity)
			}
		})
	}
}

type recorder struct {
	titles []string
	err    error
}

func (r *recorder) Notify(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func TestDispatchSwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: log.ComponentApp, Output: &buf})

	failing := &recorder{err: errors.New("offline")}
	d := NewDispatcher(failing, logger)
	events := Evaluate([]budget.WalletProgress{progress("Needs", 100, 120), progress("Wants", 100, 85)})

	if n := d.Dispatch(context.Background(), events); n != 0 {
		t.Fatalf("expected 0 delivered, got %d", n)
	}
	if len(failing.titles) != 2 {
		t.Fatalf("expected 2 attempts, got %v", failing.titles)
	}
	if !strings.Contains(buf.String(), "Notification delivery failed") {
		t.Fatalf("failure not logged: %q", buf.String())
	}

	ok := &recorder{}
	if n := NewDispatcher(ok, nil).Dispatch(context.Background(), events); n != 2 {
		t.Fatalf("expected 2 delivered, got %d", n)
	}
	if ok.titles[0] != "Over budget: Needs" || ok.titles[1] != "Approaching limit: Wants" {
		t.Fatalf("unexpected titles %v", ok.titles)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("b down")}
	m := Multi{a, nil, b, ports.NotifierFunc(func(context.Context, string, string) error { return nil })}
	err := m.Notify(context.Background(), "t", "b")
	if err == nil || !strings.Contains(err.Error(), "b down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Fatal("every notifier should be called")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: log.New(log.Config{Component: log.ComponentNotifier, Output: &buf})}
	if err := n.Notify(context.Background(), "Over budget: Needs", "body"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Over budget: Needs") {
		t.Fatalf("notification not logged: %q", buf.String())
	}
}
