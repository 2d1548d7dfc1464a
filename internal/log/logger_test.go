package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"finflow/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentBudget, Output: &buf})

	logger.InfoContext(context.Background(), "Budget saved", FieldWallet, "Needs")
	logger.WithComponent(ComponentStreak).Debug("Activity recorded")

	out := buf.String()
	if !strings.Contains(out, "component=budget") || !strings.Contains(out, "wallet=Needs") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=streak") {
		t.Fatalf("component override missing in %q", out)
	}
}

func TestLoggerJSONAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Format: "json", Output: &buf})
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), `"msg":"kept"`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := Discard().WithComponent(ComponentNotify)
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx).Component() != ComponentNotify {
		t.Fatal("logger not recovered from context")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}

func TestLogFields(t *testing.T) {
	d := core.TransactionDraft{
		Amount:      core.Money{Value: 20000, Currency: "VND"},
		Description: "cafe",
		Category:    "Food",
		Date:        core.NewDate(2025, 1, 15),
		Type:        core.Expense,
		DedupHash:   "abc",
	}
	f := NewFields().WithOperation(OpConfirm).WithDraft(d).WithError(errors.New("boom")).WithError(nil)
	if f[FieldAmount] != int64(20000) || f[FieldDate] != "2025-01-15" || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatal("ToSlice length mismatch")
	}
}
