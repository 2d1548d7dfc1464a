// Package notify turns wallet progress into threshold events and hands them
// to a delivery collaborator.
package notify

import (
	"context"
	"errors"
	"fmt"

	"finflow/internal/budget"
	"finflow/internal/log"
	"finflow/internal/ports"
)

// ApproachingPct is the usage at which a wallet starts warning.
const ApproachingPct = 80.0

type Kind string

const (
	OverBudget  Kind = "over_budget"
	Approaching Kind = "approaching_limit"
)

type Severity string

const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
)

// Event is one threshold crossing.
type Event struct {
	Kind     Kind
	Severity Severity
	Progress budget.WalletProgress
}

// Evaluate returns the events for the given wallets. Wallets with no limit
// never fire.
func Evaluate(progress []budget.WalletProgress) []Event {
	var events []Event
	for _, p := range progress {
		if p.Limit <= 0 {
			continue
		}
		switch {
		case p.UsedPct >= 100:
			events = append(events, Event{Kind: OverBudget, Severity: Critical, Progress: p})
		case p.UsedPct >= ApproachingPct:
			events = append(events, Event{Kind: Approaching, Severity: Warning, Progress: p})
		}
	}
	return events
}

// Render produces the (title, body) pair for an event.
func Render(e Event) (string, string) {
	p := e.Progress
	if e.Kind == OverBudget {
		return fmt.Sprintf("Over budget: %s", p.Wallet.Name),
			fmt.Sprintf("%s has used %.0f%% of its limit (%d / %d).", p.Wallet.Name, p.UsedPct, p.Spend, p.Limit)
	}
	return fmt.Sprintf("Approaching limit: %s", p.Wallet.Name),
		fmt.Sprintf("%s is at %.0f%% of its limit (%d / %d).", p.Wallet.Name, p.UsedPct, p.Spend, p.Limit)
}

// Dispatcher delivers events. Delivery failures are logged, never returned.
type Dispatcher struct {
	notifier ports.Notifier
	logger   *log.Logger
}

func NewDispatcher(notifier ports.Notifier, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Discard()
	}
	return &Dispatcher{notifier: notifier, logger: logger.WithComponent(log.ComponentNotify)}
}

// Dispatch sends every event and returns how many were delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) int {
	delivered := 0
	for _, e := range events {
		title, body := Render(e)
		if d.Send(ctx, title, body) {
			delivered++
		}
	}
	return delivered
}

// Send delivers a single message, reporting success.
func (d *Dispatcher) Send(ctx context.Context, title, body string) bool {
	if d.notifier == nil {
		return false
	}
	if err := d.notifier.Notify(ctx, title, body); err != nil {
		d.logger.WarnContext(ctx, "Notification delivery failed",
			log.FieldOperation, log.OpNotify,
			"title", title,
			log.FieldError, err)
		return false
	}
	return true
}

// Notify lets a Dispatcher stand in for a ports.Notifier. It never fails.
func (d *Dispatcher) Notify(ctx context.Context, title, body string) error {
	d.Send(ctx, title, body)
	return nil
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(ctx context.Context, title, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger.InfoContext(ctx, "Notification", "title", title, "body", body)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []ports.Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
