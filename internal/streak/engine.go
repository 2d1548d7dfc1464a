package streak

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/ports"
)

const (
	BaseReward     int64 = 10
	MilestoneBonus int64 = 50
)

// Milestones are the streak lengths that earn MilestoneBonus.
var Milestones = []int{7, 14, 30}

// DefaultCatalog maps reward codes to their coin cost.
var DefaultCatalog = map[string]int64{
	"coffee":      100,
	"movie":       300,
	"theme-dark":  150,
	"no-ads-week": 500,
}

// Store is the persistence the engine needs.
type Store interface {
	ports.ActivityStore
	ports.CoinStore
}

// Activity describes what one RecordActivity call did.
type Activity struct {
	Count      int
	Qualifying bool
	Streak     core.StreakState
	Awarded    int64
	Milestone  bool
	Balance    int64
}

// State is a read-only snapshot for display.
type State struct {
	Streak   core.StreakState
	Balance  int64
	Calendar []Marker
}

type RedeemResult struct {
	OK      bool
	Reason  string
	Balance int64
}

type Engine struct {
	store    Store
	notifier ports.Notifier
	catalog  map[string]int64
	logger   *log.Logger
}

// NewEngine builds an engine. A nil catalog selects DefaultCatalog; a nil
// notifier disables milestone notifications.
func NewEngine(store Store, notifier ports.Notifier, catalog map[string]int64, logger *log.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		catalog:  catalog,
		logger:   logger.WithComponent(log.ComponentStreak),
	}
}

// RecordActivity counts one activity on now's calendar day. Only the first
// activity of a day earns coins. The count and the reward are stored in one
// step, so a failed call can be retried without losing the reward.
func (e *Engine) RecordActivity(ctx context.Context, now time.Time) (Activity, error) {
	today := core.DateOf(now)
	entries, err := e.store.ActivityRange(ctx, today.AddDays(-(LookbackDays - 1)), today)
	if err != nil {
		return Activity{}, fmt.Errorf("read activity: %w", err)
	}
	// The reward is priced as if this activity were today's first; the store
	// only credits it when that holds.
	state := ComputeStreak(append(entries, core.HabitLogEntry{Date: today, Count: 1}), today)
	act := Activity{Qualifying: true, Streak: state, Awarded: BaseReward}
	if slices.Contains(Milestones, state.Current) {
		act.Milestone = true
		act.Awarded += MilestoneBonus
	}

	count, balance, err := e.store.RecordActivity(ctx, today, act.Awarded)
	if err != nil {
		return Activity{}, fmt.Errorf("record activity: %w", err)
	}
	if count != 1 {
		return Activity{Count: count}, nil
	}
	act.Count = count
	act.Balance = balance

	e.logger.InfoContext(ctx, "Daily activity rewarded",
		log.FieldOperation, log.OpRecord,
		log.FieldStreak, state.Current,
		log.FieldCoins, act.Awarded,
		"milestone", act.Milestone)

	if act.Milestone && e.notifier != nil {
		title := fmt.Sprintf("%d-day streak!", state.Current)
		body := fmt.Sprintf("You logged %d days in a row and earned %d bonus coins.", state.Current, MilestoneBonus)
		if err := e.notifier.Notify(ctx, title, body); err != nil {
			e.logger.WarnContext(ctx, "Milestone notification failed", log.FieldError, err)
		}
	}
	return act, nil
}

// State returns the streak, coin balance and calendar as of now.
func (e *Engine) State(ctx context.Context, now time.Time) (State, error) {
	today := core.DateOf(now)
	entries, err := e.store.ActivityRange(ctx, today.AddDays(-(LookbackDays - 1)), today.AddDays(7))
	if err != nil {
		return State{}, fmt.Errorf("read activity: %w", err)
	}
	balance, err := e.store.CoinBalance(ctx)
	if err != nil {
		return State{}, fmt.Errorf("read balance: %w", err)
	}
	return State{
		Streak:   ComputeStreak(entries, today),
		Balance:  balance,
		Calendar: TwoWeekCalendar(entries, today),
	}, nil
}

// Redeem exchanges coins for a catalog reward. A shortfall or unknown code
// is reported in the result, not as an error.
func (e *Engine) Redeem(ctx context.Context, code string, now time.Time) (RedeemResult, error) {
	cost, ok := e.catalog[code]
	if !ok {
		return RedeemResult{Reason: fmt.Sprintf("unknown reward %q", code)}, nil
	}

	balance, err := e.store.Redeem(ctx, core.Redemption{
		ID:         uuid.NewString(),
		Code:       code,
		Cost:       cost,
		RedeemedAt: now,
	})
	if errors.Is(err, core.ErrInsufficientCoins) {
		return RedeemResult{Reason: core.ErrInsufficientCoins.Error(), Balance: balance}, nil
	}
	if err != nil {
		return RedeemResult{}, fmt.Errorf("redeem %s: %w", code, err)
	}

	e.logger.InfoContext(ctx, "Reward redeemed",
		log.FieldOperation, log.OpRedeem,
		"code", code,
		log.FieldCoins, cost)
	return RedeemResult{OK: true, Balance: balance}, nil
}

// Catalog returns a copy of the reward catalog.
func (e *Engine) Catalog() map[string]int64 {
	out := make(map[string]int64, len(e.catalog))
	for k, v := range e.catalog {
		out[k] = v
	}
	return out
}
