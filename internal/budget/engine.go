package budget

import (
	"context"
	"fmt"
	"time"

	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/ports"
)

// Store is the persistence the engine reads and writes.
type Store interface {
	ports.BudgetStore
	CategoryTotals(ctx context.Context, currency string, from, to core.Date) (map[string]int64, error)
	TypeTotals(ctx context.Context, currency string, from, to core.Date) (map[core.TransactionType]int64, error)
}

// Report is the state of the active budget for the period containing now.
type Report struct {
	Budget  core.Budget
	Period  Period
	Income  int64
	Expense int64
	Grade   Grade
	Wallets []WalletProgress
}

type Engine struct {
	store           Store
	defaultCurrency string
	logger          *log.Logger
}

// NewEngine builds an engine. An empty currency selects core.DefaultCurrency.
func NewEngine(store Store, defaultCurrency string, logger *log.Logger) *Engine {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{
		store:           store,
		defaultCurrency: defaultCurrency,
		logger:          logger.WithComponent(log.ComponentBudget),
	}
}

// SaveBudget validates b and stores it as the active budget.
func (e *Engine) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.Currency == "" {
		b.Currency = e.defaultCurrency
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}
	if err := ValidateAllocation(b.Wallets); err != nil {
		return core.Budget{}, err
	}
	saved, err := e.store.SaveBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	e.logger.InfoContext(ctx, "Budget saved",
		log.FieldOperation, log.OpSaveBudget,
		"id", saved.ID,
		"cycle", saved.Cycle,
		"wallets", len(saved.Wallets),
		log.FieldCurrency, saved.Currency)
	return saved, nil
}

// Progress computes wallet progress for the active budget. It returns
// core.ErrNoActiveBudget when none is configured.
func (e *Engine) Progress(ctx context.Context, now time.Time) (Report, error) {
	b, err := e.store.ActiveBudget(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load active budget: %w", err)
	}
	period := PeriodFor(b, core.DateOf(now))

	categories, err := e.store.CategoryTotals(ctx, b.Currency, period.Start, period.End)
	if err != nil {
		return Report{}, fmt.Errorf("category totals: %w", err)
	}
	types, err := e.store.TypeTotals(ctx, b.Currency, period.Start, period.End)
	if err != nil {
		return Report{}, fmt.Errorf("type totals: %w", err)
	}

	income := IncomeForPeriod(b, types[core.Income])
	return Report{
		Budget:  b,
		Period:  period,
		Income:  income,
		Expense: types[core.Expense],
		Grade:   HealthGrade(income, types[core.Expense]),
		Wallets: ComputeWalletProgress(b, income, SpendFromCategoryTotals(b, categories)),
	}, nil
}
